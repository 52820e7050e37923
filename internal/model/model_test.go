package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEnumsDefaultUnknown(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"source known", ParseConversationSource("desktop"), SourceDesktop},
		{"source unknown", ParseConversationSource("pager"), SourceOmi},
		{"status known", ParseConversationStatus("processing"), StatusProcessing},
		{"status unknown", ParseConversationStatus(""), StatusCompleted},
		{"category known", ParseCategory("romantic"), CategoryRomance},
		{"category unknown", ParseCategory("romance"), CategoryOther},
		{"memory category known", ParseMemoryCategory("interesting"), MemoryCategoryInteresting},
		{"memory category unknown", ParseMemoryCategory("core"), MemoryCategorySystem},
		{"visibility known", ParseMemoryVisibility("public"), VisibilityPublic},
		{"visibility unknown", ParseMemoryVisibility("friends"), VisibilityPrivate},
		{"focus focused", ParseFocusStatus("focused"), FocusFocused},
		{"focus anything else", ParseFocusStatus("idle"), FocusDistracted},
		{"app status known", ParseAppStatus("approved"), AppStatusApproved},
		{"app status unknown", ParseAppStatus("pending"), AppStatusUnderReview},
		{"advice category known", ParseAdviceCategory("learning"), AdviceLearning},
		{"advice category unknown", ParseAdviceCategory("finance"), AdviceOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.got)
		})
	}
}

func TestCategoriesComplete(t *testing.T) {
	require.Len(t, Categories, 33)
	for _, c := range Categories {
		require.Equal(t, c, ParseCategory(string(c)))
	}
}

func TestMemoryCategoryRank(t *testing.T) {
	require.Equal(t, 0, MemoryCategorySystem.Rank())
	require.Equal(t, 1, MemoryCategoryInteresting.Rank())
	require.Equal(t, 1, MemoryCategoryManual.Rank())
}

func TestAppSummary(t *testing.T) {
	a := &App{ID: "a1", Name: "Notes", Capabilities: []string{"chat", "memories"}, Installs: 4, Enabled: true}
	require.True(t, a.HasCapability("memories"))
	require.False(t, a.HasCapability("proactive_notification"))
	s := a.Summary()
	require.Equal(t, "a1", s.ID)
	require.True(t, s.Enabled)
	require.Equal(t, int64(4), s.Installs)
}

func TestReleaseID(t *testing.T) {
	r := DesktopRelease{Version: "1.4.0", BuildNumber: 140}
	require.Equal(t, "v1.4.0+140", r.ReleaseID())
}
