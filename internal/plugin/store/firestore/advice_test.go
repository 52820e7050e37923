package firestore_test

import (
	"testing"
	"time"

	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvice(t *testing.T) {
	store, srv, ctx := setupTestStore(t)
	seed := func(id string, at time.Time, category string, read, dismissed bool) {
		srv.Put("users/u1/advice/"+id, value.NewFields().
			Set("content", value.String("advice "+id)).
			Set("category", value.String(category)).
			Set("confidence", value.Double(0.8)).
			Set("is_read", value.Bool(read)).
			Set("is_dismissed", value.Bool(dismissed)).
			Set("created_at", value.Timestamp(at)))
	}
	seed("a1", day.Add(1*time.Hour), "health", false, false)
	seed("a2", day.Add(2*time.Hour), "productivity", true, false)
	seed("a3", day.Add(3*time.Hour), "health", false, true)
	seed("a4", day.Add(4*time.Hour), "learning", false, false)

	page, err := store.ListAdvice(ctx, uid, registrystore.AdviceFilter{})
	require.NoError(t, err)
	ids := []string{}
	for _, a := range page.Items {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a4", "a2", "a1"}, ids)

	page, err = store.ListAdvice(ctx, uid, registrystore.AdviceFilter{Category: "health", IncludeDismissed: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a3", page.Items[0].ID)
	assert.True(t, page.Items[0].IsDismissed)

	page, err = store.ListAdvice(ctx, uid, registrystore.AdviceFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	t.Run("create", func(t *testing.T) {
		a, err := store.CreateAdvice(ctx, uid, model.NewAdvice{
			Content:   "Take a break",
			Category:  "wellness",
			SourceApp: ptr("Slack"),
		})
		require.NoError(t, err)
		assert.Len(t, a.ID, 36)
		assert.Equal(t, model.AdviceOther, a.Category)
		assert.Equal(t, model.DefaultAdviceConfidence, a.Confidence)
		assert.Equal(t, "Slack", *a.SourceApp)
		assert.Nil(t, a.Reasoning)
		assert.False(t, a.IsRead)

		got, err := store.GetAdvice(ctx, uid, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Take a break", got.Content)

		_, err = store.CreateAdvice(ctx, uid, model.NewAdvice{Content: " "})
		assert.True(t, registrystore.IsValidation(err))
		_, err = store.CreateAdvice(ctx, uid, model.NewAdvice{Content: "x", Confidence: ptr(1.5)})
		assert.True(t, registrystore.IsValidation(err))

		require.NoError(t, store.DeleteAdvice(ctx, uid, a.ID))
		require.NoError(t, store.DeleteAdvice(ctx, uid, a.ID))
		_, err = store.GetAdvice(ctx, uid, a.ID)
		assert.True(t, registrystore.IsNotFound(err))
	})

	t.Run("update", func(t *testing.T) {
		a, err := store.UpdateAdvice(ctx, uid, "a4", model.AdviceUpdate{IsDismissed: ptr(true)})
		require.NoError(t, err)
		assert.True(t, a.IsDismissed)
		assert.False(t, a.IsRead)
		assert.NotNil(t, a.UpdatedAt)
		assert.Equal(t, "advice a4", a.Content)

		_, err = store.UpdateAdvice(ctx, uid, "missing", model.AdviceUpdate{IsRead: ptr(true)})
		assert.True(t, registrystore.IsNotFound(err))
		_, ok := srv.Fields("users/u1/advice/missing")
		assert.False(t, ok)
	})

	t.Run("mark all read skips dismissed", func(t *testing.T) {
		n, err := store.MarkAllAdviceRead(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		a1, err := store.GetAdvice(ctx, uid, "a1")
		require.NoError(t, err)
		assert.True(t, a1.IsRead)
		a3, err := store.GetAdvice(ctx, uid, "a3")
		require.NoError(t, err)
		assert.False(t, a3.IsRead)

		n, err = store.MarkAllAdviceRead(ctx, uid)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestUserSettings(t *testing.T) {
	store, srv, ctx := setupTestStore(t)

	t.Run("missing user reads defaults", func(t *testing.T) {
		daily, err := store.GetDailySummarySettings(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, model.DailySummarySettings{Enabled: true, Hour: 22}, *daily)

		notif, err := store.GetNotificationSettings(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, model.NotificationSettings{Enabled: true, Frequency: 3}, *notif)

		prefs, err := store.GetTranscriptionPreferences(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, prefs.SingleLanguageMode)
		assert.Empty(t, prefs.Vocabulary)

		lang, err := store.GetUserLanguage(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, "en", lang)

		rec, err := store.GetRecordingPermission(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, rec)
		sync, err := store.GetPrivateCloudSync(ctx, "nobody")
		require.NoError(t, err)
		assert.True(t, sync)

		profile, err := store.GetUserProfile(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, &model.UserProfile{UID: "nobody"}, profile)
	})

	srv.Put("users/u1", value.NewFields().
		Set("email", value.String("u1@example.com")).
		Set("name", value.String("Ada")).
		Set("time_zone", value.String("Europe/Lisbon")).
		Set("created_at", value.Timestamp(day)).
		Set("daily_summary_hour_local", value.Int(7)))

	t.Run("partial updates keep other fields", func(t *testing.T) {
		daily, err := store.UpdateDailySummarySettings(ctx, uid, model.DailySummaryUpdate{Enabled: ptr(false)})
		require.NoError(t, err)
		assert.Equal(t, model.DailySummarySettings{Enabled: false, Hour: 7}, *daily)

		_, err = store.UpdateDailySummarySettings(ctx, uid, model.DailySummaryUpdate{Hour: ptr(int64(24))})
		assert.True(t, registrystore.IsValidation(err))

		notif, err := store.UpdateNotificationSettings(ctx, uid, model.NotificationUpdate{Frequency: ptr(int64(5))})
		require.NoError(t, err)
		assert.Equal(t, model.NotificationSettings{Enabled: true, Frequency: 5}, *notif)

		require.NoError(t, store.SetUserLanguage(ctx, uid, "pt"))
		assert.True(t, registrystore.IsValidation(store.SetUserLanguage(ctx, uid, "")))
		require.NoError(t, store.SetRecordingPermission(ctx, uid, true))
		require.NoError(t, store.SetPrivateCloudSync(ctx, uid, false))

		lang, err := store.GetUserLanguage(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "pt", lang)
		rec, err := store.GetRecordingPermission(ctx, uid)
		require.NoError(t, err)
		assert.True(t, rec)
		sync, err := store.GetPrivateCloudSync(ctx, uid)
		require.NoError(t, err)
		assert.False(t, sync)

		profile, err := store.GetUserProfile(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "Ada", *profile.Name)
		assert.Equal(t, "u1@example.com", *profile.Email)
		assert.Equal(t, "Europe/Lisbon", *profile.TimeZone)
		assert.Equal(t, day, *profile.CreatedAt)
	})

	t.Run("transcription preferences", func(t *testing.T) {
		prefs, err := store.UpdateTranscriptionPreferences(ctx, uid, model.TranscriptionUpdate{
			Vocabulary: []string{"Kubernetes", " ", "gRPC"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Kubernetes", "gRPC"}, prefs.Vocabulary)

		prefs, err = store.UpdateTranscriptionPreferences(ctx, uid, model.TranscriptionUpdate{SingleLanguageMode: ptr(true)})
		require.NoError(t, err)
		assert.True(t, prefs.SingleLanguageMode)
		assert.Equal(t, []string{"Kubernetes", "gRPC"}, prefs.Vocabulary)

		stored, err := store.GetTranscriptionPreferences(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, prefs, stored)
	})
}

func TestDesktopReleases(t *testing.T) {
	store, srv, ctx := setupTestStore(t)

	for _, r := range []model.DesktopRelease{
		{Version: "1.2.0", BuildNumber: 120, IsLive: true, Changelog: []string{"Faster sync"}},
		{Version: "1.3.0", BuildNumber: 130, IsCritical: true},
		{Version: "1.1.0", BuildNumber: 110, IsLive: true},
	} {
		_, err := store.CreateDesktopRelease(ctx, &r)
		require.NoError(t, err)
	}
	srv.Put("desktop_releases/junk", value.NewFields().Set("build_number", value.Int(999)))

	_, ok := srv.Fields("desktop_releases/v1.2.0+120")
	require.True(t, ok)

	releases, err := store.ListDesktopReleases(ctx)
	require.NoError(t, err)
	require.Len(t, releases, 3)
	assert.Equal(t, int64(130), releases[0].BuildNumber)
	assert.True(t, releases[0].IsCritical)
	assert.Empty(t, releases[0].Changelog)
	assert.Equal(t, []string{"Faster sync"}, releases[1].Changelog)
	assert.Equal(t, "1.1.0", releases[2].Version)

	_, err = store.CreateDesktopRelease(ctx, &model.DesktopRelease{BuildNumber: 1})
	assert.True(t, registrystore.IsValidation(err))
	_, err = store.CreateDesktopRelease(ctx, &model.DesktopRelease{Version: "1/2", BuildNumber: 1})
	assert.True(t, registrystore.IsValidation(err))
}
