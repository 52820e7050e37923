package store

import (
	"context"
	"fmt"

	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/model"
)

// Page is one page of results with a has-more flag.
type Page[T any] = docstore.Page[T]

// BatchResult summarizes a best-effort batch write.
type BatchResult struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// ConversationFilter selects conversations for listing and counting.
type ConversationFilter struct {
	Limit            int
	Offset           int
	IncludeDiscarded bool
	Statuses         []model.ConversationStatus
}

// ActionItemFilter selects action items. A nil Completed matches both.
type ActionItemFilter struct {
	Limit     int
	Offset    int
	Completed *bool
}

// FocusFilter selects focus sessions. Date is an optional YYYY-MM-DD UTC day.
type FocusFilter struct {
	Limit  int
	Offset int
	Date   string
}

// AppFilter selects approved catalog apps.
type AppFilter struct {
	Limit      int
	Offset     int
	Capability string
	Category   string
}

// AppSearch is a free-text catalog search.
type AppSearch struct {
	Query         string
	Category      string
	Capability    string
	MinRating     float64
	InstalledOnly bool
	Limit         int
	Offset        int
}

// AdviceFilter selects advice. Dismissed advice is left out unless
// IncludeDismissed is set.
type AdviceFilter struct {
	Limit            int
	Offset           int
	Category         string
	IncludeDismissed bool
}

// JournalStore is the repository every journal feature reads and writes
// through. Point reads of missing records return *NotFoundError; invalid
// input returns *ValidationError before any I/O.
type JournalStore interface {
	// Conversations
	ListConversations(ctx context.Context, uid string, f ConversationFilter) (Page[model.Conversation], error)
	CountConversations(ctx context.Context, uid string, f ConversationFilter) (int64, error)
	GetConversation(ctx context.Context, uid, id string) (*model.Conversation, error)
	SaveConversation(ctx context.Context, uid string, c *model.Conversation) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, uid, id string) error
	// AddAppResult replaces the result for appID, or appends it. It is a
	// read-modify-write without preconditions and assumes a single writer
	// per conversation.
	AddAppResult(ctx context.Context, uid, conversationID, appID, content string) error

	// Memories
	ListMemories(ctx context.Context, uid string, limit int) ([]model.Memory, error)
	GetMemory(ctx context.Context, uid, id string) (*model.Memory, error)
	CreateManualMemory(ctx context.Context, uid, content string, visibility model.MemoryVisibility) (*model.Memory, error)
	UpdateMemoryContent(ctx context.Context, uid, id, content string) error
	UpdateMemoryVisibility(ctx context.Context, uid, id string, visibility model.MemoryVisibility) error
	ReviewMemory(ctx context.Context, uid, id string, approve bool) error
	DeleteMemory(ctx context.Context, uid, id string) error
	SaveMemories(ctx context.Context, uid, conversationID string, memories []model.ExtractedMemory) BatchResult

	// Action items
	ListActionItems(ctx context.Context, uid string, f ActionItemFilter) (Page[model.ActionItem], error)
	GetActionItem(ctx context.Context, uid, id string) (*model.ActionItem, error)
	CreateActionItem(ctx context.Context, uid string, item model.NewActionItem) (*model.ActionItem, error)
	UpdateActionItem(ctx context.Context, uid, id string, u model.ActionItemUpdate) (*model.ActionItem, error)
	DeleteActionItem(ctx context.Context, uid, id string) error
	SaveActionItems(ctx context.Context, uid, conversationID string, items []model.NewActionItem) BatchResult

	// Focus sessions
	CreateFocusSession(ctx context.Context, uid string, s model.NewFocusSession) (*model.FocusSession, error)
	ListFocusSessions(ctx context.Context, uid string, f FocusFilter) (Page[model.FocusSession], error)
	DeleteFocusSession(ctx context.Context, uid, id string) error
	FocusStats(ctx context.Context, uid, date string) (*model.FocusStats, error)

	// App catalog
	ListApps(ctx context.Context, uid string, f AppFilter) (Page[model.AppSummary], error)
	PopularApps(ctx context.Context, uid string, limit int) ([]model.AppSummary, error)
	SearchApps(ctx context.Context, uid string, s AppSearch) (Page[model.AppSummary], error)
	GetApp(ctx context.Context, uid, appID string) (*model.App, error)
	EnabledApps(ctx context.Context, uid string) ([]model.AppSummary, error)
	// EnableApp also increments the install count by read-modify-write.
	EnableApp(ctx context.Context, uid, appID string) error
	DisableApp(ctx context.Context, uid, appID string) error
	AppReviews(ctx context.Context, appID string) ([]model.AppReview, error)
	// SubmitAppReview recomputes the app's rating from all reviews after
	// writing, assuming a single writer per app.
	SubmitAppReview(ctx context.Context, uid, appID string, score int, review string) (*model.AppReview, error)

	// Inbound email
	CreateEmail(ctx context.Context, e *model.InboundEmail) error
	ListEmails(ctx context.Context, limit, offset int) ([]model.InboundEmail, error)
	GetEmail(ctx context.Context, id string) (*model.InboundEmail, error)
	MarkEmailRead(ctx context.Context, id string, read bool) error
	DeleteEmail(ctx context.Context, id string) error
	CountEmails(ctx context.Context) (int64, error)
	CountUnreadEmails(ctx context.Context) (int64, error)

	// Advice
	ListAdvice(ctx context.Context, uid string, f AdviceFilter) (Page[model.Advice], error)
	GetAdvice(ctx context.Context, uid, id string) (*model.Advice, error)
	CreateAdvice(ctx context.Context, uid string, a model.NewAdvice) (*model.Advice, error)
	UpdateAdvice(ctx context.Context, uid, id string, u model.AdviceUpdate) (*model.Advice, error)
	DeleteAdvice(ctx context.Context, uid, id string) error
	// MarkAllAdviceRead marks unread, undismissed advice as read and returns
	// how many were changed.
	MarkAllAdviceRead(ctx context.Context, uid string) (int, error)

	// User settings live on the user document. Unset values read as their
	// defaults, and a missing user document reads as all defaults.
	GetDailySummarySettings(ctx context.Context, uid string) (*model.DailySummarySettings, error)
	UpdateDailySummarySettings(ctx context.Context, uid string, u model.DailySummaryUpdate) (*model.DailySummarySettings, error)
	GetTranscriptionPreferences(ctx context.Context, uid string) (*model.TranscriptionPreferences, error)
	UpdateTranscriptionPreferences(ctx context.Context, uid string, u model.TranscriptionUpdate) (*model.TranscriptionPreferences, error)
	GetUserLanguage(ctx context.Context, uid string) (string, error)
	SetUserLanguage(ctx context.Context, uid, language string) error
	GetRecordingPermission(ctx context.Context, uid string) (bool, error)
	SetRecordingPermission(ctx context.Context, uid string, enabled bool) error
	GetPrivateCloudSync(ctx context.Context, uid string) (bool, error)
	SetPrivateCloudSync(ctx context.Context, uid string, enabled bool) error
	GetNotificationSettings(ctx context.Context, uid string) (*model.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, uid string, u model.NotificationUpdate) (*model.NotificationSettings, error)
	GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error)

	// Desktop releases
	ListDesktopReleases(ctx context.Context) ([]model.DesktopRelease, error)
	CreateDesktopRelease(ctx context.Context, r *model.DesktopRelease) (string, error)
}

// Loader creates a JournalStore from config.
type Loader func(ctx context.Context) (JournalStore, error)

// Plugin represents a store plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
