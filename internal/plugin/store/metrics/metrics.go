package metrics

import (
	"context"
	"time"

	"github.com/chirino/journal-service/internal/model"
	"github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/security"
)

// Wrap returns a JournalStore that records StoreLatency for every operation.
func Wrap(inner store.JournalStore) store.JournalStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.JournalStore
}

func observe(op string, start time.Time) {
	security.ObserveStore(op, start)
}

func (m *metricsStore) ListConversations(ctx context.Context, uid string, f store.ConversationFilter) (store.Page[model.Conversation], error) {
	defer observe("list_conversations", time.Now())
	return m.inner.ListConversations(ctx, uid, f)
}

func (m *metricsStore) CountConversations(ctx context.Context, uid string, f store.ConversationFilter) (int64, error) {
	defer observe("count_conversations", time.Now())
	return m.inner.CountConversations(ctx, uid, f)
}

func (m *metricsStore) GetConversation(ctx context.Context, uid, id string) (*model.Conversation, error) {
	defer observe("get_conversation", time.Now())
	return m.inner.GetConversation(ctx, uid, id)
}

func (m *metricsStore) SaveConversation(ctx context.Context, uid string, c *model.Conversation) (*model.Conversation, error) {
	defer observe("save_conversation", time.Now())
	return m.inner.SaveConversation(ctx, uid, c)
}

func (m *metricsStore) DeleteConversation(ctx context.Context, uid, id string) error {
	defer observe("delete_conversation", time.Now())
	return m.inner.DeleteConversation(ctx, uid, id)
}

func (m *metricsStore) AddAppResult(ctx context.Context, uid, conversationID, appID, content string) error {
	defer observe("add_app_result", time.Now())
	return m.inner.AddAppResult(ctx, uid, conversationID, appID, content)
}

func (m *metricsStore) ListMemories(ctx context.Context, uid string, limit int) ([]model.Memory, error) {
	defer observe("list_memories", time.Now())
	return m.inner.ListMemories(ctx, uid, limit)
}

func (m *metricsStore) GetMemory(ctx context.Context, uid, id string) (*model.Memory, error) {
	defer observe("get_memory", time.Now())
	return m.inner.GetMemory(ctx, uid, id)
}

func (m *metricsStore) CreateManualMemory(ctx context.Context, uid, content string, visibility model.MemoryVisibility) (*model.Memory, error) {
	defer observe("create_manual_memory", time.Now())
	return m.inner.CreateManualMemory(ctx, uid, content, visibility)
}

func (m *metricsStore) UpdateMemoryContent(ctx context.Context, uid, id, content string) error {
	defer observe("update_memory_content", time.Now())
	return m.inner.UpdateMemoryContent(ctx, uid, id, content)
}

func (m *metricsStore) UpdateMemoryVisibility(ctx context.Context, uid, id string, visibility model.MemoryVisibility) error {
	defer observe("update_memory_visibility", time.Now())
	return m.inner.UpdateMemoryVisibility(ctx, uid, id, visibility)
}

func (m *metricsStore) ReviewMemory(ctx context.Context, uid, id string, approve bool) error {
	defer observe("review_memory", time.Now())
	return m.inner.ReviewMemory(ctx, uid, id, approve)
}

func (m *metricsStore) DeleteMemory(ctx context.Context, uid, id string) error {
	defer observe("delete_memory", time.Now())
	return m.inner.DeleteMemory(ctx, uid, id)
}

func (m *metricsStore) SaveMemories(ctx context.Context, uid, conversationID string, memories []model.ExtractedMemory) store.BatchResult {
	defer observe("save_memories", time.Now())
	return m.inner.SaveMemories(ctx, uid, conversationID, memories)
}

func (m *metricsStore) ListActionItems(ctx context.Context, uid string, f store.ActionItemFilter) (store.Page[model.ActionItem], error) {
	defer observe("list_action_items", time.Now())
	return m.inner.ListActionItems(ctx, uid, f)
}

func (m *metricsStore) GetActionItem(ctx context.Context, uid, id string) (*model.ActionItem, error) {
	defer observe("get_action_item", time.Now())
	return m.inner.GetActionItem(ctx, uid, id)
}

func (m *metricsStore) CreateActionItem(ctx context.Context, uid string, item model.NewActionItem) (*model.ActionItem, error) {
	defer observe("create_action_item", time.Now())
	return m.inner.CreateActionItem(ctx, uid, item)
}

func (m *metricsStore) UpdateActionItem(ctx context.Context, uid, id string, u model.ActionItemUpdate) (*model.ActionItem, error) {
	defer observe("update_action_item", time.Now())
	return m.inner.UpdateActionItem(ctx, uid, id, u)
}

func (m *metricsStore) DeleteActionItem(ctx context.Context, uid, id string) error {
	defer observe("delete_action_item", time.Now())
	return m.inner.DeleteActionItem(ctx, uid, id)
}

func (m *metricsStore) SaveActionItems(ctx context.Context, uid, conversationID string, items []model.NewActionItem) store.BatchResult {
	defer observe("save_action_items", time.Now())
	return m.inner.SaveActionItems(ctx, uid, conversationID, items)
}

func (m *metricsStore) CreateFocusSession(ctx context.Context, uid string, s model.NewFocusSession) (*model.FocusSession, error) {
	defer observe("create_focus_session", time.Now())
	return m.inner.CreateFocusSession(ctx, uid, s)
}

func (m *metricsStore) ListFocusSessions(ctx context.Context, uid string, f store.FocusFilter) (store.Page[model.FocusSession], error) {
	defer observe("list_focus_sessions", time.Now())
	return m.inner.ListFocusSessions(ctx, uid, f)
}

func (m *metricsStore) DeleteFocusSession(ctx context.Context, uid, id string) error {
	defer observe("delete_focus_session", time.Now())
	return m.inner.DeleteFocusSession(ctx, uid, id)
}

func (m *metricsStore) FocusStats(ctx context.Context, uid, date string) (*model.FocusStats, error) {
	defer observe("focus_stats", time.Now())
	return m.inner.FocusStats(ctx, uid, date)
}

func (m *metricsStore) ListApps(ctx context.Context, uid string, f store.AppFilter) (store.Page[model.AppSummary], error) {
	defer observe("list_apps", time.Now())
	return m.inner.ListApps(ctx, uid, f)
}

func (m *metricsStore) PopularApps(ctx context.Context, uid string, limit int) ([]model.AppSummary, error) {
	defer observe("popular_apps", time.Now())
	return m.inner.PopularApps(ctx, uid, limit)
}

func (m *metricsStore) SearchApps(ctx context.Context, uid string, s store.AppSearch) (store.Page[model.AppSummary], error) {
	defer observe("search_apps", time.Now())
	return m.inner.SearchApps(ctx, uid, s)
}

func (m *metricsStore) GetApp(ctx context.Context, uid, appID string) (*model.App, error) {
	defer observe("get_app", time.Now())
	return m.inner.GetApp(ctx, uid, appID)
}

func (m *metricsStore) EnabledApps(ctx context.Context, uid string) ([]model.AppSummary, error) {
	defer observe("enabled_apps", time.Now())
	return m.inner.EnabledApps(ctx, uid)
}

func (m *metricsStore) EnableApp(ctx context.Context, uid, appID string) error {
	defer observe("enable_app", time.Now())
	return m.inner.EnableApp(ctx, uid, appID)
}

func (m *metricsStore) DisableApp(ctx context.Context, uid, appID string) error {
	defer observe("disable_app", time.Now())
	return m.inner.DisableApp(ctx, uid, appID)
}

func (m *metricsStore) AppReviews(ctx context.Context, appID string) ([]model.AppReview, error) {
	defer observe("app_reviews", time.Now())
	return m.inner.AppReviews(ctx, appID)
}

func (m *metricsStore) SubmitAppReview(ctx context.Context, uid, appID string, score int, review string) (*model.AppReview, error) {
	defer observe("submit_app_review", time.Now())
	return m.inner.SubmitAppReview(ctx, uid, appID, score, review)
}

func (m *metricsStore) CreateEmail(ctx context.Context, e *model.InboundEmail) error {
	defer observe("create_email", time.Now())
	return m.inner.CreateEmail(ctx, e)
}

func (m *metricsStore) ListEmails(ctx context.Context, limit, offset int) ([]model.InboundEmail, error) {
	defer observe("list_emails", time.Now())
	return m.inner.ListEmails(ctx, limit, offset)
}

func (m *metricsStore) GetEmail(ctx context.Context, id string) (*model.InboundEmail, error) {
	defer observe("get_email", time.Now())
	return m.inner.GetEmail(ctx, id)
}

func (m *metricsStore) MarkEmailRead(ctx context.Context, id string, read bool) error {
	defer observe("mark_email_read", time.Now())
	return m.inner.MarkEmailRead(ctx, id, read)
}

func (m *metricsStore) DeleteEmail(ctx context.Context, id string) error {
	defer observe("delete_email", time.Now())
	return m.inner.DeleteEmail(ctx, id)
}

func (m *metricsStore) CountEmails(ctx context.Context) (int64, error) {
	defer observe("count_emails", time.Now())
	return m.inner.CountEmails(ctx)
}

func (m *metricsStore) CountUnreadEmails(ctx context.Context) (int64, error) {
	defer observe("count_unread_emails", time.Now())
	return m.inner.CountUnreadEmails(ctx)
}

func (m *metricsStore) ListAdvice(ctx context.Context, uid string, f store.AdviceFilter) (store.Page[model.Advice], error) {
	defer observe("list_advice", time.Now())
	return m.inner.ListAdvice(ctx, uid, f)
}

func (m *metricsStore) GetAdvice(ctx context.Context, uid, id string) (*model.Advice, error) {
	defer observe("get_advice", time.Now())
	return m.inner.GetAdvice(ctx, uid, id)
}

func (m *metricsStore) CreateAdvice(ctx context.Context, uid string, a model.NewAdvice) (*model.Advice, error) {
	defer observe("create_advice", time.Now())
	return m.inner.CreateAdvice(ctx, uid, a)
}

func (m *metricsStore) UpdateAdvice(ctx context.Context, uid, id string, u model.AdviceUpdate) (*model.Advice, error) {
	defer observe("update_advice", time.Now())
	return m.inner.UpdateAdvice(ctx, uid, id, u)
}

func (m *metricsStore) DeleteAdvice(ctx context.Context, uid, id string) error {
	defer observe("delete_advice", time.Now())
	return m.inner.DeleteAdvice(ctx, uid, id)
}

func (m *metricsStore) MarkAllAdviceRead(ctx context.Context, uid string) (int, error) {
	defer observe("mark_all_advice_read", time.Now())
	return m.inner.MarkAllAdviceRead(ctx, uid)
}

func (m *metricsStore) GetDailySummarySettings(ctx context.Context, uid string) (*model.DailySummarySettings, error) {
	defer observe("get_daily_summary_settings", time.Now())
	return m.inner.GetDailySummarySettings(ctx, uid)
}

func (m *metricsStore) UpdateDailySummarySettings(ctx context.Context, uid string, u model.DailySummaryUpdate) (*model.DailySummarySettings, error) {
	defer observe("update_daily_summary_settings", time.Now())
	return m.inner.UpdateDailySummarySettings(ctx, uid, u)
}

func (m *metricsStore) GetTranscriptionPreferences(ctx context.Context, uid string) (*model.TranscriptionPreferences, error) {
	defer observe("get_transcription_preferences", time.Now())
	return m.inner.GetTranscriptionPreferences(ctx, uid)
}

func (m *metricsStore) UpdateTranscriptionPreferences(ctx context.Context, uid string, u model.TranscriptionUpdate) (*model.TranscriptionPreferences, error) {
	defer observe("update_transcription_preferences", time.Now())
	return m.inner.UpdateTranscriptionPreferences(ctx, uid, u)
}

func (m *metricsStore) GetUserLanguage(ctx context.Context, uid string) (string, error) {
	defer observe("get_user_language", time.Now())
	return m.inner.GetUserLanguage(ctx, uid)
}

func (m *metricsStore) SetUserLanguage(ctx context.Context, uid, language string) error {
	defer observe("set_user_language", time.Now())
	return m.inner.SetUserLanguage(ctx, uid, language)
}

func (m *metricsStore) GetRecordingPermission(ctx context.Context, uid string) (bool, error) {
	defer observe("get_recording_permission", time.Now())
	return m.inner.GetRecordingPermission(ctx, uid)
}

func (m *metricsStore) SetRecordingPermission(ctx context.Context, uid string, enabled bool) error {
	defer observe("set_recording_permission", time.Now())
	return m.inner.SetRecordingPermission(ctx, uid, enabled)
}

func (m *metricsStore) GetPrivateCloudSync(ctx context.Context, uid string) (bool, error) {
	defer observe("get_private_cloud_sync", time.Now())
	return m.inner.GetPrivateCloudSync(ctx, uid)
}

func (m *metricsStore) SetPrivateCloudSync(ctx context.Context, uid string, enabled bool) error {
	defer observe("set_private_cloud_sync", time.Now())
	return m.inner.SetPrivateCloudSync(ctx, uid, enabled)
}

func (m *metricsStore) GetNotificationSettings(ctx context.Context, uid string) (*model.NotificationSettings, error) {
	defer observe("get_notification_settings", time.Now())
	return m.inner.GetNotificationSettings(ctx, uid)
}

func (m *metricsStore) UpdateNotificationSettings(ctx context.Context, uid string, u model.NotificationUpdate) (*model.NotificationSettings, error) {
	defer observe("update_notification_settings", time.Now())
	return m.inner.UpdateNotificationSettings(ctx, uid, u)
}

func (m *metricsStore) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	defer observe("get_user_profile", time.Now())
	return m.inner.GetUserProfile(ctx, uid)
}

func (m *metricsStore) ListDesktopReleases(ctx context.Context) ([]model.DesktopRelease, error) {
	defer observe("list_desktop_releases", time.Now())
	return m.inner.ListDesktopReleases(ctx)
}

func (m *metricsStore) CreateDesktopRelease(ctx context.Context, r *model.DesktopRelease) (string, error) {
	defer observe("create_desktop_release", time.Now())
	return m.inner.CreateDesktopRelease(ctx, r)
}
