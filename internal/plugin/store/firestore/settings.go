package firestore

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/journal-service/internal/docstore"
	"github.com/chirino/journal-service/internal/docstore/codec"
	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/model"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
)

// userRecord reads the user document. A missing document is an empty
// record so every setting falls back to its default.
func (s *Store) userRecord(ctx context.Context, uid string) (codec.Record, error) {
	if err := requireID("uid", uid); err != nil {
		return codec.Record{}, err
	}
	p := docstore.Users(uid)
	doc, err := s.client.Get(ctx, p)
	if err != nil {
		return codec.Record{}, err
	}
	if doc == nil {
		return codec.NewRecord(p.String(), nil), nil
	}
	return doc.Record(), nil
}

// setUserFields merges fields into the user document, creating it if
// needed.
func (s *Store) setUserFields(ctx context.Context, uid string, fields *value.Fields) error {
	if err := requireID("uid", uid); err != nil {
		return err
	}
	if _, err := s.client.Upsert(ctx, docstore.Users(uid), fields); err != nil {
		return err
	}
	log.Info("Updated user settings", "uid", uid, "fields", fields.Names())
	return nil
}

func decodeDailySummary(r codec.Record) model.DailySummarySettings {
	return model.DailySummarySettings{
		Enabled: r.Bool("daily_summary_enabled", true),
		Hour:    r.Int("daily_summary_hour_local", model.DefaultDailySummaryHour),
	}
}

func (s *Store) GetDailySummarySettings(ctx context.Context, uid string) (*model.DailySummarySettings, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeDailySummary(r)
	return &out, nil
}

// UpdateDailySummarySettings fills unset fields of u from the stored
// settings and writes both fields.
func (s *Store) UpdateDailySummarySettings(ctx context.Context, uid string, u model.DailySummaryUpdate) (*model.DailySummarySettings, error) {
	if u.Hour != nil && (*u.Hour < 0 || *u.Hour > 23) {
		return nil, &registrystore.ValidationError{Field: "hour", Message: "must be between 0 and 23"}
	}
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeDailySummary(r)
	if u.Enabled != nil {
		out.Enabled = *u.Enabled
	}
	if u.Hour != nil {
		out.Hour = *u.Hour
	}
	err = s.setUserFields(ctx, uid, value.NewFields().
		Set("daily_summary_enabled", value.Bool(out.Enabled)).
		Set("daily_summary_hour_local", value.Int(out.Hour)))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func decodeTranscription(r codec.Record) model.TranscriptionPreferences {
	prefs, _ := r.Record("transcription_preferences")
	out := model.TranscriptionPreferences{
		SingleLanguageMode: prefs.Bool("single_language_mode", false),
		Vocabulary:         prefs.Strings("vocabulary"),
	}
	if out.Vocabulary == nil {
		out.Vocabulary = []string{}
	}
	return out
}

func (s *Store) GetTranscriptionPreferences(ctx context.Context, uid string) (*model.TranscriptionPreferences, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeTranscription(r)
	return &out, nil
}

// UpdateTranscriptionPreferences rewrites the whole preferences map. A nil
// Vocabulary keeps the stored one; an empty one clears it.
func (s *Store) UpdateTranscriptionPreferences(ctx context.Context, uid string, u model.TranscriptionUpdate) (*model.TranscriptionPreferences, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeTranscription(r)
	if u.SingleLanguageMode != nil {
		out.SingleLanguageMode = *u.SingleLanguageMode
	}
	if u.Vocabulary != nil {
		out.Vocabulary = make([]string, 0, len(u.Vocabulary))
		for _, w := range u.Vocabulary {
			if w = strings.TrimSpace(w); w != "" {
				out.Vocabulary = append(out.Vocabulary, w)
			}
		}
	}
	prefs := value.NewFields().
		Set("single_language_mode", value.Bool(out.SingleLanguageMode)).
		Set("vocabulary", value.Strings(out.Vocabulary))
	if err := s.setUserFields(ctx, uid, value.NewFields().Set("transcription_preferences", value.Map(prefs))); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetUserLanguage(ctx context.Context, uid string) (string, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return "", err
	}
	return r.StringOr("language", model.DefaultLanguage), nil
}

func (s *Store) SetUserLanguage(ctx context.Context, uid, language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return &registrystore.ValidationError{Field: "language", Message: "must not be empty"}
	}
	return s.setUserFields(ctx, uid, value.NewFields().Set("language", value.String(language)))
}

func (s *Store) GetRecordingPermission(ctx context.Context, uid string) (bool, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return false, err
	}
	return r.Bool("store_recording_permission", false), nil
}

func (s *Store) SetRecordingPermission(ctx context.Context, uid string, enabled bool) error {
	return s.setUserFields(ctx, uid, value.NewFields().Set("store_recording_permission", value.Bool(enabled)))
}

// GetPrivateCloudSync defaults to enabled.
func (s *Store) GetPrivateCloudSync(ctx context.Context, uid string) (bool, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return false, err
	}
	return r.Bool("private_cloud_sync_enabled", true), nil
}

func (s *Store) SetPrivateCloudSync(ctx context.Context, uid string, enabled bool) error {
	return s.setUserFields(ctx, uid, value.NewFields().Set("private_cloud_sync_enabled", value.Bool(enabled)))
}

func decodeNotifications(r codec.Record) model.NotificationSettings {
	return model.NotificationSettings{
		Enabled:   r.Bool("notifications_enabled", true),
		Frequency: r.Int("notification_frequency", model.DefaultNotificationFrequency),
	}
}

func (s *Store) GetNotificationSettings(ctx context.Context, uid string) (*model.NotificationSettings, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeNotifications(r)
	return &out, nil
}

func (s *Store) UpdateNotificationSettings(ctx context.Context, uid string, u model.NotificationUpdate) (*model.NotificationSettings, error) {
	if u.Frequency != nil && *u.Frequency < 0 {
		return nil, &registrystore.ValidationError{Field: "frequency", Message: "must not be negative"}
	}
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := decodeNotifications(r)
	if u.Enabled != nil {
		out.Enabled = *u.Enabled
	}
	if u.Frequency != nil {
		out.Frequency = *u.Frequency
	}
	err = s.setUserFields(ctx, uid, value.NewFields().
		Set("notifications_enabled", value.Bool(out.Enabled)).
		Set("notification_frequency", value.Int(out.Frequency)))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserProfile returns the identity fields of the user document. A
// missing document yields a profile with only the UID.
func (s *Store) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	r, err := s.userRecord(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{
		UID:       uid,
		Email:     r.StringPtr("email"),
		Name:      r.StringPtr("name"),
		TimeZone:  r.StringPtr("time_zone"),
		CreatedAt: r.Time("created_at"),
	}, nil
}
