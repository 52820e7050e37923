package model

import "time"

// Defaults for users that never changed a setting.
const (
	DefaultDailySummaryHour      = 22
	DefaultNotificationFrequency = 3
	DefaultLanguage              = "en"
)

// DailySummarySettings controls the end-of-day summary. Hour is local to
// the user's time zone.
type DailySummarySettings struct {
	Enabled bool  `json:"enabled"`
	Hour    int64 `json:"hour"`
}

type DailySummaryUpdate struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Hour    *int64 `json:"hour,omitempty"`
}

// TranscriptionPreferences tune speech recognition for one user.
type TranscriptionPreferences struct {
	SingleLanguageMode bool     `json:"single_language_mode"`
	Vocabulary         []string `json:"vocabulary"`
}

type TranscriptionUpdate struct {
	SingleLanguageMode *bool    `json:"single_language_mode,omitempty"`
	Vocabulary         []string `json:"vocabulary,omitempty"`
}

type NotificationSettings struct {
	Enabled   bool  `json:"enabled"`
	Frequency int64 `json:"frequency"`
}

type NotificationUpdate struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	Frequency *int64 `json:"frequency,omitempty"`
}

// UserProfile is the identity part of the user document.
type UserProfile struct {
	UID       string     `json:"uid"`
	Email     *string    `json:"email,omitempty"`
	Name      *string    `json:"name,omitempty"`
	TimeZone  *string    `json:"time_zone,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
