// Package model holds the journal's domain records and their closed-set
// enums. Every Parse function maps unknown wire strings to a default
// variant instead of failing.
package model

import "time"

// ConversationSource is the device or integration a conversation came from.
type ConversationSource string

const (
	SourceOmi                 ConversationSource = "omi"
	SourceFriend              ConversationSource = "friend"
	SourceOpenGlass           ConversationSource = "openglass"
	SourceScreenpipe          ConversationSource = "screenpipe"
	SourceWorkflow            ConversationSource = "workflow"
	SourceSDCard              ConversationSource = "sdcard"
	SourceExternalIntegration ConversationSource = "external_integration"
	SourceDesktop             ConversationSource = "desktop"
)

// ParseConversationSource defaults to SourceOmi.
func ParseConversationSource(s string) ConversationSource {
	switch ConversationSource(s) {
	case SourceOmi, SourceFriend, SourceOpenGlass, SourceScreenpipe, SourceWorkflow,
		SourceSDCard, SourceExternalIntegration, SourceDesktop:
		return ConversationSource(s)
	default:
		return SourceOmi
	}
}

// ConversationStatus is the processing state of a conversation.
type ConversationStatus string

const (
	StatusInProgress ConversationStatus = "in_progress"
	StatusProcessing ConversationStatus = "processing"
	StatusCompleted  ConversationStatus = "completed"
	StatusFailed     ConversationStatus = "failed"
)

// ParseConversationStatus defaults to StatusCompleted.
func ParseConversationStatus(s string) ConversationStatus {
	switch ConversationStatus(s) {
	case StatusInProgress, StatusProcessing, StatusCompleted, StatusFailed:
		return ConversationStatus(s)
	default:
		return StatusCompleted
	}
}

// Category classifies a conversation's structured summary.
type Category string

const (
	CategoryPersonal         Category = "personal"
	CategoryEducation        Category = "education"
	CategoryHealth           Category = "health"
	CategoryFinance          Category = "finance"
	CategoryLegal            Category = "legal"
	CategoryPhilosophy       Category = "philosophy"
	CategorySpiritual        Category = "spiritual"
	CategoryScience          Category = "science"
	CategoryEntrepreneurship Category = "entrepreneurship"
	CategoryParenting        Category = "parenting"
	CategoryRomance          Category = "romantic"
	CategoryTravel           Category = "travel"
	CategoryInspiration      Category = "inspiration"
	CategoryTechnology       Category = "technology"
	CategoryBusiness         Category = "business"
	CategorySocial           Category = "social"
	CategoryWork             Category = "work"
	CategorySports           Category = "sports"
	CategoryPolitics         Category = "politics"
	CategoryLiterature       Category = "literature"
	CategoryHistory          Category = "history"
	CategoryArchitecture     Category = "architecture"
	CategoryMusic            Category = "music"
	CategoryWeather          Category = "weather"
	CategoryNews             Category = "news"
	CategoryEntertainment    Category = "entertainment"
	CategoryPsychology       Category = "psychology"
	CategoryReal             Category = "real"
	CategoryDesign           Category = "design"
	CategoryFamily           Category = "family"
	CategoryEconomics        Category = "economics"
	CategoryEnvironment      Category = "environment"
	CategoryOther            Category = "other"
)

// Categories lists every Category in display order.
var Categories = []Category{
	CategoryPersonal, CategoryEducation, CategoryHealth, CategoryFinance, CategoryLegal,
	CategoryPhilosophy, CategorySpiritual, CategoryScience, CategoryEntrepreneurship,
	CategoryParenting, CategoryRomance, CategoryTravel, CategoryInspiration, CategoryTechnology,
	CategoryBusiness, CategorySocial, CategoryWork, CategorySports, CategoryPolitics,
	CategoryLiterature, CategoryHistory, CategoryArchitecture, CategoryMusic, CategoryWeather,
	CategoryNews, CategoryEntertainment, CategoryPsychology, CategoryReal, CategoryDesign,
	CategoryFamily, CategoryEconomics, CategoryEnvironment, CategoryOther,
}

var knownCategories = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// ParseCategory defaults to CategoryOther.
func ParseCategory(s string) Category {
	if knownCategories[Category(s)] {
		return Category(s)
	}
	return CategoryOther
}

// Structured is the summary generated for a conversation.
type Structured struct {
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Emoji    string   `json:"emoji"`
	Category Category `json:"category"`
}

const DefaultEmoji = "🧠"

// DefaultStructured is used when a conversation has no summary yet.
func DefaultStructured() Structured {
	return Structured{Emoji: DefaultEmoji, Category: CategoryOther}
}

const DefaultSpeaker = "SPEAKER_00"

// TranscriptSegment is one utterance of a transcript. Start and End are
// seconds from the start of the recording.
type TranscriptSegment struct {
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker"`
	SpeakerID int64   `json:"speaker_id"`
	IsUser    bool    `json:"is_user"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// AppResult is the output an app produced for a conversation.
type AppResult struct {
	AppID   *string `json:"app_id,omitempty"`
	Content string  `json:"content"`
}

// Conversation is a recorded conversation with its transcript and summary.
type Conversation struct {
	ID                 string              `json:"id"`
	CreatedAt          time.Time           `json:"created_at"`
	StartedAt          time.Time           `json:"started_at"`
	FinishedAt         time.Time           `json:"finished_at"`
	Source             ConversationSource  `json:"source"`
	Language           string              `json:"language,omitempty"`
	Status             ConversationStatus  `json:"status"`
	Discarded          bool                `json:"discarded"`
	Structured         Structured          `json:"structured"`
	TranscriptSegments []TranscriptSegment `json:"transcript_segments"`
	AppsResults        []AppResult         `json:"apps_results"`
}
