package model

import "time"

type AdviceCategory string

const (
	AdviceProductivity  AdviceCategory = "productivity"
	AdviceHealth        AdviceCategory = "health"
	AdviceCommunication AdviceCategory = "communication"
	AdviceLearning      AdviceCategory = "learning"
	AdviceOther         AdviceCategory = "other"
)

// ParseAdviceCategory maps unknown or empty values to AdviceOther.
func ParseAdviceCategory(s string) AdviceCategory {
	switch c := AdviceCategory(s); c {
	case AdviceProductivity, AdviceHealth, AdviceCommunication, AdviceLearning:
		return c
	}
	return AdviceOther
}

// DefaultAdviceConfidence is stored when the caller gives no confidence.
const DefaultAdviceConfidence = 0.5

// Advice is a suggestion generated from what the user was doing.
type Advice struct {
	ID              string         `json:"id"`
	Content         string         `json:"content"`
	Category        AdviceCategory `json:"category"`
	Reasoning       *string        `json:"reasoning,omitempty"`
	SourceApp       *string        `json:"source_app,omitempty"`
	Confidence      float64        `json:"confidence"`
	ContextSummary  *string        `json:"context_summary,omitempty"`
	CurrentActivity *string        `json:"current_activity,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
	IsRead          bool           `json:"is_read"`
	IsDismissed     bool           `json:"is_dismissed"`
}

// NewAdvice is the input for creating advice. Confidence must be within
// [0, 1] when set.
type NewAdvice struct {
	Content         string         `json:"content"`
	Category        AdviceCategory `json:"category,omitempty"`
	Reasoning       *string        `json:"reasoning,omitempty"`
	SourceApp       *string        `json:"source_app,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ContextSummary  *string        `json:"context_summary,omitempty"`
	CurrentActivity *string        `json:"current_activity,omitempty"`
}

// AdviceUpdate changes only the flags that are set.
type AdviceUpdate struct {
	IsRead      *bool `json:"is_read,omitempty"`
	IsDismissed *bool `json:"is_dismissed,omitempty"`
}
