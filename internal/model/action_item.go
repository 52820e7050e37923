package model

import "time"

// ActionItem is a task, either extracted from a conversation or entered by
// hand.
type ActionItem struct {
	ID             string     `json:"id"`
	Description    string     `json:"description"`
	Completed      bool       `json:"completed"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ConversationID *string    `json:"conversation_id,omitempty"`
	// Source is free-form, for example "manual" or "transcription:omi".
	Source *string `json:"source,omitempty"`
	// Priority is "high", "medium" or "low" when set.
	Priority *string `json:"priority,omitempty"`
	// Metadata is an opaque JSON document.
	Metadata *string `json:"metadata,omitempty"`
}

// NewActionItem is the input for creating an action item.
type NewActionItem struct {
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Metadata    *string    `json:"metadata,omitempty"`
}

// ActionItemUpdate changes only the fields that are set.
type ActionItemUpdate struct {
	Completed   *bool      `json:"completed,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}
