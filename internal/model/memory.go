package model

import "time"

// MemoryCategory classifies an extracted memory.
type MemoryCategory string

const (
	// MemoryCategorySystem holds facts about the user.
	MemoryCategorySystem MemoryCategory = "system"
	// MemoryCategoryInteresting holds attributed wisdom from others.
	MemoryCategoryInteresting MemoryCategory = "interesting"
	MemoryCategoryManual      MemoryCategory = "manual"
)

// ParseMemoryCategory defaults to MemoryCategorySystem.
func ParseMemoryCategory(s string) MemoryCategory {
	switch MemoryCategory(s) {
	case MemoryCategorySystem, MemoryCategoryInteresting, MemoryCategoryManual:
		return MemoryCategory(s)
	default:
		return MemoryCategorySystem
	}
}

// Rank is the scoring priority; 0 is the most important. The values match
// the scoring keys already stored.
func (c MemoryCategory) Rank() int {
	switch c {
	case MemoryCategorySystem:
		return 0
	case MemoryCategoryInteresting, MemoryCategoryManual:
		return 1
	default:
		return 0
	}
}

// MemoryVisibility controls who can see a memory.
type MemoryVisibility string

const (
	VisibilityPrivate MemoryVisibility = "private"
	VisibilityPublic  MemoryVisibility = "public"
)

// ParseMemoryVisibility defaults to VisibilityPrivate.
func ParseMemoryVisibility(s string) MemoryVisibility {
	switch MemoryVisibility(s) {
	case VisibilityPrivate, VisibilityPublic:
		return MemoryVisibility(s)
	default:
		return VisibilityPrivate
	}
}

// Memory is a piece of long-term knowledge about the user.
type Memory struct {
	ID             string           `json:"id"`
	Content        string           `json:"content"`
	Category       MemoryCategory   `json:"category"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
	ConversationID *string          `json:"conversation_id,omitempty"`
	Reviewed       bool             `json:"reviewed"`
	UserReview     *bool            `json:"user_review,omitempty"`
	Visibility     MemoryVisibility `json:"visibility"`
	ManuallyAdded  bool             `json:"manually_added"`
	Scoring        *string          `json:"scoring,omitempty"`
	// Source is the linked conversation's source. It is filled in on list
	// reads and never stored on the memory.
	Source *ConversationSource `json:"source,omitempty"`
}

// ExtractedMemory is a memory produced from a conversation before it is
// stored.
type ExtractedMemory struct {
	Content  string         `json:"content"`
	Category MemoryCategory `json:"category"`
}
