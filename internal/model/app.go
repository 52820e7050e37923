package model

import "time"

// AppStatus is the review state of a catalog app.
type AppStatus string

const (
	AppStatusApproved    AppStatus = "approved"
	AppStatusUnderReview AppStatus = "under-review"
	AppStatusRejected    AppStatus = "rejected"
)

// ParseAppStatus defaults to AppStatusUnderReview.
func ParseAppStatus(s string) AppStatus {
	switch AppStatus(s) {
	case AppStatusApproved, AppStatusUnderReview, AppStatusRejected:
		return AppStatus(s)
	default:
		return AppStatusUnderReview
	}
}

// App is a catalog entry. Enabled is per user and not stored on the app.
type App struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Image         string     `json:"image"`
	Category      string     `json:"category"`
	Author        string     `json:"author"`
	Email         *string    `json:"email,omitempty"`
	Capabilities  []string   `json:"capabilities"`
	UID           *string    `json:"uid,omitempty"`
	Approved      bool       `json:"approved"`
	Private       bool       `json:"private"`
	Status        AppStatus  `json:"status"`
	ChatPrompt    *string    `json:"chat_prompt,omitempty"`
	MemoryPrompt  *string    `json:"memory_prompt,omitempty"`
	PersonaPrompt *string    `json:"persona_prompt,omitempty"`
	Installs      int64      `json:"installs"`
	RatingAvg     *float64   `json:"rating_avg,omitempty"`
	RatingCount   int64      `json:"rating_count"`
	IsPaid        bool       `json:"is_paid"`
	Price         *float64   `json:"price,omitempty"`
	PaymentPlan   *string    `json:"payment_plan,omitempty"`
	Username      *string    `json:"username,omitempty"`
	Twitter       *string    `json:"twitter,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	Enabled       bool       `json:"enabled"`
}

// HasCapability reports whether the app declares capability c.
func (a *App) HasCapability(c string) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Summary returns the listing view of the app.
func (a *App) Summary() AppSummary {
	return AppSummary{
		ID:           a.ID,
		Name:         a.Name,
		Description:  a.Description,
		Image:        a.Image,
		Category:     a.Category,
		Author:       a.Author,
		Capabilities: a.Capabilities,
		Approved:     a.Approved,
		Private:      a.Private,
		Installs:     a.Installs,
		RatingAvg:    a.RatingAvg,
		RatingCount:  a.RatingCount,
		IsPaid:       a.IsPaid,
		Price:        a.Price,
		Enabled:      a.Enabled,
	}
}

// AppSummary is the subset of App shown in listings.
type AppSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Category     string   `json:"category"`
	Author       string   `json:"author"`
	Capabilities []string `json:"capabilities"`
	Approved     bool     `json:"approved"`
	Private      bool     `json:"private"`
	Installs     int64    `json:"installs"`
	RatingAvg    *float64 `json:"rating_avg,omitempty"`
	RatingCount  int64    `json:"rating_count"`
	IsPaid       bool     `json:"is_paid"`
	Price        *float64 `json:"price,omitempty"`
	Enabled      bool     `json:"enabled"`
}

// AppReview is one user's rating of an app. Each user has at most one.
type AppReview struct {
	UID     string    `json:"uid"`
	Score   int64     `json:"score"`
	Review  string    `json:"review"`
	RatedAt time.Time `json:"rated_at"`
}
