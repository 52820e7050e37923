package model

import "time"

type EmailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// InboundEmail is an email received by the inbound webhook.
type InboundEmail struct {
	ID          string            `json:"id"`
	From        string            `json:"from"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	Text        *string           `json:"text,omitempty"`
	HTML        *string           `json:"html,omitempty"`
	Attachments []EmailAttachment `json:"attachments"`
	ReceivedAt  time.Time         `json:"received_at"`
	Read        bool              `json:"read"`
}
