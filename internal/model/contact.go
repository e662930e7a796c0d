package model

import "time"

const (
	// ContactNameMaxLength bounds the sender name column.
	ContactNameMaxLength = 120
	// ContactEmailMaxLength bounds the sender email column.
	ContactEmailMaxLength = 255
	// ContactMessageMaxLength bounds the message body.
	ContactMessageMaxLength = 2000
	// ContactIPHashLength is the hex length of the identity token column.
	ContactIPHashLength = 64
	// ContactUserAgentMaxLength bounds the stored user agent.
	ContactUserAgentMaxLength = 400
)

// Contact is a stored contact-form submission. Rows are written exactly once
// by the admission pipeline and never updated afterwards.
type Contact struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:120" json:"name"`
	Email     string    `gorm:"not null;size:255" json:"email"`
	Message   string    `gorm:"not null;size:2000" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	IPHash    string    `gorm:"not null;size:64" json:"-"`
	UserAgent string    `gorm:"size:400" json:"user_agent"`
	Consent   bool      `gorm:"not null" json:"consent"`
}
