package models

// Student is a learner observed in at least one feed. FullName follows the
// latest sync (upstream name corrections win). The chat fields are filled by
// the messenger collaborator when a student links their account; they are
// never touched by reconciliation.
type Student struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ExternalID   string  `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	FullName     string  `gorm:"size:255;not null" json:"full_name"`
	ChatID       *string `gorm:"size:64" json:"chat_id,omitempty"`
	ChatUsername *string `gorm:"size:255" json:"chat_username,omitempty"`
}
