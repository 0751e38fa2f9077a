package models

// School is the root of the course hierarchy. Schools are unique by name.
type School struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null;uniqueIndex" json:"name"`
}
