package models

// Course mirrors one upstream course. ExternalID is the stable identifier
// assigned by the source system, distinct from the local primary key.
type Course struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ExternalID string `gorm:"size:64;not null;uniqueIndex" json:"external_id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	SchoolID   uint   `gorm:"not null" json:"school_id"`
	School     School `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
