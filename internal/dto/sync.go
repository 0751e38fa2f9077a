package dto

// ReportSyncRequest carries one or more report export documents to reconcile.
type ReportSyncRequest struct {
	Reports []string `json:"reports" validate:"required,min=1,dive,required"`
	DryRun  bool     `json:"dry_run"`
	Prune   bool     `json:"prune"`
}

// ClassroomSyncRequest triggers a live-feed pass over the visible courses.
// Days selects a creation-time window; "custom" requires start_date.
type ClassroomSyncRequest struct {
	Days      string `json:"days" validate:"omitempty,oneof=7 30 90 180 all custom"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	DryRun    bool   `json:"dry_run"`
}

// RebuildRequest recomputes summaries: one explicit pair, or every dirty pair
// when All is unset and no pair is named, or everything when All is set.
type RebuildRequest struct {
	StudentID uint `json:"student_id"`
	CourseID  uint `json:"course_id"`
	All       bool `json:"all"`
}
