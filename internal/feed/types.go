package feed

import "time"

// CourseRef identifies an upstream course.
type CourseRef struct {
	ExternalID string
	Name       string
}

// SubmissionObservation carries the raw submission shape exactly as a source
// reported it. Report exports pre-classify rows (Status + ScoreRaw token);
// live classroom feeds pass the lifecycle shape through untouched. Exactly one
// of the two groups is populated; status derivation handles both.
type SubmissionObservation struct {
	// Report-export group.
	Status   string
	ScoreRaw *string

	// Live-feed group.
	State         string
	Late          bool
	AssignedGrade *float64
}

// Observation is one (student, assignment) sighting inside a feed.
type Observation struct {
	AssignmentExternalID string
	Title                string
	MaxScore             *float64
	CreatedAt            *time.Time
	Submission           *SubmissionObservation
}

// ReportedTotals are the aggregate metric lines a report export may carry for
// a student block. They are never written to the canonical store (summaries
// are always recomputed); they only feed audit notes.
type ReportedTotals struct {
	TotalAssigned   *int
	TotalMissing    *int
	TotalLate       *int
	TotalGraded     *int
	AvgSubmittedPct *float64
	AvgAllPct       *float64
	PointsEarned    *float64
	PointsPossible  *float64
}

// StudentFeed is one student's slice of a course feed.
type StudentFeed struct {
	ExternalID   string
	FullName     string
	Observations []Observation
	Reported     ReportedTotals
}

// CourseFeed is the normalized output shared by every source adapter: one
// course header plus the observed student-coursework associations.
type CourseFeed struct {
	Course   CourseRef
	Students []StudentFeed
}

// Window bounds a sync pass by assignment creation time. Nil bounds are open.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether ts falls inside the window. Bounds are inclusive.
func (w Window) Contains(ts time.Time) bool {
	if w.Start != nil && ts.Before(*w.Start) {
		return false
	}
	if w.End != nil && ts.After(*w.End) {
		return false
	}
	return true
}

// IsOpen reports whether no bound was requested at all.
func (w Window) IsOpen() bool {
	return w.Start == nil && w.End == nil
}
