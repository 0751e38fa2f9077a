package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CourseInfo is a course object as the classroom API reports it.
type CourseInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RosterEntry is one student on a course roster.
type RosterEntry struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

// CourseworkSubmission is the embedded submission object on a coursework
// item. The adapter never classifies it; status derivation does.
type CourseworkSubmission struct {
	State         string   `json:"state"`
	Late          bool     `json:"late,omitempty"`
	AssignedGrade *float64 `json:"assignedGrade,omitempty"`
}

// Coursework is one coursework object for one student, as paginated by the
// upstream API.
type Coursework struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	MaxPoints    *float64              `json:"maxPoints,omitempty"`
	CreationTime string                `json:"creationTime,omitempty"`
	Submission   *CourseworkSubmission `json:"submission,omitempty"`
}

// ClassroomClient is the already-authenticated API surface the live-feed
// adapter consumes. Credential and session handling belong to the caller.
type ClassroomClient interface {
	ListCourses(ctx context.Context) ([]CourseInfo, error)
	ListStudents(ctx context.Context, courseID, pageToken string) ([]RosterEntry, string, error)
	ListCoursework(ctx context.Context, courseID, studentID, pageToken string) ([]Coursework, string, error)
}

// ClassroomAdapter shapes live classroom API responses into CourseFeeds. All
// fetching happens here, fully materialized in memory, so a slow upstream
// call never overlaps a store transaction.
type ClassroomAdapter struct {
	client ClassroomClient
	logger zerolog.Logger
}

// NewClassroomAdapter wraps an authenticated client.
func NewClassroomAdapter(client ClassroomClient, logger zerolog.Logger) *ClassroomAdapter {
	return &ClassroomAdapter{
		client: client,
		logger: logger.With().Str("component", "classroom_adapter").Logger(),
	}
}

// Courses lists the courses visible to the client.
func (a *ClassroomAdapter) Courses(ctx context.Context) ([]CourseInfo, error) {
	courses, err := a.client.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FetchCourse materializes one course's roster and coursework into a
// CourseFeed, keeping only coursework created inside the window.
func (a *ClassroomAdapter) FetchCourse(ctx context.Context, course CourseInfo, window Window) (*CourseFeed, error) {
	roster, err := a.fetchRoster(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	students := make([]StudentFeed, 0, len(roster))
	for _, entry := range roster {
		observations, err := a.fetchObservations(ctx, course.ID, entry.ID, window)
		if err != nil {
			return nil, err
		}
		students = append(students, StudentFeed{
			ExternalID:   entry.ID,
			FullName:     entry.FullName,
			Observations: observations,
		})
	}

	a.logger.Info().
		Str("course", course.Name).
		Str("course_external_id", course.ID).
		Int("students", len(students)).
		Msg("fetched live feed")

	return &CourseFeed{
		Course:   CourseRef{ExternalID: course.ID, Name: course.Name},
		Students: students,
	}, nil
}

func (a *ClassroomAdapter) fetchRoster(ctx context.Context, courseID string) ([]RosterEntry, error) {
	var roster []RosterEntry
	pageToken := ""
	for {
		entries, next, err := a.client.ListStudents(ctx, courseID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list students for course %s: %w", courseID, err)
		}
		roster = append(roster, entries...)
		if next == "" {
			return roster, nil
		}
		pageToken = next
	}
}

func (a *ClassroomAdapter) fetchObservations(ctx context.Context, courseID, studentID string, window Window) ([]Observation, error) {
	var observations []Observation
	pageToken := ""
	for {
		items, next, err := a.client.ListCoursework(ctx, courseID, studentID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list coursework for course %s student %s: %w", courseID, studentID, err)
		}

		for _, item := range items {
			created := parseClassroomTimestamp(item.CreationTime)
			if !window.IsOpen() {
				// Windowed fetches drop coursework without a usable
				// creation time rather than guessing.
				if created == nil || !window.Contains(*created) {
					continue
				}
			}

			obs := Observation{
				AssignmentExternalID: item.ID,
				Title:                item.Title,
				MaxScore:             item.MaxPoints,
				CreatedAt:            created,
			}
			if item.Submission != nil {
				obs.Submission = &SubmissionObservation{
					State:         item.Submission.State,
					Late:          item.Submission.Late,
					AssignedGrade: item.Submission.AssignedGrade,
				}
			}
			observations = append(observations, obs)
		}

		if next == "" {
			return observations, nil
		}
		pageToken = next
	}
}

// parseClassroomTimestamp handles the API's RFC3339 timestamps, including the
// bare "Z" suffix form.
func parseClassroomTimestamp(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}
