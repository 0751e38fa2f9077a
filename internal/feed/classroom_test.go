package feed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClassroomClient struct {
	courses        []CourseInfo
	rosterPages    map[string][][]RosterEntry
	courseworkPage map[string][]Coursework
}

func (f *fakeClassroomClient) ListCourses(_ context.Context) ([]CourseInfo, error) {
	return f.courses, nil
}

func (f *fakeClassroomClient) ListStudents(_ context.Context, courseID, pageToken string) ([]RosterEntry, string, error) {
	pages := f.rosterPages[courseID]
	page := 0
	if pageToken == "next" {
		page = 1
	}
	next := ""
	if page == 0 && len(pages) > 1 {
		next = "next"
	}
	return pages[page], next, nil
}

func (f *fakeClassroomClient) ListCoursework(_ context.Context, courseID, studentID, _ string) ([]Coursework, string, error) {
	return f.courseworkPage[courseID+"/"+studentID], "", nil
}

func floatPtr(v float64) *float64 { return &v }

func TestClassroomAdapterFetchCourse(t *testing.T) {
	client := &fakeClassroomClient{
		courses: []CourseInfo{{ID: "c1", Name: "Biology"}},
		rosterPages: map[string][][]RosterEntry{
			"c1": {
				{{ID: "s1", FullName: "Alice"}},
				{{ID: "s2", FullName: "Bob"}},
			},
		},
		courseworkPage: map[string][]Coursework{
			"c1/s1": {
				{
					ID:           "a1",
					Title:        "Lab 1",
					MaxPoints:    floatPtr(10),
					CreationTime: "2024-09-10T08:00:00Z",
					Submission:   &CourseworkSubmission{State: "TURNED_IN", AssignedGrade: floatPtr(9)},
				},
			},
			"c1/s2": {
				{ID: "a1", Title: "Lab 1", CreationTime: "2024-09-10T08:00:00Z"},
			},
		},
	}
	adapter := NewClassroomAdapter(client, zerolog.Nop())

	courseFeed, err := adapter.FetchCourse(context.Background(), client.courses[0], Window{})
	require.NoError(t, err)

	require.Equal(t, "c1", courseFeed.Course.ExternalID)
	require.Len(t, courseFeed.Students, 2)

	alice := courseFeed.Students[0]
	require.Equal(t, "s1", alice.ExternalID)
	require.Len(t, alice.Observations, 1)
	require.Equal(t, "TURNED_IN", alice.Observations[0].Submission.State)
	require.Equal(t, 9.0, *alice.Observations[0].Submission.AssignedGrade)

	bob := courseFeed.Students[1]
	require.Len(t, bob.Observations, 1)
	require.Nil(t, bob.Observations[0].Submission)
}

func TestClassroomAdapterWindowFiltering(t *testing.T) {
	client := &fakeClassroomClient{
		courses: []CourseInfo{{ID: "c1", Name: "Biology"}},
		rosterPages: map[string][][]RosterEntry{
			"c1": {{{ID: "s1", FullName: "Alice"}}},
		},
		courseworkPage: map[string][]Coursework{
			"c1/s1": {
				{ID: "old", Title: "Old", CreationTime: "2024-01-01T00:00:00Z"},
				{ID: "new", Title: "New", CreationTime: "2024-09-10T08:00:00Z"},
				{ID: "undated", Title: "Undated"},
			},
		},
	}
	adapter := NewClassroomAdapter(client, zerolog.Nop())

	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	courseFeed, err := adapter.FetchCourse(context.Background(), client.courses[0], Window{Start: &start})
	require.NoError(t, err)

	// Out-of-window and undated coursework are dropped.
	require.Len(t, courseFeed.Students[0].Observations, 1)
	require.Equal(t, "new", courseFeed.Students[0].Observations[0].AssignmentExternalID)
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2024, 9, 30, 12, 0, 0, 0, time.UTC)

	window, err := ResolveWindow("all", nil, nil, now)
	require.NoError(t, err)
	require.True(t, window.IsOpen())

	window, err = ResolveWindow("30", nil, nil, now)
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, -30), *window.Start)
	require.Nil(t, window.End)

	_, err = ResolveWindow("45", nil, nil, now)
	require.Error(t, err)

	_, err = ResolveWindow("custom", nil, nil, now)
	require.Error(t, err)

	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)
	window, err = ResolveWindow("custom", &start, &end, now)
	require.NoError(t, err)
	require.Equal(t, start, *window.Start)
	require.Equal(t, time.Date(2024, 9, 15, 23, 59, 59, 0, time.UTC), *window.End)
}
