package feed

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/classpulse-api/internal/models"
)

const sampleReport = `Reports for Course: Algebra I (12345)

Student: Alice Johnson
Student ID: 1001
Worksheet 1 | 501 | Graded | 8/10 | 2024-09-01T10:00:00Z
Worksheet 2 | 502 | Missing | — | 2024-09-03
Worksheet 3 | 503 | Submitted | - | 2024-09-05
| Total Assigned | 3 |
| Missing | 2 |
| Graded Count | 1 |
| Average (submitted) | 80% (8/10) |
| Average (all) | 26.67% |

Student: Bob Lee
Student ID: 1002
Worksheet 1 | 501 | Late | 5/10 | 2024-09-01T10:00:00Z
garbage line without pipes
Header | not-a-number | Graded | 1/2 | 2024-09-01
`

func TestParseReport(t *testing.T) {
	parser := NewReportParser(zerolog.Nop())

	courseFeed, err := parser.Parse(sampleReport)
	require.NoError(t, err)

	require.Equal(t, "Algebra I", courseFeed.Course.Name)
	require.Equal(t, "12345", courseFeed.Course.ExternalID)
	require.Len(t, courseFeed.Students, 2)

	alice := courseFeed.Students[0]
	require.Equal(t, "1001", alice.ExternalID)
	require.Equal(t, "Alice Johnson", alice.FullName)
	require.Len(t, alice.Observations, 3)

	first := alice.Observations[0]
	require.Equal(t, "501", first.AssignmentExternalID)
	require.Equal(t, "Worksheet 1", first.Title)
	require.Equal(t, models.StatusGraded, first.Submission.Status)
	require.Equal(t, "8/10", *first.Submission.ScoreRaw)
	require.Equal(t, time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC), first.CreatedAt.UTC())

	// Both dash markers mean no score.
	require.Nil(t, alice.Observations[1].Submission.ScoreRaw)
	require.Nil(t, alice.Observations[2].Submission.ScoreRaw)

	bob := courseFeed.Students[1]
	require.Equal(t, "1002", bob.ExternalID)
	// Garbage and non-numeric-id rows are skipped.
	require.Len(t, bob.Observations, 1)
	require.Equal(t, models.StatusLate, bob.Observations[0].Submission.Status)
}

func TestParseReportReportedTotals(t *testing.T) {
	parser := NewReportParser(zerolog.Nop())

	courseFeed, err := parser.Parse(sampleReport)
	require.NoError(t, err)

	totals := courseFeed.Students[0].Reported
	require.Equal(t, 3, *totals.TotalAssigned)
	require.Equal(t, 2, *totals.TotalMissing)
	require.Equal(t, 1, *totals.TotalGraded)
	require.Equal(t, 80.0, *totals.AvgSubmittedPct)
	require.Equal(t, 8.0, *totals.PointsEarned)
	require.Equal(t, 10.0, *totals.PointsPossible)
	require.Equal(t, 26.67, *totals.AvgAllPct)
}

func TestParseReportMissingHeaderFails(t *testing.T) {
	parser := NewReportParser(zerolog.Nop())

	_, err := parser.Parse("Student: Alice\nStudent ID: 1\n")
	require.Error(t, err)
}

func TestParseReportNoStudentsFails(t *testing.T) {
	parser := NewReportParser(zerolog.Nop())

	_, err := parser.Parse("Reports for Course: Algebra I (12345)\n")
	require.ErrorIs(t, err, ErrEmptyFeed)
}

func TestParseReportStudentBlockWithoutIDIsSkipped(t *testing.T) {
	parser := NewReportParser(zerolog.Nop())

	doc := `Reports for Course: Algebra I (12345)

Student: No Identifier

Student: Bob Lee
Student ID: 1002
Worksheet 1 | 501 | Late | 5/10 | 2024-09-01
`
	courseFeed, err := parser.Parse(doc)
	require.NoError(t, err)
	require.Len(t, courseFeed.Students, 1)
	require.Equal(t, "1002", courseFeed.Students[0].ExternalID)
}

func TestNormalizeScoreToken(t *testing.T) {
	require.Nil(t, normalizeScoreToken(""))
	require.Nil(t, normalizeScoreToken(" - "))
	require.Nil(t, normalizeScoreToken("--"))
	require.Nil(t, normalizeScoreToken("—"))
	require.Nil(t, normalizeScoreToken("â€”"))
	require.Equal(t, "5/10", *normalizeScoreToken(" 5/10 "))
}
