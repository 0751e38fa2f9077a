package feed

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/classpulse/classpulse-api/internal/models"
)

// ErrEmptyFeed indicates a document yielded zero usable student records.
var ErrEmptyFeed = errors.New("no students parsed from report")

var (
	headerPattern       = regexp.MustCompile(`(?i)Reports for Course:\s*(.*?)\s*\(([^()]+)\)`)
	studentNamePattern  = regexp.MustCompile(`(?m)^\s*Student:\s*(.+?)\s*$`)
	studentIDPattern    = regexp.MustCompile(`(?m)^\s*Student ID:\s*(\d+)\s*$`)
	studentBlockPattern = regexp.MustCompile(`(?m)^Student:\s`)
	avgSubmittedPattern = regexp.MustCompile(`(?i)\|\s*Average\s*\(submitted\)\s*\|\s*([0-9]+(?:\.[0-9]+)?)\s*%(?:\s*\(([0-9]+(?:\.[0-9]+)?)\s*/\s*([0-9]+(?:\.[0-9]+)?)\))?`)
	avgAllPattern       = regexp.MustCompile(`(?i)\|\s*Average\s*\(all\)\s*\|\s*([0-9]+(?:\.[0-9]+)?)\s*%`)
)

// Score tokens that mean "no score recorded". The last entry is the em dash
// as it comes out of a latin-1 round trip of some exports.
var missingScoreMarkers = map[string]bool{
	"":       true,
	"-":      true,
	"--":     true,
	"—": true,
	"â€”":    true,
}

// ReportParser turns a report-text export document into a CourseFeed.
// Malformed rows and blocks are skipped with a warning; only a document with
// zero usable students fails.
type ReportParser struct {
	logger zerolog.Logger
}

// NewReportParser constructs a parser with the given logger.
func NewReportParser(logger zerolog.Logger) *ReportParser {
	return &ReportParser{logger: logger.With().Str("component", "report_parser").Logger()}
}

// Parse parses one export document.
func (p *ReportParser) Parse(text string) (*CourseFeed, error) {
	header := headerPattern.FindStringSubmatch(text)
	if header == nil {
		return nil, fmt.Errorf("could not parse course header from report")
	}

	courseName := strings.TrimSpace(header[1])
	courseExternalID := strings.TrimSpace(header[2])

	var students []StudentFeed
	for _, block := range splitStudentBlocks(text) {
		student, ok := p.parseStudentBlock(block)
		if !ok {
			continue
		}
		students = append(students, student)
	}

	if len(students) == 0 {
		return nil, ErrEmptyFeed
	}

	p.logger.Info().
		Int("students", len(students)).
		Str("course", courseName).
		Str("course_external_id", courseExternalID).
		Msg("parsed report document")

	return &CourseFeed{
		Course:   CourseRef{ExternalID: courseExternalID, Name: courseName},
		Students: students,
	}, nil
}

// splitStudentBlocks slices the document at every line that starts a student
// block, keeping the marker line in its block.
func splitStudentBlocks(text string) []string {
	starts := studentBlockPattern.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, text[loc[0]:end])
	}
	return blocks
}

func (p *ReportParser) parseStudentBlock(block string) (StudentFeed, bool) {
	nameMatch := studentNamePattern.FindStringSubmatch(block)
	idMatch := studentIDPattern.FindStringSubmatch(block)
	if nameMatch == nil || idMatch == nil {
		return StudentFeed{}, false
	}

	fullName := strings.TrimSpace(nameMatch[1])
	externalID := strings.TrimSpace(idMatch[1])

	var observations []Observation
	for _, line := range strings.Split(block, "\n") {
		obs, ok := parseAssignmentLine(line)
		if !ok {
			continue
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		p.logger.Warn().
			Str("student", fullName).
			Str("external_id", externalID).
			Msg("no assignment rows parsed for student")
	}

	return StudentFeed{
		ExternalID:   externalID,
		FullName:     fullName,
		Observations: observations,
		Reported:     parseReportedTotals(block),
	}, true
}

// parseAssignmentLine accepts pipe-delimited rows of the form
// `title | external_id | status | score_raw | created_at`. A row is accepted
// only when the external id is numeric and the status is a known enum value;
// anything else is skipped silently.
func parseAssignmentLine(line string) (Observation, bool) {
	if !strings.Contains(line, "|") {
		return Observation{}, false
	}

	parts := strings.Split(line, "|")
	if len(parts) < 5 {
		return Observation{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	title, externalID, status, scoreToken, createdToken := parts[0], parts[1], parts[2], parts[3], parts[4]
	if !isAllDigits(externalID) {
		return Observation{}, false
	}
	if !models.AllowedStatuses[status] {
		return Observation{}, false
	}

	obs := Observation{
		AssignmentExternalID: externalID,
		Title:                title,
		CreatedAt:            parseReportTimestamp(createdToken),
		Submission: &SubmissionObservation{
			Status:   status,
			ScoreRaw: normalizeScoreToken(scoreToken),
		},
	}
	return obs, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeScoreToken maps "no score" markers to nil and keeps everything
// else verbatim for downstream coercion.
func normalizeScoreToken(token string) *string {
	trimmed := strings.TrimSpace(token)
	if missingScoreMarkers[trimmed] {
		return nil
	}
	return &trimmed
}

var reportTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseReportTimestamp(token string) *time.Time {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil
	}
	for _, layout := range reportTimeLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

func parseReportedTotals(block string) ReportedTotals {
	totals := ReportedTotals{
		TotalAssigned: parseIntMetric(block, "Total Assigned"),
		TotalMissing:  parseIntMetric(block, "Missing"),
		TotalLate:     parseIntMetric(block, "Late"),
		TotalGraded:   parseIntMetric(block, "Graded Count"),
		AvgAllPct:     parseFloatGroup(avgAllPattern, block, 1),
	}

	if m := avgSubmittedPattern.FindStringSubmatch(block); m != nil {
		totals.AvgSubmittedPct = parseFloatToken(m[1])
		totals.PointsEarned = parseFloatToken(m[2])
		totals.PointsPossible = parseFloatToken(m[3])
	}
	return totals
}

func parseIntMetric(block, label string) *int {
	pattern := regexp.MustCompile(`(?i)\|\s*` + regexp.QuoteMeta(label) + `\s*\|\s*(\d+)`)
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &value
}

func parseFloatGroup(pattern *regexp.Regexp, block string, group int) *float64 {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	return parseFloatToken(m[group])
}

func parseFloatToken(token string) *float64 {
	if token == "" {
		return nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &value
}
