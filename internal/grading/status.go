// Package grading owns submission status classification: the write-time
// derivation applied during reconciliation and the read-time effective-status
// predicate used for all missing-work counting. Both live here so the two
// rules cannot drift apart.
package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/classpulse/classpulse-api/internal/feed"
	"github.com/classpulse/classpulse-api/internal/models"
)

// Result is the normalized outcome of classifying one submission observation.
type Result struct {
	Status      string
	ScoreRaw    *string
	ScorePoints *float64
	ScoreMax    *float64
	ScorePct    *float64
}

// Derive maps a raw submission observation to a status plus normalized score
// fields. maxPoints is the merged assignment max, used as a fallback when the
// observation itself does not carry one.
//
// zeroAsMissing preserves the upstream convention that a grade of exactly
// zero means "not actually submitted". A legitimate earned zero is
// indistinguishable from ungraded work under that rule, so it is
// configurable; see Config.ZeroScoreCountsMissing.
func Derive(obs *feed.SubmissionObservation, maxPoints *float64, zeroAsMissing bool) Result {
	if obs == nil {
		return missingResult()
	}
	if obs.Status != "" {
		return deriveFromReportRow(obs, maxPoints, zeroAsMissing)
	}
	return deriveFromLiveShape(obs, maxPoints, zeroAsMissing)
}

// deriveFromReportRow handles pre-classified export rows: the status is
// given, the score arrives as a raw "points/max" token.
func deriveFromReportRow(obs *feed.SubmissionObservation, maxPoints *float64, zeroAsMissing bool) Result {
	status := obs.Status
	if status == models.StatusMissing {
		return missingResult()
	}

	raw := ""
	if obs.ScoreRaw != nil {
		raw = *obs.ScoreRaw
	}

	points, max, pct := ParseScore(raw)
	if points == nil {
		// Unparsable or absent score token degrades to "no score"; the
		// raw token is kept for display.
		return Result{Status: status, ScoreRaw: obs.ScoreRaw}
	}
	if zeroAsMissing && *points == 0 {
		return missingResult()
	}

	if max == nil && maxPoints != nil && *maxPoints != 0 {
		max = maxPoints
		p := RoundPct(*points, *max)
		pct = &p
	}

	return Result{
		Status:      status,
		ScoreRaw:    obs.ScoreRaw,
		ScorePoints: points,
		ScoreMax:    max,
		ScorePct:    pct,
	}
}

// Lifecycle states meaning the work has not been turned in yet.
var unsubmittedStates = map[string]bool{
	"NEW":     true,
	"CREATED": true,
}

func deriveFromLiveShape(obs *feed.SubmissionObservation, maxPoints *float64, zeroAsMissing bool) Result {
	status := models.StatusSubmitted
	switch {
	case unsubmittedStates[obs.State]:
		status = models.StatusMissing
	case obs.Late:
		status = models.StatusLate
	}

	grade := obs.AssignedGrade
	if grade == nil {
		if status == models.StatusMissing {
			return missingResult()
		}
		return Result{Status: status}
	}
	if zeroAsMissing && *grade == 0 {
		return missingResult()
	}
	if status == models.StatusMissing {
		// A nonzero grade on an unreturned submission still counts as
		// credited work.
		status = models.StatusSubmitted
	}

	points := *grade
	result := Result{
		Status:      status,
		ScorePoints: &points,
	}

	if maxPoints != nil && *maxPoints != 0 {
		max := *maxPoints
		pct := RoundPct(points, max)
		raw := formatScore(points) + "/" + formatScore(max)
		result.ScoreMax = &max
		result.ScorePct = &pct
		result.ScoreRaw = &raw
	} else {
		raw := formatScore(points)
		result.ScoreRaw = &raw
	}
	return result
}

func missingResult() Result {
	return Result{Status: models.StatusMissing}
}

// ParseScore coerces a "points/max" token. Anything that does not parse, or a
// zero max, yields all-nil: score coercion failures are never fatal.
func ParseScore(raw string) (points, max, pct *float64) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil, nil
	}

	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return nil, nil, nil
	}

	p, errP := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	m, errM := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errP != nil || errM != nil || m == 0 {
		return nil, nil, nil
	}

	pctValue := RoundPct(p, m)
	return &p, &m, &pctValue
}

// RoundPct computes points/max as a percentage rounded to two decimals.
func RoundPct(points, max float64) float64 {
	return math.Round(points/max*100*100) / 100
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
