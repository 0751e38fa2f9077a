package grading

import "github.com/classpulse/classpulse-api/internal/models"

// The stored status column alone under-counts missing work: a row marked
// Submitted that was never graded carries no points and must still count as
// missing. Every missing/submitted computation goes through the functions (or
// SQL fragments) below; the boolean expression is never inlined elsewhere.

// EffectivelyMissing reports whether a submission counts as missing at read
// time. A nil scorePoints with an empty status means no row exists at all.
func EffectivelyMissing(status string, scorePoints *float64) bool {
	if status == "" || status == models.StatusMissing {
		return true
	}
	if scorePoints != nil && *scorePoints == 0 {
		return true
	}
	switch status {
	case models.StatusSubmitted, models.StatusLate, models.StatusGraded:
		return scorePoints == nil
	}
	return false
}

// EffectivelySubmitted reports whether a submission counts as actually turned
// in and credited.
func EffectivelySubmitted(status string, scorePoints *float64) bool {
	if status == "" || status == models.StatusMissing {
		return false
	}
	return scorePoints != nil && *scorePoints != 0
}

// SQL forms of the predicates above, written against a submissions alias
// `sub` that may come from a LEFT JOIN (hence the NULL status case). These
// must stay in lockstep with EffectivelyMissing / EffectivelySubmitted.
const (
	MissingCondition = `(sub.status IS NULL
		OR sub.status = 'Missing'
		OR sub.score_points = 0
		OR (sub.status IN ('Submitted', 'Late', 'Graded') AND sub.score_points IS NULL))`

	SubmittedCondition = `(sub.status IS NOT NULL
		AND sub.status != 'Missing'
		AND sub.score_points IS NOT NULL
		AND sub.score_points != 0)`
)
