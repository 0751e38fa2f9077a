package feed

import (
	"fmt"
	"time"
)

// Day-window tokens accepted by sync requests. "custom" requires explicit
// bounds, "all" means no bound.
var allowedDayWindows = map[string]int{
	"7":   7,
	"30":  30,
	"90":  90,
	"180": 180,
}

// ResolveWindow turns a day-window token plus optional explicit bounds into a
// Window. The end bound is widened to the end of its day so a date-only bound
// includes the whole day.
func ResolveWindow(token string, start, end *time.Time, now time.Time) (Window, error) {
	switch token {
	case "", "all":
		return Window{}, nil
	case "custom":
		if start == nil {
			return Window{}, fmt.Errorf("custom window requires a start date")
		}
		return Window{Start: start, End: endOfDay(end)}, nil
	}

	days, ok := allowedDayWindows[token]
	if !ok {
		return Window{}, fmt.Errorf("unsupported day window %q", token)
	}
	windowStart := now.UTC().AddDate(0, 0, -days)
	return Window{Start: &windowStart}, nil
}

func endOfDay(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.UTC()
	eod := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
	return &eod
}
