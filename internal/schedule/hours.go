package schedule

import (
	"sort"
	"time"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

// OpenInterval is a contiguous span of time during which a clinic is
// operating, half-open: [Start, End).
type OpenInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i OpenInterval) empty() bool {
	return !i.Start.Before(i.End)
}

// ResolveOpenIntervals computes the ordered, non-overlapping open intervals
// for a clinic date by merging the weekly template with date overrides.
//
// A full-day blocked override closes the date regardless of the template.
// Partial blocked overrides subtract their window, possibly splitting an
// interval in two. Non-blocked overrides add extra openings. A day with no
// matching rules is closed: the empty result is not an error.
func ResolveOpenIntervals(date time.Time, loc *time.Location, weekly []model.WeeklyHoursRule, overrides []model.HoursOverride) []OpenInterval {
	for _, o := range overrides {
		if o.FullDay() {
			return nil
		}
	}

	var intervals []OpenInterval
	for _, rule := range weekly {
		if rule.Weekday != date.Weekday() {
			continue
		}
		iv := OpenInterval{
			Start: rule.Start.OnDate(date, loc),
			End:   rule.End.OnDate(date, loc),
		}
		if !iv.empty() {
			intervals = append(intervals, iv)
		}
	}

	for _, o := range overrides {
		if o.Start == nil || o.End == nil {
			continue
		}
		window := OpenInterval{
			Start: o.Start.OnDate(date, loc),
			End:   o.End.OnDate(date, loc),
		}
		if window.empty() {
			continue
		}
		if o.Blocked {
			intervals = subtract(intervals, window)
		} else {
			intervals = append(intervals, window)
		}
	}

	return normalize(intervals)
}

// subtract removes window from every interval, splitting where the window
// falls strictly inside one.
func subtract(intervals []OpenInterval, window OpenInterval) []OpenInterval {
	var out []OpenInterval
	for _, iv := range intervals {
		// No overlap: keep as-is.
		if !iv.Start.Before(window.End) || !window.Start.Before(iv.End) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(window.Start) {
			out = append(out, OpenInterval{Start: iv.Start, End: window.Start})
		}
		if window.End.Before(iv.End) {
			out = append(out, OpenInterval{Start: window.End, End: iv.End})
		}
	}
	return out
}

// normalize sorts intervals and coalesces overlapping or adjacent ones.
func normalize(intervals []OpenInterval) []OpenInterval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]OpenInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := []OpenInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
