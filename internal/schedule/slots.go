package schedule

import "time"

// GenerateSlots enumerates candidate start times on a fixed grid. For each
// open interval the candidates are interval.Start, interval.Start+granularity,
// and so on, while the full duration still fits before interval.End. The
// granularity is independent of the duration, so a 90 minute appointment can
// start on a 30 minute grid.
//
// Arbitrary user-chosen times are never snapped to this grid; they are
// validated exactly with FitsWithin.
func GenerateSlots(intervals []OpenInterval, duration, granularity time.Duration) []time.Time {
	if duration <= 0 || granularity <= 0 {
		return nil
	}

	var slots []time.Time
	for _, iv := range intervals {
		for t := iv.Start; !t.Add(duration).After(iv.End); t = t.Add(granularity) {
			slots = append(slots, t)
		}
	}
	return slots
}

// FitsWithin reports whether [start, start+duration) is contained in some
// open interval. This is exact half-open containment, not grid membership
// and not any kind of textual time matching.
func FitsWithin(intervals []OpenInterval, start time.Time, duration time.Duration) bool {
	if duration <= 0 {
		return false
	}
	end := start.Add(duration)
	for _, iv := range intervals {
		if !iv.Start.After(start) && !end.After(iv.End) {
			return true
		}
	}
	return false
}
