package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

// Verdict classifies the outcome of conflict detection.
type Verdict string

const (
	VerdictNone Verdict = "NONE"
	// VerdictSameClinic: the professional already has an overlapping booking
	// at the same clinic. Staff may intentionally double-book these.
	VerdictSameClinic Verdict = "SAME_CLINIC_OVERLAP"
	// VerdictOtherClinic: the professional is committed at a different
	// clinic. The same person cannot be in two places, so this is always a
	// hard signal.
	VerdictOtherClinic Verdict = "OTHER_CLINIC_OVERLAP"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back appointments do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Detect checks a proposed booking against the professional's existing
// appointments and returns the verdict plus the ids of every colliding
// appointment. Cancelled and no-show appointments do not occupy the calendar
// and are skipped, as are appointments of other professionals.
func Detect(proposed *model.ProposedBooking, existing []*model.Appointment) (Verdict, []uuid.UUID) {
	start := proposed.StartTime
	end := proposed.EndTime()

	var ids []uuid.UUID
	sameClinic := false
	for _, apt := range existing {
		if apt.ProfessionalID != proposed.ProfessionalID {
			continue
		}
		if !apt.Status.OccupiesCalendar() {
			continue
		}
		if !Overlaps(start, end, apt.StartTime, apt.EndTime()) {
			continue
		}
		ids = append(ids, apt.ID)
		if apt.ClinicID == proposed.ClinicID {
			sameClinic = true
		}
	}

	switch {
	case len(ids) == 0:
		return VerdictNone, nil
	case sameClinic:
		return VerdictSameClinic, ids
	default:
		return VerdictOtherClinic, ids
	}
}
