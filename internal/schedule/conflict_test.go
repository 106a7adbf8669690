package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

func appointmentAt(clinicID, professionalID uuid.UUID, start time.Time, durationMin int, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       clinicID,
		ProfessionalID: professionalID,
		PatientID:      uuid.New(),
		StartTime:      start,
		DurationMin:    durationMin,
		Status:         status,
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	a1 := at(monday, "09:00")
	a2 := at(monday, "09:30")
	b1 := at(monday, "09:30")
	b2 := at(monday, "10:00")

	// Back-to-back intervals share only the boundary and do not overlap.
	assert.False(t, Overlaps(a1, a2, b1, b2))
	assert.False(t, Overlaps(b1, b2, a1, a2))

	assert.True(t, Overlaps(a1, b1, a2, b2))
	assert.True(t, Overlaps(a1, b2, a2, b1))
}

func TestDetectSameClinicOverlap(t *testing.T) {
	clinicC := uuid.New()
	prof := uuid.New()

	existing := appointmentAt(clinicC, prof, at(monday, "09:00"), 30, model.AppointmentStatusScheduled)
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:15"),
		DurationMin:    30,
	}

	verdict, ids := Detect(proposed, []*model.Appointment{existing})
	assert.Equal(t, VerdictSameClinic, verdict)
	require.Len(t, ids, 1)
	assert.Equal(t, existing.ID, ids[0])
}

func TestDetectOtherClinicOverlap(t *testing.T) {
	clinicC := uuid.New()
	clinicD := uuid.New()
	prof := uuid.New()

	existing := appointmentAt(clinicD, prof, at(monday, "09:00"), 30, model.AppointmentStatusConfirmed)
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:00"),
		DurationMin:    30,
	}

	verdict, ids := Detect(proposed, []*model.Appointment{existing})
	assert.Equal(t, VerdictOtherClinic, verdict)
	require.Len(t, ids, 1)
	assert.Equal(t, existing.ID, ids[0])
}

func TestDetectSameClinicTakesPrecedence(t *testing.T) {
	clinicC := uuid.New()
	clinicD := uuid.New()
	prof := uuid.New()

	same := appointmentAt(clinicC, prof, at(monday, "09:00"), 60, model.AppointmentStatusScheduled)
	other := appointmentAt(clinicD, prof, at(monday, "09:30"), 60, model.AppointmentStatusScheduled)
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:15"),
		DurationMin:    60,
	}

	verdict, ids := Detect(proposed, []*model.Appointment{other, same})
	assert.Equal(t, VerdictSameClinic, verdict)
	// Both colliding appointments are reported either way.
	assert.Len(t, ids, 2)
}

func TestDetectIgnoresNonOccupyingStatuses(t *testing.T) {
	clinicC := uuid.New()
	prof := uuid.New()
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:00"),
		DurationMin:    30,
	}

	existing := []*model.Appointment{
		appointmentAt(clinicC, prof, at(monday, "09:00"), 30, model.AppointmentStatusCancelled),
		appointmentAt(clinicC, prof, at(monday, "09:00"), 30, model.AppointmentStatusNoShow),
	}

	verdict, ids := Detect(proposed, existing)
	assert.Equal(t, VerdictNone, verdict)
	assert.Empty(t, ids)
}

func TestDetectIgnoresOtherProfessionals(t *testing.T) {
	clinicC := uuid.New()
	prof := uuid.New()
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:00"),
		DurationMin:    30,
	}

	existing := []*model.Appointment{
		appointmentAt(clinicC, uuid.New(), at(monday, "09:00"), 30, model.AppointmentStatusScheduled),
	}

	verdict, ids := Detect(proposed, existing)
	assert.Equal(t, VerdictNone, verdict)
	assert.Empty(t, ids)
}

func TestDetectBackToBackIsNoConflict(t *testing.T) {
	clinicC := uuid.New()
	prof := uuid.New()

	existing := appointmentAt(clinicC, prof, at(monday, "09:00"), 30, model.AppointmentStatusScheduled)
	proposed := &model.ProposedBooking{
		ClinicID:       clinicC,
		ProfessionalID: prof,
		StartTime:      at(monday, "09:30"),
		DurationMin:    30,
	}

	verdict, _ := Detect(proposed, []*model.Appointment{existing})
	assert.Equal(t, VerdictNone, verdict)
}

// The verdict class is symmetric: if A conflicts given B, then B conflicts
// given A with the same classification.
func TestDetectSymmetry(t *testing.T) {
	clinicC := uuid.New()
	clinicD := uuid.New()
	prof := uuid.New()

	cases := []struct {
		name           string
		clinicA        uuid.UUID
		clinicB        uuid.UUID
		startA, startB string
		want           Verdict
	}{
		{"same clinic overlap", clinicC, clinicC, "09:00", "09:15", VerdictSameClinic},
		{"other clinic overlap", clinicC, clinicD, "09:00", "09:15", VerdictOtherClinic},
		{"disjoint", clinicC, clinicD, "09:00", "10:00", VerdictNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			aptA := appointmentAt(tc.clinicA, prof, at(monday, tc.startA), 30, model.AppointmentStatusScheduled)
			aptB := appointmentAt(tc.clinicB, prof, at(monday, tc.startB), 30, model.AppointmentStatusScheduled)

			proposedA := &model.ProposedBooking{
				ClinicID: tc.clinicA, ProfessionalID: prof,
				StartTime: aptA.StartTime, DurationMin: aptA.DurationMin,
			}
			proposedB := &model.ProposedBooking{
				ClinicID: tc.clinicB, ProfessionalID: prof,
				StartTime: aptB.StartTime, DurationMin: aptB.DurationMin,
			}

			verdictAB, _ := Detect(proposedA, []*model.Appointment{aptB})
			verdictBA, _ := Detect(proposedB, []*model.Appointment{aptA})
			assert.Equal(t, tc.want, verdictAB)
			assert.Equal(t, verdictAB, verdictBA)
		})
	}
}
