package model

import (
	"time"

	"github.com/google/uuid"
)

// ProposedBooking is ephemeral. It exists only inside the booking workflow
// and is never persisted until commit.
type ProposedBooking struct {
	ClinicID       uuid.UUID `json:"clinic_id" validate:"required"`
	ProfessionalID uuid.UUID `json:"professional_id" validate:"required"`
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	DurationMin    int       `json:"duration_min" validate:"gt=0"`
	Notes          string    `json:"notes,omitempty"`
	Force          bool      `json:"force"`
}

// EndTime is the exclusive end of the proposed interval.
func (p *ProposedBooking) EndTime() time.Time {
	return p.StartTime.Add(time.Duration(p.DurationMin) * time.Minute)
}

// BookingState is a state of the booking workflow machine.
type BookingState string

const (
	BookingStateForm            BookingState = "form"
	BookingStateValidating      BookingState = "validating"
	BookingStateConfirmed       BookingState = "confirmed"
	BookingStateConflictWarning BookingState = "conflict_warning"
	BookingStateCommitted       BookingState = "committed"
)

type CheckBookingRequest struct {
	ClinicID       string `json:"clinic_id" binding:"required,uuid"`
	ProfessionalID string `json:"professional_id" binding:"required,uuid"`
	PatientID      string `json:"patient_id" binding:"required,uuid"`
	StartTime      string `json:"start_time" binding:"required"`
	DurationMin    int    `json:"duration_min" binding:"required,gt=0"`
}

type CommitBookingRequest struct {
	ClinicID       string `json:"clinic_id" binding:"required,uuid"`
	ProfessionalID string `json:"professional_id" binding:"required,uuid"`
	PatientID      string `json:"patient_id" binding:"required,uuid"`
	StartTime      string `json:"start_time" binding:"required"`
	DurationMin    int    `json:"duration_min" binding:"required,gt=0"`
	Notes          string `json:"notes" binding:"max=1000"`
	Force          bool   `json:"force"`
}

// BookingResult is returned by a successful commit. ConflictIDs is populated
// when a forced booking went through despite colliding appointments, so the
// override stays visible to the caller.
type BookingResult struct {
	Appointment *Appointment `json:"appointment"`
	Forced      bool         `json:"forced"`
	ConflictIDs []uuid.UUID  `json:"conflict_ids,omitempty"`
}
