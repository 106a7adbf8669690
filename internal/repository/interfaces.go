package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

// All repository interfaces in one file
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		List(ctx context.Context) ([]*model.Clinic, error)
	}

	ProfessionalRepository interface {
		Create(ctx context.Context, professional *model.Professional) error
		Get(ctx context.Context, id uuid.UUID) (*model.Professional, error)
		Update(ctx context.Context, professional *model.Professional) error
		List(ctx context.Context) ([]*model.Professional, error)
	}

	// OperatingHoursRepository is the operating hours store. Overlapping
	// overrides for the same clinic and date are a data-entry error and are
	// rejected here, at write time, never merged.
	OperatingHoursRepository interface {
		CreateWeeklyRule(ctx context.Context, rule *model.WeeklyHoursRule) error
		ListWeeklyRules(ctx context.Context, clinicID uuid.UUID) ([]model.WeeklyHoursRule, error)
		DeleteWeeklyRule(ctx context.Context, id uuid.UUID) error
		CreateOverride(ctx context.Context, override *model.HoursOverride) error
		ListOverrides(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]model.HoursOverride, error)
		DeleteOverride(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListByProfessional returns the professional's appointments across
		// ALL clinics in [from, to), needed for cross-location conflicts.
		ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		// UpdateStatus persists a status change and its outbox event in one
		// transaction.
		UpdateStatus(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
		// Book runs fn inside a single serializable transaction. The commit
		// re-check and the insert both happen through the BookingTx handle.
		Book(ctx context.Context, fn func(tx BookingTx) error) error
	}

	// BookingTx is the transaction-scoped view used by the commit step.
	BookingTx interface {
		ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		Insert(ctx context.Context, appointment *model.Appointment) error
		InsertEvent(ctx context.Context, event *model.OutboxEvent) error
	}

	OutboxRepository interface {
		ClaimPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
	}
)
