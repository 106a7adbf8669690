package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	"github.com/procexaiedu/practice-scheduler/internal/schedule"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
	"github.com/procexaiedu/practice-scheduler/pkg/logger"
	"github.com/procexaiedu/practice-scheduler/pkg/metrics"
)

// Service answers "what slots are free" and "is this exact interval free".
// Slot computation is pure; this is the only component that reads the
// appointment store.
type Service struct {
	clinics       repository.ClinicRepository
	professionals repository.ProfessionalRepository
	hours         repository.OperatingHoursRepository
	appointments  repository.AppointmentRepository
	loc           *time.Location
	granularity   time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	clinics repository.ClinicRepository,
	professionals repository.ProfessionalRepository,
	hours repository.OperatingHoursRepository,
	appointments repository.AppointmentRepository,
	loc *time.Location,
	granularity time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		clinics:       clinics,
		professionals: professionals,
		hours:         hours,
		appointments:  appointments,
		loc:           loc,
		granularity:   granularity,
		logger:        logger,
		metrics:       metrics,
	}
}

// Location returns the practice timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// OpenIntervals resolves the clinic's open intervals for a date. An empty
// result means the clinic is closed that day; it is not an error.
func (s *Service) OpenIntervals(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]schedule.OpenInterval, error) {
	weekly, err := s.hours.ListWeeklyRules(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly rules: %w", err)
	}
	overrides, err := s.hours.ListOverrides(ctx, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	return schedule.ResolveOpenIntervals(date, s.loc, weekly, overrides), nil
}

// ListFreeSlots lists every grid start time at which the requested duration
// fits an open interval and does not collide with any of the professional's
// appointments that day, at any clinic. A closed day yields an empty list.
func (s *Service) ListFreeSlots(ctx context.Context, clinicID, professionalID uuid.UUID, date time.Time, durationMin int) ([]time.Time, error) {
	timer := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.AvailabilityLatency.Observe(time.Since(timer).Seconds())
		}
	}()

	if err := s.validateRequest(ctx, clinicID, professionalID, durationMin); err != nil {
		s.countQuery("rejected")
		return nil, err
	}

	intervals, err := s.OpenIntervals(ctx, clinicID, date)
	if err != nil {
		s.countQuery("error")
		return nil, err
	}
	if len(intervals) == 0 {
		s.countQuery("closed")
		return []time.Time{}, nil
	}

	duration := time.Duration(durationMin) * time.Minute
	candidates := schedule.GenerateSlots(intervals, duration, s.granularity)
	if len(candidates) == 0 {
		s.countQuery("ok")
		return []time.Time{}, nil
	}

	// One fetch across all clinics: cross-location conflicts are invisible
	// to a per-clinic query.
	dayStart, dayEnd := s.dayBounds(date)
	existing, err := s.appointments.ListByProfessional(ctx, professionalID, dayStart, dayEnd)
	if err != nil {
		s.countQuery("error")
		return nil, fmt.Errorf("failed to load professional appointments: %w", err)
	}

	free := make([]time.Time, 0, len(candidates))
	for _, candidate := range candidates {
		proposed := &model.ProposedBooking{
			ClinicID:       clinicID,
			ProfessionalID: professionalID,
			StartTime:      candidate,
			DurationMin:    durationMin,
		}
		if verdict, _ := schedule.Detect(proposed, existing); verdict == schedule.VerdictNone {
			free = append(free, candidate)
		}
	}

	s.countQuery("ok")
	if s.metrics != nil {
		s.metrics.SlotsReturned.Observe(float64(len(free)))
	}
	return free, nil
}

// CheckExact validates a specific requested interval, independent of the
// slot grid. Containment is exact half-open interval arithmetic, so manually
// typed times are judged precisely.
func (s *Service) CheckExact(ctx context.Context, proposed *model.ProposedBooking) (schedule.Verdict, []uuid.UUID, error) {
	if err := s.validateRequest(ctx, proposed.ClinicID, proposed.ProfessionalID, proposed.DurationMin); err != nil {
		return "", nil, err
	}

	intervals, err := s.OpenIntervals(ctx, proposed.ClinicID, proposed.StartTime.In(s.loc))
	if err != nil {
		return "", nil, err
	}
	if len(intervals) == 0 {
		return "", nil, apperrors.NewClosed("clinic is closed on the requested date")
	}

	duration := time.Duration(proposed.DurationMin) * time.Minute
	if !schedule.FitsWithin(intervals, proposed.StartTime, duration) {
		return "", nil, apperrors.NewClosed("requested time falls outside the clinic's open hours")
	}

	dayStart, dayEnd := s.dayBounds(proposed.StartTime.In(s.loc))
	existing, err := s.appointments.ListByProfessional(ctx, proposed.ProfessionalID, dayStart, dayEnd)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load professional appointments: %w", err)
	}

	verdict, ids := schedule.Detect(proposed, existing)
	if s.metrics != nil {
		s.metrics.BookingChecks.WithLabelValues(string(verdict)).Inc()
	}
	return verdict, ids, nil
}

func (s *Service) validateRequest(ctx context.Context, clinicID, professionalID uuid.UUID, durationMin int) error {
	if durationMin <= 0 {
		return apperrors.NewInvalidRequest("duration must be positive", nil)
	}
	if clinicID == uuid.Nil {
		return apperrors.NewInvalidRequest("clinic id is required", nil)
	}
	if professionalID == uuid.Nil {
		return apperrors.NewInvalidRequest("professional id is required", nil)
	}

	clinic, err := s.clinics.Get(ctx, clinicID)
	if err != nil {
		return err
	}
	if !clinic.Active {
		return apperrors.NewNotFound("clinic", nil)
	}

	professional, err := s.professionals.Get(ctx, professionalID)
	if err != nil {
		return err
	}
	if !professional.Active {
		return apperrors.NewNotFound("professional", nil)
	}
	return nil
}

func (s *Service) dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	return start, start.Add(24 * time.Hour)
}

func (s *Service) countQuery(outcome string) {
	if s.metrics != nil {
		s.metrics.AvailabilityQueries.WithLabelValues(outcome).Inc()
	}
}
