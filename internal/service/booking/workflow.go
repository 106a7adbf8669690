package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	"github.com/procexaiedu/practice-scheduler/internal/schedule"
	"github.com/procexaiedu/practice-scheduler/internal/service/availability"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
	"github.com/procexaiedu/practice-scheduler/pkg/logger"
	"github.com/procexaiedu/practice-scheduler/pkg/metrics"
	"github.com/procexaiedu/practice-scheduler/pkg/validator"
)

// Workflow drives the propose, warn-on-conflict, force-or-revise, commit
// sequence. The machine is strictly forward or cancel; nothing resumes after
// commit.
type Workflow struct {
	availability  *availability.Service
	appointments  repository.AppointmentRepository
	commitTimeout time.Duration
	validate      *validator.Validator
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewWorkflow(
	availability *availability.Service,
	appointments repository.AppointmentRepository,
	commitTimeout time.Duration,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Workflow {
	return &Workflow{
		availability:  availability,
		appointments:  appointments,
		commitTimeout: commitTimeout,
		validate:      validator.New(),
		logger:        logger,
		metrics:       metrics,
	}
}

// Session is one pass through the booking state machine. It holds the
// ephemeral proposed booking, which is never persisted before commit.
type Session struct {
	state       model.BookingState
	proposed    *model.ProposedBooking
	verdict     schedule.Verdict
	conflictIDs []uuid.UUID
}

func (s *Session) State() model.BookingState { return s.state }
func (s *Session) Verdict() schedule.Verdict { return s.verdict }
func (s *Session) ConflictIDs() []uuid.UUID  { return s.conflictIDs }

// NewSession starts a session in the Form state.
func (w *Workflow) NewSession(proposed *model.ProposedBooking) *Session {
	return &Session{state: model.BookingStateForm, proposed: proposed}
}

// Validate moves Form -> Validating -> Confirmed or ConflictWarning.
func (w *Workflow) Validate(ctx context.Context, s *Session) error {
	if s.state != model.BookingStateForm {
		return apperrors.NewInvalidRequest(fmt.Sprintf("cannot validate from state %s", s.state), nil)
	}
	s.state = model.BookingStateValidating

	if err := w.validate.Validate(s.proposed); err != nil {
		s.state = model.BookingStateForm
		return apperrors.NewInvalidRequest(err.Error(), nil)
	}

	verdict, ids, err := w.availability.CheckExact(ctx, s.proposed)
	if err != nil {
		s.state = model.BookingStateForm
		return err
	}

	s.verdict = verdict
	s.conflictIDs = ids
	if verdict == schedule.VerdictNone {
		s.state = model.BookingStateConfirmed
	} else {
		s.state = model.BookingStateConflictWarning
	}
	return nil
}

// Force moves ConflictWarning -> Confirmed. The override is explicit and
// logged, never implicit.
func (w *Workflow) Force(s *Session) error {
	if s.state != model.BookingStateConflictWarning {
		return apperrors.NewInvalidRequest(fmt.Sprintf("cannot force from state %s", s.state), nil)
	}
	s.proposed.Force = true
	s.state = model.BookingStateConfirmed
	w.logger.Warn("booking conflict overridden by caller",
		"professional_id", s.proposed.ProfessionalID.String(),
		"clinic_id", s.proposed.ClinicID.String(),
		"verdict", string(s.verdict))
	return nil
}

// Revise moves ConflictWarning back to Form with a new proposal.
func (w *Workflow) Revise(s *Session, proposed *model.ProposedBooking) error {
	if s.state != model.BookingStateConflictWarning {
		return apperrors.NewInvalidRequest(fmt.Sprintf("cannot revise from state %s", s.state), nil)
	}
	s.proposed = proposed
	s.verdict = ""
	s.conflictIDs = nil
	s.state = model.BookingStateForm
	return nil
}

// Commit moves Confirmed -> Committed. The write is a single serializable
// transaction that re-reads the professional's appointments for the affected
// date and re-runs conflict detection, closing the race window between the
// earlier CheckExact and the insert. A conflict discovered here fails a
// non-forced commit; a forced commit proceeds but still reports the newly
// discovered colliding ids.
func (w *Workflow) Commit(ctx context.Context, s *Session) (*model.BookingResult, error) {
	if s.state != model.BookingStateConfirmed {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("cannot commit from state %s", s.state), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, w.commitTimeout)
	defer cancel()

	start := time.Now()
	result, err := w.commit(ctx, s.proposed)
	if w.metrics != nil {
		w.metrics.CommitLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCommitRace) {
			w.countCommit("race")
			if w.metrics != nil {
				w.metrics.CommitRaces.Inc()
			}
		} else {
			w.countCommit("error")
		}
		return nil, err
	}

	s.state = model.BookingStateCommitted
	w.countCommit("ok")
	if result.Forced && w.metrics != nil {
		w.metrics.BookingForced.Inc()
	}

	w.logger.Info("booking committed",
		"appointment_id", result.Appointment.ID.String(),
		"clinic_id", result.Appointment.ClinicID.String(),
		"professional_id", result.Appointment.ProfessionalID.String(),
		"forced", result.Forced)
	return result, nil
}

func (w *Workflow) commit(ctx context.Context, proposed *model.ProposedBooking) (*model.BookingResult, error) {
	loc := w.availability.Location()
	day := proposed.StartTime.In(loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	var result *model.BookingResult
	err := w.appointments.Book(ctx, func(tx repository.BookingTx) error {
		existing, err := tx.ListByProfessional(ctx, proposed.ProfessionalID, dayStart, dayEnd)
		if err != nil {
			return err
		}

		verdict, ids := schedule.Detect(proposed, existing)
		if verdict != schedule.VerdictNone && !proposed.Force {
			return apperrors.NewCommitRace(string(verdict), ids)
		}

		now := time.Now()
		appointment := &model.Appointment{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ClinicID:       proposed.ClinicID,
			ProfessionalID: proposed.ProfessionalID,
			PatientID:      proposed.PatientID,
			StartTime:      proposed.StartTime,
			DurationMin:    proposed.DurationMin,
			Status:         model.AppointmentStatusScheduled,
			Notes:          proposed.Notes,
		}
		if err := tx.Insert(ctx, appointment); err != nil {
			return err
		}

		result = &model.BookingResult{
			Appointment: appointment,
			Forced:      proposed.Force,
			ConflictIDs: ids,
		}

		event, err := newCreatedEvent(result)
		if err != nil {
			return err
		}
		return tx.InsertEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func newCreatedEvent(result *model.BookingResult) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking event payload: %w", err)
	}
	return &model.OutboxEvent{
		EventType: model.EventAppointmentCreated,
		Payload:   payload,
	}, nil
}

// CommitRetried records a caller-driven retry after a serialization failure.
func (w *Workflow) CommitRetried() {
	if w.metrics != nil {
		w.metrics.CommitRetries.Inc()
	}
}

func (w *Workflow) countCommit(outcome string) {
	if w.metrics != nil {
		w.metrics.BookingCommits.WithLabelValues(outcome).Inc()
	}
}
