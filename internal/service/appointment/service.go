package appointment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
	"github.com/procexaiedu/practice-scheduler/pkg/logger"
)

// Service covers the appointment lifecycle after booking: reads and staff
// status transitions. Appointments are never physically deleted; cancelled
// and no-show are statuses, and they stop occupying the calendar.
type Service struct {
	repo   repository.AppointmentRepository
	logger *logger.Logger
}

func NewService(repo repository.AppointmentRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus applies a staff-driven status transition and emits a
// status-changed event through the outbox in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentStatusRequest) (*model.Appointment, error) {
	if !req.Status.Valid() {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("unknown status %q", req.Status), nil)
	}

	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appointment.Status.CanTransitionTo(req.Status) {
		return nil, apperrors.NewInvalidRequest(
			fmt.Sprintf("cannot transition appointment from %s to %s", appointment.Status, req.Status), nil)
	}

	previous := appointment.Status
	appointment.Status = req.Status
	if req.Status == model.AppointmentStatusCancelled {
		reason := req.CancelReason
		appointment.CancelReason = &reason
	}

	event, err := newStatusChangedEvent(appointment, previous)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, appointment, event); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}

	s.logger.Info("appointment status changed",
		"appointment_id", appointment.ID.String(),
		"from", string(previous),
		"to", string(appointment.Status))
	return appointment, nil
}

func newStatusChangedEvent(appointment *model.Appointment, previous model.AppointmentStatus) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"appointment":     appointment,
		"previous_status": previous,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status event payload: %w", err)
	}
	return &model.OutboxEvent{
		EventType: model.EventAppointmentStatusChanged,
		Payload:   payload,
	}, nil
}
