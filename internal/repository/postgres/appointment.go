package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

const appointmentColumns = `
	id, clinic_id, professional_id, patient_id,
	start_time, duration_min, status, notes, cancel_reason,
	created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.ClinicID != uuid.Nil {
		query += fmt.Sprintf(" AND clinic_id = $%d", argCount)
		args = append(args, filters.ClinicID)
		argCount++
	}
	if filters.ProfessionalID != uuid.Nil {
		query += fmt.Sprintf(" AND professional_id = $%d", argCount)
		args = append(args, filters.ProfessionalID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND start_time < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

const listByProfessionalQuery = `
	SELECT ` + appointmentColumns + `
	FROM appointments
	WHERE professional_id = $1
	AND start_time < $3
	AND start_time + (duration_min * interval '1 minute') > $2
	ORDER BY start_time ASC
`

func (r *appointmentRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, listByProfessionalQuery, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list professional appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE appointments
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	appointment.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		appointment.Status,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}

	if event != nil {
		if err := insertOutboxEvent(ctx, tx, event); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Book executes fn inside a single serializable transaction. A serialization
// failure means another booking for the same resources won the race; it is
// surfaced as a commit race for the caller to retry.
func (r *appointmentRepository) Book(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&bookingTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if isSerializationFailure(err) {
			return apperrors.NewCommitRace("NONE", nil)
		}
		return fmt.Errorf("failed to commit booking transaction: %w", err)
	}
	return nil
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (b *bookingTx) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	var appointments []*model.Appointment
	err := b.tx.SelectContext(ctx, &appointments, listByProfessionalQuery, professionalID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list professional appointments in transaction: %w", err)
	}
	return appointments, nil
}

func (b *bookingTx) Insert(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := b.tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.ProfessionalID,
		appointment.PatientID,
		appointment.StartTime,
		appointment.DurationMin,
		appointment.Status,
		appointment.Notes,
		appointment.CancelReason,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if isSerializationFailure(err) {
			return apperrors.NewCommitRace("NONE", nil)
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func (b *bookingTx) InsertEvent(ctx context.Context, event *model.OutboxEvent) error {
	return insertOutboxEvent(ctx, b.tx, event)
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Status = string(model.OutboxStatusPending)

	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// isSerializationFailure reports a Postgres serialization conflict (40001).
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}
