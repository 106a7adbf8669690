package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

var appointmentTestColumns = []string{
	"id", "clinic_id", "professional_id", "patient_id",
	"start_time", "duration_min", "status", "notes", "cancel_reason",
	"created_at", "updated_at",
}

func TestGetAppointmentNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByProfessionalScansRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	professionalID := uuid.New()
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	now := time.Now()

	rows := sqlmock.NewRows(appointmentTestColumns).
		AddRow(uuid.New(), uuid.New(), professionalID, uuid.New(),
			from.Add(9*time.Hour), 30, "scheduled", "", nil, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(professionalID, from, to).
		WillReturnRows(rows)

	appointments, err := repo.ListByProfessional(context.Background(), professionalID, from, to)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, professionalID, appointments[0].ProfessionalID)
	assert.Equal(t, model.AppointmentStatusScheduled, appointments[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookCommitsAppointmentAndEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	professionalID := uuid.New()
	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(professionalID, from, to).
		WillReturnRows(sqlmock.NewRows(appointmentTestColumns))
	mock.ExpectExec(`INSERT INTO appointments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Book(context.Background(), func(tx repository.BookingTx) error {
		existing, err := tx.ListByProfessional(context.Background(), professionalID, from, to)
		if err != nil {
			return err
		}
		require.Empty(t, existing)

		appointment := &model.Appointment{
			Base:           model.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
			ClinicID:       uuid.New(),
			ProfessionalID: professionalID,
			PatientID:      uuid.New(),
			StartTime:      from.Add(9 * time.Hour),
			DurationMin:    30,
			Status:         model.AppointmentStatusScheduled,
		}
		if err := tx.Insert(context.Background(), appointment); err != nil {
			return err
		}

		payload, _ := json.Marshal(appointment)
		return tx.InsertEvent(context.Background(), &model.OutboxEvent{
			EventType: model.EventAppointmentCreated,
			Payload:   payload,
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookSerializationFailureIsCommitRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO appointments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err := repo.Book(context.Background(), func(tx repository.BookingTx) error {
		return tx.Insert(context.Background(), &model.Appointment{
			Base:           model.Base{ID: uuid.New()},
			ClinicID:       uuid.New(),
			ProfessionalID: uuid.New(),
			PatientID:      uuid.New(),
			StartTime:      time.Now(),
			DurationMin:    30,
			Status:         model.AppointmentStatusScheduled,
		})
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCommitRace))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRollsBackOnCallbackError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := apperrors.NewCommitRace("SAME_CLINIC_OVERLAP", []uuid.UUID{uuid.New()})
	err := repo.Book(context.Background(), func(tx repository.BookingTx) error {
		return wantErr
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCommitRace))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWritesEventInSameTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository(db)

	appointment := &model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       uuid.New(),
		ProfessionalID: uuid.New(),
		PatientID:      uuid.New(),
		StartTime:      time.Now(),
		DurationMin:    30,
		Status:         model.AppointmentStatusCancelled,
	}
	payload, _ := json.Marshal(appointment)
	event := &model.OutboxEvent{
		EventType: model.EventAppointmentStatusChanged,
		Payload:   payload,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE appointments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateStatus(context.Background(), appointment, event))
	require.NoError(t, mock.ExpectationsWereMet())
}
