package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

// Claiming must lock and mark rows in one statement; a bare SELECT would
// release its locks at statement end and let two workers publish the same
// event.
func TestClaimPendingEventsMarksProcessingAtomically(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutboxRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "event_type", "payload", "status", "error_message",
		"created_at", "processed_at", "updated_at", "retry_count",
	}).AddRow(uuid.New(), model.EventAppointmentCreated, []byte(`{}`),
		string(model.OutboxStatusProcessing), nil, now, nil, now, 0)

	mock.ExpectQuery(`(?s)UPDATE outbox_events\s+SET status = (.+)FOR UPDATE SKIP LOCKED(.+)RETURNING`).
		WithArgs(model.OutboxStatusProcessing, sqlmock.AnyArg(),
			model.OutboxStatusPending, sqlmock.AnyArg(), 10).
		WillReturnRows(rows)

	events, err := repo.ClaimPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAppointmentCreated, events[0].EventType)
	assert.Equal(t, string(model.OutboxStatusProcessing), events[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimPendingEventsReclaimsStaleProcessing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutboxRepository(db)

	var cutoff time.Time
	mock.ExpectQuery(`(?s)UPDATE outbox_events`).
		WithArgs(model.OutboxStatusProcessing, sqlmock.AnyArg(),
			model.OutboxStatusPending,
			timeCapture{&cutoff}, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_type", "payload", "status", "error_message",
			"created_at", "processed_at", "updated_at", "retry_count",
		}))

	events, err := repo.ClaimPendingEvents(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Rows marked PROCESSING become claimable again only once stale.
	assert.WithinDuration(t, time.Now().Add(-processingStaleAfter), cutoff, 5*time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

// timeCapture records the time argument a query was executed with.
type timeCapture struct {
	dst *time.Time
}

func (c timeCapture) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	if ok {
		*c.dst = ts
	}
	return ok
}

func TestUpdateOutboxStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutboxRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs(string(model.OutboxStatusProcessed), nil, sqlmock.AnyArg(),
			string(model.OutboxStatusProcessed), string(model.OutboxStatusFailed), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), id, string(model.OutboxStatusProcessed), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
