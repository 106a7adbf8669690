package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
)

// Rows stuck in PROCESSING this long are assumed to belong to a crashed
// processor and become claimable again.
const processingStaleAfter = 5 * time.Minute

// ClaimPendingEvents flips a batch of pending rows to PROCESSING and returns
// them. The lock and the status change happen in a single statement, so two
// processors can never claim the same row; SKIP LOCKED keeps them from
// blocking each other.
func (r *outboxRepository) ClaimPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		UPDATE outbox_events
		SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id
			FROM outbox_events
			WHERE status = $3 OR (status = $1 AND updated_at < $4)
			ORDER BY created_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_type, payload, status, error_message, created_at, processed_at, updated_at, retry_count
	`
	now := time.Now()
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query,
		model.OutboxStatusProcessing,
		now,
		model.OutboxStatusPending,
		now.Add(-processingStaleAfter),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
		    error_message = $2,
		    processed_at = CASE WHEN $1 = $4 THEN $3 ELSE processed_at END,
		    retry_count = CASE WHEN $1 = $5 THEN retry_count + 1 ELSE retry_count END,
		    updated_at = $3
		WHERE id = $6
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query,
		status,
		errorMessage,
		now,
		string(model.OutboxStatusProcessed),
		string(model.OutboxStatusFailed),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update outbox event status: %w", err)
	}
	return nil
}
