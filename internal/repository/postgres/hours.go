package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

func (r *operatingHoursRepository) CreateWeeklyRule(ctx context.Context, rule *model.WeeklyHoursRule) error {
	if !rule.Start.Valid() || !rule.End.Valid() || rule.Start >= rule.End {
		return apperrors.NewInvalidRequest("weekly rule window must satisfy start < end", nil)
	}

	overlapQuery := `
		SELECT EXISTS (
			SELECT 1 FROM operating_hours_weekly
			WHERE clinic_id = $1 AND weekday = $2
			AND start_min < $4 AND $3 < end_min
		)
	`
	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, overlapQuery,
		rule.ClinicID, int(rule.Weekday), int(rule.Start), int(rule.End)); err != nil {
		return fmt.Errorf("failed to check weekly rule overlap: %w", err)
	}
	if overlaps {
		return apperrors.NewInvalidRequest("weekly rule overlaps an existing rule for this clinic and weekday", nil)
	}

	query := `
		INSERT INTO operating_hours_weekly (id, clinic_id, weekday, start_min, end_min, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	rule.ID = uuid.New()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.ClinicID,
		int(rule.Weekday),
		int(rule.Start),
		int(rule.End),
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create weekly rule: %w", err)
	}
	return nil
}

func (r *operatingHoursRepository) ListWeeklyRules(ctx context.Context, clinicID uuid.UUID) ([]model.WeeklyHoursRule, error) {
	query := `
		SELECT id, clinic_id, weekday, start_min, end_min, created_at, updated_at
		FROM operating_hours_weekly
		WHERE clinic_id = $1
		ORDER BY weekday ASC, start_min ASC
	`
	var rules []model.WeeklyHoursRule
	err := r.db.SelectContext(ctx, &rules, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly rules: %w", err)
	}
	return rules, nil
}

func (r *operatingHoursRepository) DeleteWeeklyRule(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM operating_hours_weekly WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete weekly rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("weekly rule", nil)
	}
	return nil
}

// CreateOverride rejects overlapping overrides for the same clinic and date.
// Precedence between overlapping windows is undefined, so the write is the
// place to refuse them.
func (r *operatingHoursRepository) CreateOverride(ctx context.Context, override *model.HoursOverride) error {
	startMin, endMin := overrideWindow(override)
	if startMin >= endMin {
		return apperrors.NewInvalidRequest("override window must satisfy start < end", nil)
	}
	if !override.Blocked && (override.Start == nil || override.End == nil) {
		return apperrors.NewInvalidRequest("an extra-opening override requires both start and end", nil)
	}

	overlapQuery := `
		SELECT EXISTS (
			SELECT 1 FROM operating_hours_overrides
			WHERE clinic_id = $1 AND date = $2
			AND COALESCE(start_min, 0) < $4 AND $3 < COALESCE(end_min, 1439)
		)
	`
	var overlaps bool
	if err := r.db.GetContext(ctx, &overlaps, overlapQuery,
		override.ClinicID, dateOnly(override.Date), startMin, endMin); err != nil {
		return fmt.Errorf("failed to check override overlap: %w", err)
	}
	if overlaps {
		return apperrors.NewInvalidRequest("override overlaps an existing override for this clinic and date", nil)
	}

	query := `
		INSERT INTO operating_hours_overrides (id, clinic_id, date, start_min, end_min, blocked, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	override.ID = uuid.New()
	override.CreatedAt = time.Now()
	override.UpdatedAt = override.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		override.ID,
		override.ClinicID,
		dateOnly(override.Date),
		override.Start,
		override.End,
		override.Blocked,
		override.Reason,
		override.CreatedAt,
		override.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create override: %w", err)
	}
	return nil
}

func (r *operatingHoursRepository) ListOverrides(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]model.HoursOverride, error) {
	query := `
		SELECT id, clinic_id, date, start_min, end_min, blocked, reason, created_at, updated_at
		FROM operating_hours_overrides
		WHERE clinic_id = $1 AND date = $2
		ORDER BY start_min ASC NULLS FIRST
	`
	var overrides []model.HoursOverride
	err := r.db.SelectContext(ctx, &overrides, query, clinicID, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func (r *operatingHoursRepository) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM operating_hours_overrides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("override", nil)
	}
	return nil
}

// overrideWindow returns the effective minute window; a missing window on a
// blocked override spans the whole day.
func overrideWindow(o *model.HoursOverride) (int, int) {
	start, end := 0, int(model.EndOfDay)
	if o.Start != nil {
		start = int(*o.Start)
	}
	if o.End != nil {
		end = int(*o.End)
	}
	return start, end
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
