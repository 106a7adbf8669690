package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

func (r *professionalRepository) Create(ctx context.Context, professional *model.Professional) error {
	query := `
		INSERT INTO professionals (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	professional.ID = uuid.New()
	professional.CreatedAt = time.Now()
	professional.UpdatedAt = professional.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		professional.ID,
		professional.Name,
		professional.Active,
		professional.CreatedAt,
		professional.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create professional: %w", err)
	}
	return nil
}

func (r *professionalRepository) Get(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`
	var professional model.Professional
	err := r.db.GetContext(ctx, &professional, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFound("professional", err)
		}
		return nil, fmt.Errorf("failed to get professional: %w", err)
	}
	return &professional, nil
}

func (r *professionalRepository) Update(ctx context.Context, professional *model.Professional) error {
	query := `
		UPDATE professionals
		SET name = $1, active = $2, updated_at = $3
		WHERE id = $4
	`
	professional.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		professional.Name,
		professional.Active,
		professional.UpdatedAt,
		professional.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update professional: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("professional", nil)
	}
	return nil
}

func (r *professionalRepository) List(ctx context.Context) ([]*model.Professional, error) {
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM professionals
		ORDER BY name ASC
	`
	var professionals []*model.Professional
	err := r.db.SelectContext(ctx, &professionals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list professionals: %w", err)
	}
	return professionals, nil
}
