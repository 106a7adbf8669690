package professional

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
)

type Service struct {
	repo repository.ProfessionalRepository
}

func NewService(repo repository.ProfessionalRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProfessional(ctx context.Context, req *model.CreateProfessionalRequest) (*model.Professional, error) {
	professional := &model.Professional{
		Name:   req.Name,
		Active: true,
	}
	if err := s.repo.Create(ctx, professional); err != nil {
		return nil, fmt.Errorf("failed to create professional: %w", err)
	}
	return professional, nil
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateProfessional(ctx context.Context, id uuid.UUID, req *model.UpdateProfessionalRequest) (*model.Professional, error) {
	professional, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		professional.Name = *req.Name
	}
	if req.Active != nil {
		professional.Active = *req.Active
	}
	if err := s.repo.Update(ctx, professional); err != nil {
		return nil, fmt.Errorf("failed to update professional: %w", err)
	}
	return professional, nil
}

func (s *Service) ListProfessionals(ctx context.Context) ([]*model.Professional, error) {
	return s.repo.List(ctx)
}
