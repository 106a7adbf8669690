package hours

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
)

// Service administers weekly templates and date overrides. Overlap rejection
// happens in the repository, at write time.
type Service struct {
	repo    repository.OperatingHoursRepository
	clinics repository.ClinicRepository
	loc     *time.Location
}

func NewService(repo repository.OperatingHoursRepository, clinics repository.ClinicRepository, loc *time.Location) *Service {
	return &Service{repo: repo, clinics: clinics, loc: loc}
}

func (s *Service) CreateWeeklyRule(ctx context.Context, clinicID uuid.UUID, req *model.CreateWeeklyHoursRequest) (*model.WeeklyHoursRule, error) {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		return nil, err
	}

	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid start time", err)
	}
	end, err := model.ParseTimeOfDay(req.End)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid end time", err)
	}

	rule := &model.WeeklyHoursRule{
		ClinicID: clinicID,
		Weekday:  time.Weekday(req.Weekday),
		Start:    start,
		End:      end,
	}
	if err := s.repo.CreateWeeklyRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) ListWeeklyRules(ctx context.Context, clinicID uuid.UUID) ([]model.WeeklyHoursRule, error) {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.repo.ListWeeklyRules(ctx, clinicID)
}

func (s *Service) DeleteWeeklyRule(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteWeeklyRule(ctx, id)
}

func (s *Service) CreateOverride(ctx context.Context, clinicID uuid.UUID, req *model.CreateHoursOverrideRequest) (*model.HoursOverride, error) {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		return nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid date, expected YYYY-MM-DD", err)
	}

	override := &model.HoursOverride{
		ClinicID: clinicID,
		Date:     date,
		Blocked:  req.Blocked,
		Reason:   req.Reason,
	}
	if req.Start != nil {
		start, err := model.ParseTimeOfDay(*req.Start)
		if err != nil {
			return nil, apperrors.NewInvalidRequest("invalid start time", err)
		}
		override.Start = &start
	}
	if req.End != nil {
		end, err := model.ParseTimeOfDay(*req.End)
		if err != nil {
			return nil, apperrors.NewInvalidRequest("invalid end time", err)
		}
		override.End = &end
	}

	if err := s.repo.CreateOverride(ctx, override); err != nil {
		return nil, err
	}
	return override, nil
}

func (s *Service) ListOverrides(ctx context.Context, clinicID uuid.UUID, date string) ([]model.HoursOverride, error) {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	parsed, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, apperrors.NewInvalidRequest("invalid date, expected YYYY-MM-DD", err)
	}
	overrides, err := s.repo.ListOverrides(ctx, clinicID, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func (s *Service) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteOverride(ctx, id)
}
