package availability

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procexaiedu/practice-scheduler/internal/model"
	"github.com/procexaiedu/practice-scheduler/internal/repository"
	"github.com/procexaiedu/practice-scheduler/internal/schedule"
	apperrors "github.com/procexaiedu/practice-scheduler/pkg/errors"
	"github.com/procexaiedu/practice-scheduler/pkg/logger"
)

type clinicRepoStub struct {
	clinics map[uuid.UUID]*model.Clinic
}

func (s *clinicRepoStub) Create(ctx context.Context, clinic *model.Clinic) error { return nil }
func (s *clinicRepoStub) Update(ctx context.Context, clinic *model.Clinic) error { return nil }
func (s *clinicRepoStub) List(ctx context.Context) ([]*model.Clinic, error)      { return nil, nil }
func (s *clinicRepoStub) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	if c, ok := s.clinics[id]; ok {
		return c, nil
	}
	return nil, apperrors.NewNotFound("clinic", nil)
}

type professionalRepoStub struct {
	professionals map[uuid.UUID]*model.Professional
}

func (s *professionalRepoStub) Create(ctx context.Context, p *model.Professional) error { return nil }
func (s *professionalRepoStub) Update(ctx context.Context, p *model.Professional) error { return nil }
func (s *professionalRepoStub) List(ctx context.Context) ([]*model.Professional, error) {
	return nil, nil
}
func (s *professionalRepoStub) Get(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	if p, ok := s.professionals[id]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFound("professional", nil)
}

type hoursRepoStub struct {
	weekly    []model.WeeklyHoursRule
	overrides []model.HoursOverride
}

func (s *hoursRepoStub) CreateWeeklyRule(ctx context.Context, rule *model.WeeklyHoursRule) error {
	return nil
}
func (s *hoursRepoStub) ListWeeklyRules(ctx context.Context, clinicID uuid.UUID) ([]model.WeeklyHoursRule, error) {
	var out []model.WeeklyHoursRule
	for _, r := range s.weekly {
		if r.ClinicID == clinicID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (s *hoursRepoStub) DeleteWeeklyRule(ctx context.Context, id uuid.UUID) error { return nil }
func (s *hoursRepoStub) CreateOverride(ctx context.Context, o *model.HoursOverride) error {
	return nil
}
func (s *hoursRepoStub) ListOverrides(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]model.HoursOverride, error) {
	var out []model.HoursOverride
	for _, o := range s.overrides {
		if o.ClinicID == clinicID && o.Date.Year() == date.Year() && o.Date.YearDay() == date.YearDay() {
			out = append(out, o)
		}
	}
	return out, nil
}
func (s *hoursRepoStub) DeleteOverride(ctx context.Context, id uuid.UUID) error { return nil }

type appointmentRepoStub struct {
	appointments []*model.Appointment
}

func (s *appointmentRepoStub) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NewNotFound("appointment", nil)
}
func (s *appointmentRepoStub) List(ctx context.Context, f *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (s *appointmentRepoStub) ListByProfessional(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range s.appointments {
		if a.ProfessionalID == professionalID && a.StartTime.Before(to) && a.EndTime().After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *appointmentRepoStub) UpdateStatus(ctx context.Context, a *model.Appointment, e *model.OutboxEvent) error {
	return nil
}
func (s *appointmentRepoStub) Book(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	return nil
}

type fixture struct {
	svc     *Service
	clinicC uuid.UUID
	clinicD uuid.UUID
	prof    uuid.UUID
	appts   *appointmentRepoStub
	hours   *hoursRepoStub
	monday  time.Time
}

func quietLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clinicC := uuid.New()
	clinicD := uuid.New()
	prof := uuid.New()

	start, err := model.ParseTimeOfDay("08:00")
	require.NoError(t, err)
	end, err := model.ParseTimeOfDay("12:00")
	require.NoError(t, err)

	hours := &hoursRepoStub{
		weekly: []model.WeeklyHoursRule{{
			Base:     model.Base{ID: uuid.New()},
			ClinicID: clinicC,
			Weekday:  time.Monday,
			Start:    start,
			End:      end,
		}},
	}
	appts := &appointmentRepoStub{}

	svc := NewService(
		&clinicRepoStub{clinics: map[uuid.UUID]*model.Clinic{
			clinicC: {Base: model.Base{ID: clinicC}, Name: "Central", Active: true},
			clinicD: {Base: model.Base{ID: clinicD}, Name: "Downtown", Active: true},
		}},
		&professionalRepoStub{professionals: map[uuid.UUID]*model.Professional{
			prof: {Base: model.Base{ID: prof}, Name: "Dr. Silva", Active: true},
		}},
		hours,
		appts,
		time.UTC,
		30*time.Minute,
		quietLogger(),
		nil,
	)

	return &fixture{
		svc:     svc,
		clinicC: clinicC,
		clinicD: clinicD,
		prof:    prof,
		appts:   appts,
		hours:   hours,
		monday:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) at(clock string) time.Time {
	parsed, _ := time.Parse("15:04", clock)
	return time.Date(f.monday.Year(), f.monday.Month(), f.monday.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func TestListFreeSlotsFullGrid(t *testing.T) {
	f := newFixture(t)

	slots, err := f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)

	want := []string{"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	require.Len(t, slots, len(want))
	for i, clock := range want {
		assert.Equal(t, f.at(clock), slots[i])
	}
}

func TestListFreeSlotsExcludesBookedAnywhere(t *testing.T) {
	f := newFixture(t)

	// An existing booking at a different clinic still blocks the slot: the
	// professional cannot be in two places.
	f.appts.appointments = []*model.Appointment{{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       f.clinicD,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("09:00"),
		DurationMin:    30,
		Status:         model.AppointmentStatusScheduled,
	}}

	slots, err := f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)
	assert.NotContains(t, slots, f.at("09:00"))
	assert.Contains(t, slots, f.at("09:30"))
	assert.Contains(t, slots, f.at("08:30"))
}

func TestListFreeSlotsClosedDayIsEmptyNotError(t *testing.T) {
	f := newFixture(t)

	// Tuesday has no weekly rule.
	tuesday := f.monday.AddDate(0, 0, 1)
	slots, err := f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, tuesday, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)

	// A full-day blocked override beats the weekly template.
	f.hours.overrides = []model.HoursOverride{{
		Base:     model.Base{ID: uuid.New()},
		ClinicID: f.clinicC,
		Date:     f.monday,
		Blocked:  true,
		Reason:   "holiday",
	}}
	slots, err = f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestListFreeSlotsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)
	second, err := f.svc.ListFreeSlots(context.Background(), f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListFreeSlotsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListFreeSlots(ctx, f.clinicC, f.prof, f.monday, 0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidRequest))

	_, err = f.svc.ListFreeSlots(ctx, f.clinicC, f.prof, f.monday, -15)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidRequest))

	_, err = f.svc.ListFreeSlots(ctx, uuid.New(), f.prof, f.monday, 30)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	_, err = f.svc.ListFreeSlots(ctx, f.clinicC, uuid.New(), f.monday, 30)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}

func TestCheckExactVerdicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Existing booking at the other clinic, 09:00-09:30.
	f.appts.appointments = []*model.Appointment{{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       f.clinicD,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("09:00"),
		DurationMin:    30,
		Status:         model.AppointmentStatusScheduled,
	}}

	verdict, ids, err := f.svc.CheckExact(ctx, &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("09:00"),
		DurationMin:    30,
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.VerdictOtherClinic, verdict)
	assert.Len(t, ids, 1)

	// Back-to-back with the existing booking is free.
	verdict, _, err = f.svc.CheckExact(ctx, &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("09:30"),
		DurationMin:    30,
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.VerdictNone, verdict)
}

func TestCheckExactOffGridTimeIsJudgedExactly(t *testing.T) {
	f := newFixture(t)

	// 08:05 is not on the 30 minute grid but fits the open interval.
	verdict, _, err := f.svc.CheckExact(context.Background(), &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("08:05"),
		DurationMin:    25,
	})
	require.NoError(t, err)
	assert.Equal(t, schedule.VerdictNone, verdict)

	// 11:45 + 30 minutes spills past closing.
	_, _, err = f.svc.CheckExact(context.Background(), &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("11:45"),
		DurationMin:    30,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrClosed))
}

func TestCheckExactClosedDay(t *testing.T) {
	f := newFixture(t)

	tuesday := f.monday.AddDate(0, 0, 1)
	_, _, err := f.svc.CheckExact(context.Background(), &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      time.Date(tuesday.Year(), tuesday.Month(), tuesday.Day(), 9, 0, 0, 0, time.UTC),
		DurationMin:    30,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrClosed))
}

// Every slot returned by ListFreeSlots must come back clean from CheckExact.
func TestListFreeSlotsAgreesWithCheckExact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.appts.appointments = []*model.Appointment{{
		Base:           model.Base{ID: uuid.New()},
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("10:00"),
		DurationMin:    60,
		Status:         model.AppointmentStatusConfirmed,
	}}

	slots, err := f.svc.ListFreeSlots(ctx, f.clinicC, f.prof, f.monday, 30)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		verdict, _, err := f.svc.CheckExact(ctx, &model.ProposedBooking{
			ClinicID:       f.clinicC,
			ProfessionalID: f.prof,
			PatientID:      uuid.New(),
			StartTime:      slot,
			DurationMin:    30,
		})
		require.NoError(t, err)
		assert.Equal(t, schedule.VerdictNone, verdict, "slot %s", slot)
	}

	// And a grid time absent from the list inside open hours must conflict.
	assert.NotContains(t, slots, f.at("10:00"))
	verdict, _, err := f.svc.CheckExact(ctx, &model.ProposedBooking{
		ClinicID:       f.clinicC,
		ProfessionalID: f.prof,
		PatientID:      uuid.New(),
		StartTime:      f.at("10:00"),
		DurationMin:    30,
	})
	require.NoError(t, err)
	assert.NotEqual(t, schedule.VerdictNone, verdict)
}

func TestInactiveResourcesAreNotFound(t *testing.T) {
	f := newFixture(t)
	inactiveClinic := uuid.New()

	svc := NewService(
		&clinicRepoStub{clinics: map[uuid.UUID]*model.Clinic{
			inactiveClinic: {Base: model.Base{ID: inactiveClinic}, Name: "Shut", Active: false},
		}},
		&professionalRepoStub{professionals: map[uuid.UUID]*model.Professional{
			f.prof: {Base: model.Base{ID: f.prof}, Active: true},
		}},
		f.hours,
		f.appts,
		time.UTC,
		30*time.Minute,
		quietLogger(),
		nil,
	)

	_, err := svc.ListFreeSlots(context.Background(), inactiveClinic, f.prof, f.monday, 30)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
