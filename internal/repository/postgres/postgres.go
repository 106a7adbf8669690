package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/procexaiedu/practice-scheduler/internal/repository"
)

type clinicRepository struct {
	db *sqlx.DB
}

type professionalRepository struct {
	db *sqlx.DB
}

type operatingHoursRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{db: db}
}

func NewProfessionalRepository(db *sqlx.DB) repository.ProfessionalRepository {
	return &professionalRepository{db: db}
}

func NewOperatingHoursRepository(db *sqlx.DB) repository.OperatingHoursRepository {
	return &operatingHoursRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
