package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListAppointmentFilter struct {
	Status   Status
	DateFrom *time.Time
	DateTo   *time.Time
	DoctorID snowflake.ID
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, appointment *Appointment) error
	Update(ctx context.Context, db *gorm.DB, appointment *Appointment) error

	// FindByIDForUpdate locks the row for the caller's transaction.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, clinicID, id snowflake.ID) (*Appointment, error)
	// FindByIDForUserForUpdate is the owner-scoped locked read: the row
	// must carry the exact user_id.
	FindByIDForUserForUpdate(ctx context.Context, tx *gorm.DB, userID, id snowflake.ID) (*Appointment, error)
	FindByID(ctx context.Context, db *gorm.DB, clinicID, id snowflake.ID) (*Appointment, error)
	FindByIDForUser(ctx context.Context, db *gorm.DB, userID, id snowflake.ID) (*Appointment, error)

	ListByClinic(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, filter ListAppointmentFilter, page pagination.Pagination) ([]*Appointment, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, filter ListAppointmentFilter, page pagination.Pagination) ([]*Appointment, error)

	InsertFieldResponses(ctx context.Context, db *gorm.DB, responses []FieldResponse) error
	ListFieldResponses(ctx context.Context, db *gorm.DB, appointmentID snowflake.ID) ([]FieldResponse, error)
}
