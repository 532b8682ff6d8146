package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, clinic *Clinic) error
	Update(ctx context.Context, db *gorm.DB, clinic *Clinic) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Clinic, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Clinic, error)
	List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*Clinic, error)

	InsertDoctor(ctx context.Context, db *gorm.DB, doctor *Doctor) error
	UpdateDoctor(ctx context.Context, db *gorm.DB, doctor *Doctor) error
	FindDoctorByID(ctx context.Context, db *gorm.DB, clinicID, id snowflake.ID) (*Doctor, error)
	ListDoctors(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, activeOnly bool, page pagination.Pagination) ([]*Doctor, error)

	ListFormFields(ctx context.Context, db *gorm.DB, clinicID snowflake.ID) ([]FormField, error)
	DeleteFormFields(ctx context.Context, db *gorm.DB, clinicID snowflake.ID) error
	InsertFormField(ctx context.Context, db *gorm.DB, field *FormField) error
}
