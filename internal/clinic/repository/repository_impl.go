package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/clinic/domain"
	"github.com/perly101/purrfectpaw/pkg/db/option"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, clinic *domain.Clinic) error {
	return db.WithContext(ctx).Create(clinic).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, clinic *domain.Clinic) error {
	return db.WithContext(ctx).Save(clinic).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Clinic, error) {
	var clinic domain.Clinic
	err := db.WithContext(ctx).Where("id = ?", id).First(&clinic).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Clinic, error) {
	var clinic domain.Clinic
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&clinic).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, page pagination.Pagination) ([]*domain.Clinic, error) {
	var clinics []*domain.Clinic
	stmt := db.WithContext(ctx).Model(&domain.Clinic{})
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&clinics).Error; err != nil {
		return nil, err
	}
	return clinics, nil
}

func (r *repo) InsertDoctor(ctx context.Context, db *gorm.DB, doctor *domain.Doctor) error {
	return db.WithContext(ctx).Create(doctor).Error
}

func (r *repo) UpdateDoctor(ctx context.Context, db *gorm.DB, doctor *domain.Doctor) error {
	return db.WithContext(ctx).Save(doctor).Error
}

func (r *repo) FindDoctorByID(ctx context.Context, db *gorm.DB, clinicID, id snowflake.ID) (*domain.Doctor, error) {
	var doctor domain.Doctor
	err := db.WithContext(ctx).
		Where("clinic_id = ? AND id = ?", clinicID, id).
		First(&doctor).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *repo) ListDoctors(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, activeOnly bool, page pagination.Pagination) ([]*domain.Doctor, error) {
	var doctors []*domain.Doctor
	stmt := db.WithContext(ctx).
		Model(&domain.Doctor{}).
		Where("clinic_id = ?", clinicID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *repo) ListFormFields(ctx context.Context, db *gorm.DB, clinicID snowflake.ID) ([]domain.FormField, error) {
	var fields []domain.FormField
	err := db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Order("position asc, id asc").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *repo) DeleteFormFields(ctx context.Context, db *gorm.DB, clinicID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("clinic_id = ?", clinicID).
		Delete(&domain.FormField{}).Error
}

func (r *repo) InsertFormField(ctx context.Context, db *gorm.DB, field *domain.FormField) error {
	return db.WithContext(ctx).Create(field).Error
}
