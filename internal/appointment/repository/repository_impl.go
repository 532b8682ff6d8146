package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/appointment/domain"
	"github.com/perly101/purrfectpaw/pkg/db"
	"github.com/perly101/purrfectpaw/pkg/db/option"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, appointment *domain.Appointment) error {
	return conn.WithContext(ctx).Create(appointment).Error
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, appointment *domain.Appointment) error {
	return conn.WithContext(ctx).Save(appointment).Error
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, clinicID, id snowflake.ID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := db.ForUpdate(tx.WithContext(ctx)).
		Where("clinic_id = ? AND id = ?", clinicID, id).
		First(&appointment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) FindByIDForUserForUpdate(ctx context.Context, tx *gorm.DB, userID, id snowflake.ID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := db.ForUpdate(tx.WithContext(ctx)).
		Where("user_id = ? AND id = ?", userID, id).
		First(&appointment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, clinicID, id snowflake.ID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := conn.WithContext(ctx).
		Where("clinic_id = ? AND id = ?", clinicID, id).
		First(&appointment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) FindByIDForUser(ctx context.Context, conn *gorm.DB, userID, id snowflake.ID) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := conn.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&appointment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *repo) ListByClinic(ctx context.Context, conn *gorm.DB, clinicID snowflake.ID, filter domain.ListAppointmentFilter, page pagination.Pagination) ([]*domain.Appointment, error) {
	stmt := conn.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("clinic_id = ?", clinicID)
	return r.list(stmt, filter, page)
}

func (r *repo) ListByUser(ctx context.Context, conn *gorm.DB, userID snowflake.ID, filter domain.ListAppointmentFilter, page pagination.Pagination) ([]*domain.Appointment, error) {
	// Ownership is the user_id column and nothing else.
	stmt := conn.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("user_id = ?", userID)
	return r.list(stmt, filter, page)
}

func (r *repo) list(stmt *gorm.DB, filter domain.ListAppointmentFilter, page pagination.Pagination) ([]*domain.Appointment, error) {
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		stmt = stmt.Where("appointment_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		stmt = stmt.Where("appointment_date <= ?", *filter.DateTo)
	}
	if filter.DoctorID != 0 {
		stmt = stmt.Where("doctor_id = ?", filter.DoctorID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var appointments []*domain.Appointment
	if err := stmt.Order("created_at desc, id desc").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *repo) InsertFieldResponses(ctx context.Context, conn *gorm.DB, responses []domain.FieldResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(&responses).Error
}

func (r *repo) ListFieldResponses(ctx context.Context, conn *gorm.DB, appointmentID snowflake.ID) ([]domain.FieldResponse, error) {
	var responses []domain.FieldResponse
	err := conn.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at asc, id asc").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}
