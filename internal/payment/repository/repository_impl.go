package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/payment/domain"
	"github.com/perly101/purrfectpaw/pkg/db/option"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) NextSequenceNo(ctx context.Context, tx *gorm.DB, year int) (int, error) {
	var next int
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(sequence_no), 0) + 1
		 FROM receipts
		 WHERE year = ?`,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, receipt *domain.Receipt) error {
	return tx.WithContext(ctx).Create(receipt).Error
}

func (r *repo) FindByAppointment(ctx context.Context, conn *gorm.DB, appointmentID snowflake.ID) (*domain.Receipt, error) {
	var receipt domain.Receipt
	err := conn.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&receipt).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, clinicID snowflake.ID, filter domain.ListReceiptFilter, page pagination.Pagination) ([]*domain.Receipt, error) {
	stmt := conn.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("clinic_id = ?", clinicID)
	if filter.From != nil {
		stmt = stmt.Where("payment_date >= ?", *filter.From)
	}
	if filter.To != nil {
		stmt = stmt.Where("payment_date < ?", *filter.To)
	}
	if filter.Method != "" {
		stmt = stmt.Where("payment_method = ?", filter.Method)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	var receipts []*domain.Receipt
	if err := stmt.Order("created_at desc, id desc").Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *repo) ListInWindow(ctx context.Context, conn *gorm.DB, clinicID snowflake.ID, start, end time.Time) ([]domain.Receipt, error) {
	var receipts []domain.Receipt
	err := conn.WithContext(ctx).
		Where("clinic_id = ? AND payment_date >= ? AND payment_date < ?", clinicID, start, end).
		Order("payment_date asc, id asc").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
