package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListReceiptFilter struct {
	From   *time.Time
	To     *time.Time
	Method string
}

type Repository interface {
	// NextSequenceNo returns max(sequence_no)+1 for the calendar year.
	NextSequenceNo(ctx context.Context, tx *gorm.DB, year int) (int, error)
	Insert(ctx context.Context, tx *gorm.DB, receipt *Receipt) error
	FindByAppointment(ctx context.Context, db *gorm.DB, appointmentID snowflake.ID) (*Receipt, error)
	List(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, filter ListReceiptFilter, page pagination.Pagination) ([]*Receipt, error)
	ListInWindow(ctx context.Context, db *gorm.DB, clinicID snowflake.ID, start, end time.Time) ([]Receipt, error)
}
