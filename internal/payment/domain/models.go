// Package domain contains core types for payment settlement.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Receipt is the immutable record of a settled payment. Exactly one
// exists per appointment; nothing in this package updates or deletes
// one after creation.
type Receipt struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ReceiptNumber string       `gorm:"column:receipt_number;not null;uniqueIndex" json:"receipt_number"`
	Year          int          `gorm:"not null;index:idx_receipts_year_seq,unique" json:"year"`
	SequenceNo    int          `gorm:"column:sequence_no;not null;index:idx_receipts_year_seq,unique" json:"sequence_no"`

	AppointmentID snowflake.ID  `gorm:"column:appointment_id;not null;uniqueIndex" json:"appointment_id"`
	ClinicID      snowflake.ID  `gorm:"not null;index" json:"clinic_id"`
	DoctorID      *snowflake.ID `json:"doctor_id,omitempty"`

	PatientName   string    `gorm:"column:patient_name;not null" json:"patient_name"`
	DoctorName    string    `gorm:"column:doctor_name" json:"doctor_name,omitempty"`
	Service       string    `gorm:"not null" json:"service"`
	Amount        int64     `gorm:"not null" json:"amount"`
	PaymentMethod string    `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentDate   time.Time `gorm:"column:payment_date;not null;index" json:"payment_date"`
	ProcessedBy   string    `gorm:"column:processed_by" json:"processed_by,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Receipt) TableName() string { return "receipts" }

// ReceiptView is a receipt with clinic contact info and display
// formatting for the owner-facing read path.
type ReceiptView struct {
	Receipt
	ClinicName      string `json:"clinic_name"`
	ClinicAddress   string `json:"clinic_address,omitempty"`
	ClinicPhone     string `json:"clinic_phone,omitempty"`
	FormattedDate   string `json:"formatted_date"`
	FormattedTime   string `json:"formatted_time"`
	FormattedAmount string `json:"formatted_amount"`
	FormattedMethod string `json:"formatted_method"`
}
