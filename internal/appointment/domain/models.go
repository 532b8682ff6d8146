// Package domain contains core types for the appointment lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Appointment is a booking with lifecycle and payment sub-state.
// OwnerName and OwnerPhone are display fields only; ownership checks go
// through UserID and ClinicID exclusively.
type Appointment struct {
	ID       snowflake.ID  `gorm:"primaryKey" json:"id"`
	ClinicID snowflake.ID  `gorm:"not null;index" json:"clinic_id"`
	UserID   *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	DoctorID *snowflake.ID `gorm:"index" json:"doctor_id,omitempty"`

	OwnerName  string `gorm:"not null" json:"owner_name"`
	OwnerPhone string `gorm:"not null" json:"owner_phone"`
	PetName    string `json:"pet_name,omitempty"`
	Service    string `gorm:"not null" json:"service"`

	AppointmentDate time.Time `gorm:"column:appointment_date;type:date;not null;index" json:"appointment_date"`
	AppointmentTime string    `gorm:"column:appointment_time;not null" json:"appointment_time"`

	Status        Status        `gorm:"not null;default:'pending';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"column:payment_status;not null;default:'unpaid'" json:"payment_status"`
	Amount        *int64        `json:"amount,omitempty"`
	PaymentMethod *string       `gorm:"column:payment_method" json:"payment_method,omitempty"`
	ReceiptNumber *string       `gorm:"column:receipt_number;uniqueIndex" json:"receipt_number,omitempty"`
	PaymentDate   *time.Time    `gorm:"column:payment_date" json:"payment_date,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Appointment) TableName() string { return "appointments" }

// FieldResponse is an answer to a clinic-defined intake question. The
// value is opaque to the lifecycle logic and echoed back as submitted.
type FieldResponse struct {
	ID            snowflake.ID   `gorm:"primaryKey" json:"id"`
	ClinicID      snowflake.ID   `gorm:"not null;index" json:"clinic_id"`
	AppointmentID snowflake.ID   `gorm:"not null;index" json:"appointment_id"`
	FieldID       snowflake.ID   `gorm:"not null" json:"field_id"`
	Label         string         `gorm:"not null" json:"label"`
	Value         datatypes.JSON `gorm:"type:jsonb" json:"value"`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FieldResponse) TableName() string { return "field_responses" }
