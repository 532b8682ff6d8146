// Package domain contains core types for clinics and their doctors.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Clinic is a veterinary practice. Every appointment, receipt and staff
// account is scoped to exactly one clinic.
type Clinic struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Slug      string            `gorm:"not null;uniqueIndex" json:"slug"`
	Address   string            `gorm:"type:text" json:"address,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Email     string            `json:"email,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Clinic) TableName() string { return "clinics" }

// Doctor is a veterinarian attached to a clinic.
type Doctor struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ClinicID  snowflake.ID `gorm:"not null;index" json:"clinic_id"`
	Name      string       `gorm:"not null" json:"name"`
	Specialty string       `json:"specialty,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Email     string       `json:"email,omitempty"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Doctor) TableName() string { return "doctors" }

// FormField is a clinic-defined intake question shown on the booking form.
type FormField struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ClinicID  snowflake.ID `gorm:"not null;index" json:"clinic_id"`
	Label     string       `gorm:"not null" json:"label"`
	FieldType string       `gorm:"not null;default:'text'" json:"field_type"`
	Required  bool         `gorm:"not null;default:false" json:"required"`
	Position  int          `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FormField) TableName() string { return "form_fields" }
