// Package domain contains core types for authentication.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User is a pet owner account. Owners sign in with their phone number
// and a one-time code; a password is optional.
type User struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	ClinicID     snowflake.ID      `gorm:"not null;index:idx_users_clinic_phone,unique" json:"clinic_id"`
	Phone        string            `gorm:"not null;index:idx_users_clinic_phone,unique" json:"phone"`
	Name         string            `gorm:"not null" json:"name"`
	Email        string            `json:"email,omitempty"`
	PasswordHash *string           `gorm:"type:text" json:"-"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Staff is a clinic employee account.
type Staff struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ClinicID     snowflake.ID `gorm:"not null;index" json:"clinic_id"`
	Username     string       `gorm:"type:text;not null;uniqueIndex" json:"username"`
	Name         string       `gorm:"not null" json:"name"`
	Email        string       `json:"email,omitempty"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Role         StaffRole    `gorm:"not null;default:'staff'" json:"role"`
	Active       bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }

// StaffRole controls what clinic operations a staff account may perform.
type StaffRole string

const (
	RoleOwner StaffRole = "owner"
	RoleAdmin StaffRole = "admin"
	RoleStaff StaffRole = "staff"
)

// SubjectType distinguishes staff sessions from owner sessions.
type SubjectType string

const (
	SubjectStaff SubjectType = "staff"
	SubjectUser  SubjectType = "user"
)

// Session is a persisted login session. Only the SHA-256 hash of the
// bearer token is stored.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	SubjectType      SubjectType  `gorm:"column:subject_type;not null"`
	SubjectID        snowflake.ID `gorm:"column:subject_id;not null;index"`
	ClinicID         snowflake.ID `gorm:"column:clinic_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }

// Principal identifies the authenticated caller of a request.
type Principal struct {
	Type     SubjectType
	ID       snowflake.ID
	ClinicID snowflake.ID
	Role     StaffRole
	Name     string
}
