// Package domain contains core types for one-time login codes.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/perly101/purrfectpaw/internal/auth/domain"
)

// OTPCode is a single-use login code. Only the SHA-256 hash of the
// code is stored.
type OTPCode struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ClinicID   snowflake.ID `gorm:"not null;index" json:"clinic_id"`
	Phone      string       `gorm:"not null;index" json:"phone"`
	CodeHash   string       `gorm:"column:code_hash;type:text;not null" json:"-"`
	Attempts   int          `gorm:"not null;default:0" json:"attempts"`
	ExpiresAt  time.Time    `gorm:"column:expires_at;not null" json:"expires_at"`
	ConsumedAt *time.Time   `gorm:"column:consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OTPCode) TableName() string { return "otp_codes" }

type IssueRequest struct {
	Phone string
	Name  string
}

type VerifyRequest struct {
	Phone     string
	Code      string
	Name      string
	UserAgent string
	IPAddress string
}

type Service interface {
	// Issue generates and texts a login code to the owner's phone.
	Issue(context.Context, IssueRequest) error

	// Verify consumes a valid code and returns an owner session.
	Verify(context.Context, VerifyRequest) (authdomain.LoginResponse, error)
}

var (
	ErrInvalidPhone    = errors.New("invalid_phone")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrCodeExpired     = errors.New("code_expired")
	ErrTooManyAttempts = errors.New("too_many_attempts")
	ErrRateLimited     = errors.New("rate_limited")
	ErrInvalidClinic   = errors.New("invalid_clinic")
	ErrSendFailed      = errors.New("send_failed")
)
