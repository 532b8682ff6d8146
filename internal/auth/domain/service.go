package domain

import (
	"context"
	"time"
)

type StaffLoginRequest struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type IssueUserSessionRequest struct {
	UserID    string
	UserAgent string
	IPAddress string
}

type Service interface {
	// StaffLogin verifies staff credentials and issues a session token.
	StaffLogin(context.Context, StaffLoginRequest) (LoginResponse, error)

	// IssueUserSession creates a session for an owner whose phone was
	// already verified, e.g. by the OTP flow.
	IssueUserSession(context.Context, IssueUserSessionRequest) (LoginResponse, error)

	// Authenticate resolves a bearer token to its principal.
	Authenticate(ctx context.Context, token string) (Principal, error)

	// Logout revokes the session behind the token. Unknown tokens are
	// not an error.
	Logout(ctx context.Context, token string) error

	// FindOrCreateUser returns the owner account for a clinic-scoped
	// phone number, creating one when none exists.
	FindOrCreateUser(ctx context.Context, phone, name string) (User, error)

	// CreateStaff registers a staff account for the active clinic.
	CreateStaff(ctx context.Context, req CreateStaffRequest) (Staff, error)
}

type CreateStaffRequest struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     StaffRole
}
