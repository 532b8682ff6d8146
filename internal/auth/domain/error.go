package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidClinic      = errors.New("invalid_clinic")
	ErrInvalidPhone       = errors.New("invalid_phone")
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrSessionExpired     = errors.New("session_expired")
	ErrStaffDisabled      = errors.New("staff_disabled")
)
