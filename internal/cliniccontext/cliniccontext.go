package cliniccontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ClinicContextKey is the request context key for the active clinic ID.
type ClinicContextKey struct{}

// UserContextKey is the request context key for the authenticated pet
// owner, when the caller is an owner rather than clinic staff.
type UserContextKey struct{}

// StaffContextKey is the request context key for the authenticated staff
// member, when the caller is clinic staff.
type StaffContextKey struct{}

// WithClinicID stores the clinic ID in the context.
func WithClinicID(ctx context.Context, clinicID snowflake.ID) context.Context {
	return context.WithValue(ctx, ClinicContextKey{}, clinicID)
}

// ClinicIDFromContext returns the clinic ID from context, if set.
func ClinicIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(ClinicContextKey{}).(type) {
	case int64:
		return snowflake.ID(typed), true
	case snowflake.ID:
		return typed, true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// WithUserID stores the authenticated owner's user ID in the context.
func WithUserID(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, UserContextKey{}, userID)
}

// UserIDFromContext returns the authenticated owner's user ID, if set.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	typed, ok := ctx.Value(UserContextKey{}).(snowflake.ID)
	if !ok || typed == 0 {
		return 0, false
	}
	return typed, true
}

// WithStaffID stores the authenticated staff ID in the context.
func WithStaffID(ctx context.Context, staffID snowflake.ID) context.Context {
	return context.WithValue(ctx, StaffContextKey{}, staffID)
}

// StaffIDFromContext returns the authenticated staff ID, if set.
func StaffIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	typed, ok := ctx.Value(StaffContextKey{}).(snowflake.ID)
	if !ok || typed == 0 {
		return 0, false
	}
	return typed, true
}
