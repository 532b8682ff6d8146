// Package auditcontext carries request attributes picked up by audit entries.
package auditcontext

import "context"

type contextKey string

const (
	ipAddressKey     contextKey = "audit_ip_address"
	userAgentKey     contextKey = "audit_user_agent"
	requestIDKey     contextKey = "audit_request_id"
	appointmentIDKey contextKey = "audit_appointment_id"
)

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey, ip)
}

func IPAddressFromContext(ctx context.Context) string {
	value, _ := ctx.Value(ipAddressKey).(string)
	return value
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func UserAgentFromContext(ctx context.Context) string {
	value, _ := ctx.Value(userAgentKey).(string)
	return value
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithAppointmentID(ctx context.Context, appointmentID string) context.Context {
	return context.WithValue(ctx, appointmentIDKey, appointmentID)
}

func AppointmentIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(appointmentIDKey).(string)
	return value
}
