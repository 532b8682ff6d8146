package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	clinicIDKey  contextKey = "clinic_id"
	actorTypeKey contextKey = "actor_type"
	actorIDKey   contextKey = "actor_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithClinicID(ctx context.Context, clinicID string) context.Context {
	return context.WithValue(ctx, clinicIDKey, clinicID)
}

func ClinicIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(clinicIDKey).(string)
	return value
}

func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	return context.WithValue(ctx, actorIDKey, actorID)
}

func ActorFromContext(ctx context.Context) (string, string) {
	actorType, _ := ctx.Value(actorTypeKey).(string)
	actorID, _ := ctx.Value(actorIDKey).(string)
	return actorType, actorID
}
