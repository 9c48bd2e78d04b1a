package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	ipAddressKey contextKey = "ip_address"
	userAgentKey contextKey = "user_agent"
	actorKey     contextKey = "actor"
)

// Actor is the authenticated principal performing a request.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// WithRequestContext adds request metadata to the context.
func WithRequestContext(ctx context.Context, requestID, ipAddress, userAgent string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	ctx = context.WithValue(ctx, ipAddressKey, ipAddress)
	ctx = context.WithValue(ctx, userAgentKey, userAgent)
	return ctx
}

// WithActor adds the authenticated actor to the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// RequestID retrieves the request ID from context.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey).(string)
	return s
}

// IPAddress retrieves the client IP address from context.
func IPAddress(ctx context.Context) string {
	s, _ := ctx.Value(ipAddressKey).(string)
	return s
}

// UserAgent retrieves the user agent from context.
func UserAgent(ctx context.Context) string {
	s, _ := ctx.Value(userAgentKey).(string)
	return s
}

// ActorFrom retrieves the actor from context.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// Performer returns the acting user's email, or "system" for unauthenticated work.
func Performer(ctx context.Context) string {
	if a, ok := ActorFrom(ctx); ok && a.Email != "" {
		return a.Email
	}
	return "system"
}
