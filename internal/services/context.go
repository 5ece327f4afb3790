package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	sourceKey    contextKey = "source"
	protocolKey  contextKey = "protocol"
)

// WithSessionID annotates context with the probing session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSource annotates context with the raw source URL being probed.
func WithSource(ctx context.Context, source string) context.Context {
	if source == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, source)
}

// SourceFromContext returns the source URL if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithProtocol annotates context with the protocol candidate under test.
func WithProtocol(ctx context.Context, protocol string) context.Context {
	if protocol == "" {
		return ctx
	}
	return context.WithValue(ctx, protocolKey, protocol)
}

// ProtocolFromContext returns the protocol name if present.
func ProtocolFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(protocolKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
