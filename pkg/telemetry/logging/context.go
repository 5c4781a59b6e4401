package logging

import (
	"context"
	"log/slog"
)

// Context keys for request-scoped log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ChatIDKey is the context key for chat completion IDs.
	ChatIDKey contextKey = "chat_id"

	// AccountKey is the context key for the serving account name.
	AccountKey contextKey = "account"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithChatID adds a chat completion ID to the context.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, ChatIDKey, chatID)
}

// GetChatID retrieves the chat completion ID from the context.
func GetChatID(ctx context.Context) string {
	v, _ := ctx.Value(ChatIDKey).(string)
	return v
}

// WithAccount adds the serving account name to the context.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// GetAccount retrieves the serving account name from the context.
func GetAccount(ctx context.Context) string {
	v, _ := ctx.Value(AccountKey).(string)
	return v
}

// contextHandler adds request-scoped fields from the context to each
// record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := GetRequestID(ctx); v != "" {
		r.AddAttrs(slog.String(string(RequestIDKey), v))
	}
	if v := GetChatID(ctx); v != "" {
		r.AddAttrs(slog.String(string(ChatIDKey), v))
	}
	if v := GetAccount(ctx); v != "" {
		r.AddAttrs(slog.String(string(AccountKey), v))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
