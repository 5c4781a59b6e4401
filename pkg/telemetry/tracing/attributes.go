package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on gateway spans.
const (
	AttrAccount         = attribute.Key("bizbridge.account")
	AttrModel           = attribute.Key("bizbridge.model")
	AttrChatID          = attribute.Key("bizbridge.chat_id")
	AttrStream          = attribute.Key("bizbridge.stream")
	AttrSessionHit      = attribute.Key("bizbridge.session.cache_hit")
	AttrOperation       = attribute.Key("bizbridge.upstream.operation")
	AttrStatusCode      = attribute.Key("http.response.status_code")
	AttrImageCount      = attribute.Key("bizbridge.images")
	AttrFragments       = attribute.Key("bizbridge.fragments")
	AttrArtifactRetried = attribute.Key("bizbridge.artifact.retried")
)

// SetAccount records which account served the span's work.
func SetAccount(span trace.Span, account string) {
	span.SetAttributes(AttrAccount.String(account))
}

// SetCompletionAttributes records the request-level attributes of a turn.
func SetCompletionAttributes(span trace.Span, chatID, model string, stream bool) {
	span.SetAttributes(
		AttrChatID.String(chatID),
		AttrModel.String(model),
		AttrStream.Bool(stream),
	)
}

// UpstreamCall returns the start options for a backend call span.
func UpstreamCall(op, account string) trace.SpanStartOption {
	return trace.WithAttributes(
		AttrOperation.String(op),
		AttrAccount.String(account),
	)
}

// AddEvent records a point-in-time event on span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
