package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bizbridge/gateway/pkg/orchestrator"
	"bizbridge/gateway/pkg/proxy"
	"bizbridge/gateway/pkg/proxy/types"
	"bizbridge/gateway/pkg/telemetry/metrics"
)

const (
	modeBlocking = "blocking"
	modeStream   = "stream"

	// unknownModel labels requests whose model could not be resolved.
	unknownModel = "unknown"
)

// ChatOptions configures a ChatHandler.
type ChatOptions struct {
	// MaxBodyBytes caps the request body. Zero selects
	// proxy.DefaultMaxRequestBodySize.
	MaxBodyBytes int64

	Metrics *metrics.Collector
	Logger  *slog.Logger
	Now     func() time.Time
}

// ChatHandler serves POST /v1/chat/completions.
type ChatHandler struct {
	completer Completer
	maxBody   int64
	metrics   *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewChatHandler creates a chat completion handler.
func NewChatHandler(completer Completer, opts ChatOptions) *ChatHandler {
	h := &ChatHandler{
		completer: completer,
		maxBody:   opts.MaxBodyBytes,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := h.now()

	chatReq, err := proxy.ParseChatCompletionRequest(r, h.maxBody)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected chat completion request", "error", err)
		h.fail(w, r, err, unknownModel, modeBlocking, start)
		return
	}

	mode := modeBlocking
	if chatReq.Stream {
		mode = modeStream
	}

	// Unknown models are reported before any stream is opened.
	if _, err := h.completer.ResolveModel(chatReq.Model); err != nil {
		h.fail(w, r, err, unknownModel, mode, start)
		return
	}

	// A turn is bounded by the upstream client timeouts, which can add up
	// to more than the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	req := proxy.ToOrchestratorRequest(chatReq)

	h.logger.DebugContext(ctx, "processing chat completion request",
		"model", req.Model,
		"messages", len(req.Messages),
		"stream", req.Stream,
	)

	if req.Stream {
		h.stream(w, r, req, start)
		return
	}

	res, err := h.completer.Complete(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "chat completion failed", "model", req.Model, "error", err)
		h.fail(w, r, err, req.Model, mode, start)
		return
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, proxy.FormatChatCompletionResponse(res)); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
	h.metrics.RecordRequest(req.Model, mode, strconv.Itoa(http.StatusOK), h.now().Sub(start))
}

// stream answers as Server-Sent Events. The role chunk is sent before the
// turn runs so clients see the response open immediately; content follows
// once the turn completes. Failures after the headers are sent become an
// error event followed by [DONE].
func (h *ChatHandler) stream(w http.ResponseWriter, r *http.Request, req *orchestrator.Request, start time.Time) {
	ctx := r.Context()
	req.ChatID = orchestrator.NewChatID()
	created := h.now().Unix()

	proxy.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := proxy.WriteSSEChunk(w, proxy.NewStreamChunk(req.ChatID, created, req.Model, types.Delta{Role: "assistant"}, "")); err != nil {
		h.logger.WarnContext(ctx, "client went away before the turn started", "error", err)
		return
	}

	res, err := h.completer.Complete(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "streaming chat completion failed", "model", req.Model, "error", err)
		errResp := proxy.HandleError(err)
		if werr := proxy.WriteSSEError(w, errResp); werr != nil {
			h.logger.WarnContext(ctx, "failed to write SSE error", "error", werr)
		}
		_ = proxy.WriteSSEDone(w)
		h.metrics.RecordRequest(req.Model, modeStream, strconv.Itoa(errResp.Error.HTTPStatusCode()), h.now().Sub(start))
		return
	}

	pieces := res.Fragments
	if res.Artifact != nil {
		pieces = []string{res.Content}
	}
	for _, piece := range pieces {
		if ctx.Err() != nil {
			return
		}
		chunk := proxy.NewStreamChunk(res.ChatID, created, req.Model, types.Delta{Content: piece}, "")
		if err := proxy.WriteSSEChunk(w, chunk); err != nil {
			h.logger.WarnContext(ctx, "failed to write SSE chunk", "error", err)
			return
		}
	}

	if err := proxy.WriteSSEChunk(w, proxy.NewStreamChunk(res.ChatID, created, req.Model, types.Delta{}, proxy.FinishReasonStop)); err != nil {
		h.logger.WarnContext(ctx, "failed to write final SSE chunk", "error", err)
		return
	}
	if err := proxy.WriteSSEDone(w); err != nil {
		h.logger.WarnContext(ctx, "failed to write SSE terminator", "error", err)
	}
	h.metrics.RecordRequest(req.Model, modeStream, strconv.Itoa(http.StatusOK), h.now().Sub(start))
}

func (h *ChatHandler) fail(w http.ResponseWriter, r *http.Request, err error, model, mode string, start time.Time) {
	errResp := proxy.HandleError(err)
	if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
		h.logger.ErrorContext(r.Context(), "failed to write error response", "error", werr)
	}
	h.metrics.RecordRequest(model, mode, strconv.Itoa(errResp.Error.HTTPStatusCode()), h.now().Sub(start))
}
