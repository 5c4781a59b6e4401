package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/telemetry/metrics"
	"bizbridge/gateway/pkg/telemetry/tracing"
)

// Operation names used in metrics, spans and logs.
const (
	OpCreateSession = "create_session"
	OpUploadFile    = "upload_file"
	OpStreamAnswer  = "stream_answer"
	OpListFiles     = "list_files"
	OpDownloadFile  = "download_file"
)

const (
	widgetPrefix   = "/v1alpha/locations/global/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"

	// maxResponseBody bounds any single response, generated files included.
	maxResponseBody = 64 << 20
)

// Options carries the collaborators of a Gateway. All are optional.
type Options struct {
	// HTTPClient performs the calls. Defaults to a client built from the
	// upstream config.
	HTTPClient *http.Client

	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Logger  *slog.Logger

	// Now overrides the clock used for upload file names.
	Now func() time.Time
}

// Gateway performs widget API calls on behalf of pool accounts. It is safe
// for concurrent use.
type Gateway struct {
	apiBase      string
	origin       string
	userAgent    string
	languageCode string
	timeZone     string

	client  *http.Client
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time

	// maxBody bounds any single response body.
	maxBody int64
}

// New creates a Gateway for the configured backend.
func New(cfg config.UpstreamConfig, opts Options) (*Gateway, error) {
	client := opts.HTTPClient
	if client == nil {
		var err error
		if client, err = NewHTTPClient(cfg); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Gateway{
		apiBase:      strings.TrimRight(cfg.APIBaseURL, "/"),
		origin:       strings.TrimRight(cfg.AuthBaseURL, "/"),
		userAgent:    cfg.UserAgent,
		languageCode: cfg.LanguageCode,
		timeZone:     cfg.TimeZone,
		client:       client,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		logger:       opts.Logger,
		now:          opts.Now,
		maxBody:      maxResponseBody,
	}, nil
}

// Close releases idle connections.
func (g *Gateway) Close() {
	g.client.CloseIdleConnections()
}

type call struct {
	op     string
	method string
	url    string
	body   any
	header map[string]string
}

type reply struct {
	status int
	body   []byte
}

// do performs exactly one call. A token failure is returned unchanged as a
// *auth.TokenRefreshError; any other error means no usable response.
func (g *Gateway) do(ctx context.Context, acct *accounts.Account, c call) (*reply, error) {
	ctx, span := g.tracer.Start(ctx, "upstream."+c.op, tracing.UpstreamCall(c.op, acct.Name))
	defer span.End()

	token, err := acct.Token(ctx)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	var body io.Reader
	if c.body != nil {
		data, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	g.setHeaders(req.Header, token)
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.RecordUpstreamCall(c.op, acct.Name, 0, time.Since(start))
		tracing.SetError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBody+1))
	elapsed := time.Since(start)
	g.metrics.RecordUpstreamCall(c.op, acct.Name, resp.StatusCode, elapsed)
	span.SetAttributes(tracing.AttrStatusCode.Int(resp.StatusCode))
	if err != nil {
		tracing.SetError(span, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > g.maxBody {
		err := fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, g.maxBody)
		tracing.SetError(span, err)
		return nil, err
	}

	g.logger.DebugContext(ctx, "upstream call",
		"op", c.op,
		"account", acct.Name,
		"status", resp.StatusCode,
		"latency", elapsed,
	)
	if resp.StatusCode != http.StatusOK {
		tracing.SetError(span, fmt.Errorf("status %d", resp.StatusCode))
	}
	return &reply{status: resp.StatusCode, body: data}, nil
}

// setHeaders applies the browser header set the widget API expects.
func (g *Gateway) setHeaders(h http.Header, token string) {
	h.Set("accept", "*/*")
	h.Set("accept-language", acceptLanguage)
	h.Set("authorization", "Bearer "+token)
	h.Set("content-type", "application/json")
	h.Set("origin", g.origin)
	h.Set("referer", g.origin+"/")
	h.Set("user-agent", g.userAgent)
	h.Set("x-server-timeout", "1800")
	h.Set("sec-ch-ua", `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`)
	h.Set("sec-ch-ua-mobile", "?0")
	h.Set("sec-ch-ua-platform", `"Windows"`)
	h.Set("sec-fetch-dest", "empty")
	h.Set("sec-fetch-mode", "cors")
	h.Set("sec-fetch-site", "cross-site")
}

func (g *Gateway) widgetURL(method string) string {
	return g.apiBase + widgetPrefix + method
}

// isTokenError reports whether err came from minting the bearer token.
func isTokenError(err error) bool {
	var tokenErr *auth.TokenRefreshError
	return errors.As(err, &tokenErr)
}

// SessionID returns the last path segment of a session resource name.
func SessionID(sessionName string) string {
	if i := strings.LastIndexByte(sessionName, '/'); i >= 0 {
		return sessionName[i+1:]
	}
	return sessionName
}
