package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/artifacts"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/session"
	"bizbridge/gateway/pkg/telemetry/logging"
	"bizbridge/gateway/pkg/telemetry/metrics"
	"bizbridge/gateway/pkg/telemetry/tracing"
	"bizbridge/gateway/pkg/upstream"
)

// Rotation and retry outcome labels.
const (
	rotationSessionCreate = "session_create"
	rotationEmptyArtifact = "empty_artifact"

	retryRecovered = "recovered"
	retryEmpty     = "empty"
	retryFailed    = "failed"
)

// Upstream is the subset of the backend API a turn needs.
// *upstream.Gateway implements it.
type Upstream interface {
	CreateSession(ctx context.Context, acct *accounts.Account) (string, error)
	UploadFile(ctx context.Context, acct *accounts.Account, session, mimeType, b64 string) (string, error)
	StreamAnswer(ctx context.Context, acct *accounts.Account, session, text string, fileIDs []string, modelID string) (*upstream.Answer, error)
	ListGeneratedFiles(ctx context.Context, acct *accounts.Account, session string) ([]upstream.FileMetadata, error)
	DownloadFile(ctx context.Context, acct *accounts.Account, session, fileID string) ([]byte, error)
}

// ArtifactSaver persists downloaded files. *artifacts.Store implements it.
type ArtifactSaver interface {
	Save(ctx context.Context, chatID string, index int, mimeType string, content []byte) (*artifacts.Record, error)
}

// Options holds the collaborators of an Orchestrator. Upstream, Pool,
// Cache, Registry and Artifacts are required.
type Options struct {
	Upstream  Upstream
	Pool      *accounts.Pool
	Cache     *session.Cache
	Registry  *session.Registry
	Artifacts ArtifactSaver

	// Models maps public aliases to upstream model ids.
	Models map[string]string

	Config config.OrchestratorConfig

	// ImageClient fetches remote images. Defaults to http.DefaultClient.
	ImageClient *http.Client

	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
	Logger  *slog.Logger
	Now     func() time.Time
}

// Orchestrator runs chat turns. It is safe for concurrent use; all shared
// state lives in the pool, cache and registry it was built with.
type Orchestrator struct {
	upstream  Upstream
	pool      *accounts.Pool
	cache     *session.Cache
	registry  *session.Registry
	artifacts ArtifactSaver
	models    map[string]string

	sessionRetries int
	artifactRetry  bool
	images         *fetcher

	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Upstream == nil:
		return nil, errors.New("orchestrator: upstream is required")
	case opts.Pool == nil:
		return nil, errors.New("orchestrator: account pool is required")
	case opts.Cache == nil:
		return nil, errors.New("orchestrator: session cache is required")
	case opts.Registry == nil:
		return nil, errors.New("orchestrator: chat registry is required")
	case opts.Artifacts == nil:
		return nil, errors.New("orchestrator: artifact store is required")
	}

	models := opts.Models
	if len(models) == 0 {
		models = config.DefaultModels()
	}
	retries := config.DefaultSessionRetries
	if opts.Config.SessionRetries != nil {
		retries = max(*opts.Config.SessionRetries, 0)
	}
	concurrency := opts.Config.ImageFetchConcurrency
	if concurrency <= 0 {
		concurrency = config.DefaultImageFetchConcurrency
	}
	client := opts.ImageClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		upstream:       opts.Upstream,
		pool:           opts.Pool,
		cache:          opts.Cache,
		registry:       opts.Registry,
		artifacts:      opts.Artifacts,
		models:         models,
		sessionRetries: retries,
		artifactRetry:  !opts.Config.DisableArtifactRetry,
		images: &fetcher{
			client:      client,
			concurrency: concurrency,
			timeout:     opts.Config.ImageFetchTimeout,
			logger:      logger,
		},
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  logger.With("component", "orchestrator"),
		now:     now,
	}, nil
}

// Models returns the configured aliases in sorted order.
func (o *Orchestrator) Models() []string {
	aliases := make([]string, 0, len(o.models))
	for alias := range o.models {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	return aliases
}

// ResolveModel maps an alias to its upstream model id. The id may be empty,
// which lets the backend choose.
func (o *Orchestrator) ResolveModel(alias string) (string, error) {
	id, ok := o.models[alias]
	if !ok {
		return "", &ModelNotFoundError{Model: alias}
	}
	return id, nil
}

// AccountFor returns the account that answered chatID.
func (o *Orchestrator) AccountFor(chatID string) (string, bool) {
	return o.registry.Account(chatID)
}

// Pool returns the account pool.
func (o *Orchestrator) Pool() *accounts.Pool {
	return o.pool
}

// turn is the outcome of one session's upload, answer and listing.
type turn struct {
	acct      *accounts.Account
	session   string
	fragments []string
	files     []upstream.FileMetadata
}

// NewChatID returns a fresh chat completion id.
func NewChatID() string {
	return "chatcmpl-" + uuid.NewString()
}

// Complete runs one chat completion. A Request without a ChatID is
// assigned a fresh one.
func (o *Orchestrator) Complete(ctx context.Context, req *Request) (*Result, error) {
	modelID, err := o.ResolveModel(req.Model)
	if err != nil {
		return nil, err
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = NewChatID()
	}
	res := &Result{
		ChatID:  chatID,
		Created: o.now(),
		Model:   req.Model,
	}
	ctx = logging.WithChatID(ctx, res.ChatID)

	ctx, span := o.tracer.Start(ctx, "orchestrator.complete")
	defer span.End()
	tracing.SetCompletionAttributes(span, res.ChatID, req.Model, req.Stream)

	err = o.complete(ctx, span, req, modelID, res)
	tracing.SetError(span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) complete(ctx context.Context, span trace.Span, req *Request, modelID string, res *Result) error {
	// FINGERPRINT
	fp := session.EmptyFingerprint
	if len(req.Messages) > 0 {
		first := req.Messages[0]
		fp = session.Fingerprint(first.Role, first.Text())
	}

	// SESSION_RESOLVE
	acct, sessionName, err := o.resolveSession(ctx, span, fp)
	if err != nil {
		return err
	}
	ctx = logging.WithAccount(ctx, acct.Name)

	// CONTENT_PREP
	var images []image
	if len(req.Messages) > 0 {
		images = o.images.collect(ctx, req.Messages[len(req.Messages)-1])
	}
	prompt := Transcript(req.Messages)
	span.SetAttributes(tracing.AttrImageCount.Int(len(images)))

	// STREAM
	current, err := o.runTurn(ctx, acct, sessionName, prompt, images, modelID)
	if err != nil {
		return err
	}

	// ARTIFACT_CHECK
	if len(current.files) == 0 && o.artifactRetry {
		if retried := o.retryTurn(ctx, current.acct, prompt, images, modelID); retried != nil {
			current = retried
			res.Retried = true
		}
	}
	span.SetAttributes(
		tracing.AttrFragments.Int(len(current.fragments)),
		tracing.AttrArtifactRetried.Bool(res.Retried),
	)
	tracing.SetAccount(span, current.acct.Name)

	// RESPOND
	res.Account = current.acct.Name
	res.Fragments = current.fragments
	res.Content = strings.Join(current.fragments, "")
	if rec := o.persistFirst(ctx, current, res.ChatID); rec != nil {
		res.Artifact = rec
		res.Content = rec.URL
	}
	res.Usage = estimateUsage(prompt, res.Content)

	o.registry.Record(res.ChatID, res.Account)
	o.logger.InfoContext(ctx, "chat turn completed",
		"model", req.Model,
		"fragments", len(current.fragments),
		"images", len(images),
		"artifact", res.Artifact != nil,
		"retried", res.Retried,
	)
	return nil
}

// resolveSession reuses the cached session for fp or creates one. Creation
// starts at the next account in round-robin order and, on failure, moves to
// a random other account up to the retry budget.
func (o *Orchestrator) resolveSession(ctx context.Context, span trace.Span, fp string) (*accounts.Account, string, error) {
	if entry, ok := o.cache.Lookup(fp); ok {
		if acct, ok := o.pool.Lookup(entry.Account); ok {
			o.metrics.RecordSessionLookup(true)
			span.SetAttributes(tracing.AttrSessionHit.Bool(true))
			o.logger.DebugContext(ctx, "reusing cached session", "session", entry.SessionName, "account", acct.Name)
			return acct, entry.SessionName, nil
		}
	}
	o.metrics.RecordSessionLookup(false)
	span.SetAttributes(tracing.AttrSessionHit.Bool(false))

	acct := o.pool.Next()
	for attempt := 0; ; attempt++ {
		name, err := o.upstream.CreateSession(ctx, acct)
		if err == nil {
			o.cache.Store(fp, session.Entry{SessionName: name, Account: acct.Name, CreatedAt: o.now()})
			o.metrics.UpdateSessionEntries(o.cache.Len())
			o.logger.InfoContext(ctx, "created upstream session", "session", name, "account", acct.Name)
			return acct, name, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}

		var createErr *upstream.SessionCreateError
		if !errors.As(err, &createErr) {
			return nil, "", err
		}
		if attempt >= o.sessionRetries {
			o.logger.ErrorContext(ctx, "session creation failed on every attempt", "attempts", attempt+1, "error", err)
			return nil, "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
		}

		next := o.pool.Another(acct)
		o.metrics.RecordRotation(rotationSessionCreate)
		o.logger.WarnContext(ctx, "session creation failed, rotating account",
			"attempt", attempt+1,
			"max_retries", o.sessionRetries,
			"account", acct.Name,
			"next_account", next.Name,
			"error", err,
		)
		acct = next
	}
}

// runTurn uploads images to sessionName, fetches the answer and lists the
// files it generated. File ids are bound to a session, so every turn
// uploads afresh.
func (o *Orchestrator) runTurn(ctx context.Context, acct *accounts.Account, sessionName, prompt string, images []image, modelID string) (*turn, error) {
	fileIDs := make([]string, 0, len(images))
	for _, img := range images {
		id, err := o.upstream.UploadFile(ctx, acct, sessionName, img.MimeType, img.Data)
		if err != nil {
			return nil, err
		}
		fileIDs = append(fileIDs, id)
	}

	answer, err := o.upstream.StreamAnswer(ctx, acct, sessionName, prompt, fileIDs, modelID)
	if err != nil {
		return nil, err
	}
	fragments := make([]string, 0, answer.Len())
	for fragment := range answer.Fragments() {
		fragments = append(fragments, fragment)
	}

	files, err := o.upstream.ListGeneratedFiles(ctx, acct, sessionName)
	if err != nil {
		return nil, err
	}

	return &turn{acct: acct, session: sessionName, fragments: fragments, files: files}, nil
}

// retryTurn repeats the whole turn once on the account after prev in pool
// order, in a fresh session that is not cached. It returns nil when there
// is no other account or the retry could not complete, in which case the
// first turn stands.
func (o *Orchestrator) retryTurn(ctx context.Context, prev *accounts.Account, prompt string, images []image, modelID string) *turn {
	acct := o.pool.Successor(prev)
	if acct == prev {
		o.logger.DebugContext(ctx, "no generated files and no other account to retry on")
		return nil
	}
	o.metrics.RecordRotation(rotationEmptyArtifact)
	o.logger.InfoContext(ctx, "no generated files, retrying turn", "account", prev.Name, "next_account", acct.Name)

	ctx, span := o.tracer.Start(ctx, "orchestrator.artifact_retry")
	defer span.End()
	tracing.SetAccount(span, acct.Name)

	sessionName, err := o.upstream.CreateSession(ctx, acct)
	if err == nil {
		var t *turn
		if t, err = o.runTurn(ctx, acct, sessionName, prompt, images, modelID); err == nil {
			tracing.SetError(span, nil)
			if len(t.files) == 0 {
				o.metrics.RecordArtifactRetry(retryEmpty)
			} else {
				o.metrics.RecordArtifactRetry(retryRecovered)
			}
			return t
		}
	}

	tracing.SetError(span, err)
	o.metrics.RecordArtifactRetry(retryFailed)
	o.logger.WarnContext(ctx, "artifact retry failed, keeping first answer", "account", acct.Name, "error", err)
	return nil
}

// persistFirst downloads and saves the generated files in order and
// returns the first one that succeeds.
func (o *Orchestrator) persistFirst(ctx context.Context, t *turn, chatID string) *artifacts.Record {
	for i, f := range t.files {
		content, err := o.upstream.DownloadFile(ctx, t.acct, t.session, f.FileID)
		if err != nil {
			o.logger.WarnContext(ctx, "failed to download generated file", "file_id", f.FileID, "error", err)
			continue
		}
		if len(content) == 0 {
			o.logger.WarnContext(ctx, "generated file is empty", "file_id", f.FileID)
			continue
		}

		mimeType := f.MimeType
		if mimeType == "" {
			mimeType = defaultImageMime
		}
		rec, err := o.artifacts.Save(ctx, chatID, i+1, mimeType, content)
		if err != nil {
			o.logger.WarnContext(ctx, "failed to save generated file", "file_id", f.FileID, "error", err)
			continue
		}
		return rec
	}
	return nil
}
