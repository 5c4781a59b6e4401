package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// xssiPrefix guards the bootstrap response against JSON hijacking.
const xssiPrefix = ")]}'"

// maxBootstrapBody bounds how much of the bootstrap response is read.
const maxBootstrapBody = 1 << 20

// Token is a minted bearer assertion and its local expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// valid reports whether the token may still be handed out at now.
func (t Token) valid(now time.Time) bool {
	return t.Value != "" && !now.After(t.ExpiresAt)
}

// IssuerOptions configures a TokenIssuer.
type IssuerOptions struct {
	// AuthBaseURL is the origin serving /auth/getoxsrf.
	AuthBaseURL string

	// UserAgent is presented to the bootstrap endpoint.
	UserAgent string

	// HTTPClient performs the bootstrap call. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Now overrides the clock in tests.
	Now func() time.Time

	// OnRefresh is called after every refresh attempt with its outcome.
	OnRefresh func(account string, err error, elapsed time.Duration)
}

// TokenIssuer mints and caches the bearer assertion for one credential.
//
// Get is safe for concurrent use. While a token is valid, callers share a
// read lock. When it has expired, exactly one caller refreshes under the
// write lock and the others wait for and reuse its result.
type TokenIssuer struct {
	account string
	cred    *Credential
	opts    IssuerOptions

	mu    sync.RWMutex
	token Token
}

// NewTokenIssuer creates an issuer for cred. account labels errors and logs.
func NewTokenIssuer(account string, cred *Credential, opts IssuerOptions) *TokenIssuer {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TokenIssuer{
		account: account,
		cred:    cred,
		opts:    opts,
	}
}

// Get returns a valid bearer token, refreshing it first if it has expired.
// A failed refresh is returned as a *TokenRefreshError and is not retried.
func (i *TokenIssuer) Get(ctx context.Context) (string, error) {
	i.mu.RLock()
	tok := i.token
	i.mu.RUnlock()
	if tok.valid(i.opts.Now()) {
		return tok.Value, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if i.token.valid(i.opts.Now()) {
		return i.token.Value, nil
	}

	start := time.Now()
	fresh, err := i.refresh(ctx)
	if i.opts.OnRefresh != nil {
		i.opts.OnRefresh(i.account, err, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	i.token = fresh
	return fresh.Value, nil
}

// Current returns the cached token without refreshing it.
func (i *TokenIssuer) Current() Token {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.token
}

type bootstrapResponse struct {
	XSRFToken string `json:"xsrfToken"`
	KeyID     string `json:"keyId"`
}

// refresh fetches fresh signing material and mints a new assertion.
// Callers must hold the write lock.
func (i *TokenIssuer) refresh(ctx context.Context) (Token, error) {
	endpoint := i.opts.AuthBaseURL + "/auth/getoxsrf?csesidx=" + url.QueryEscape(i.cred.Csesidx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("cookie", i.cred.CookieHeader())
	req.Header.Set("user-agent", i.opts.UserAgent)
	req.Header.Set("referer", i.opts.AuthBaseURL+"/")

	resp, err := i.opts.HTTPClient.Do(req)
	if err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBootstrapBody))
	if err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, &TokenRefreshError{
			Account:    i.account,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
		}
	}

	body = bytes.TrimPrefix(body, []byte(xssiPrefix))

	var parsed bootstrapResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	if parsed.XSRFToken == "" || parsed.KeyID == "" {
		return Token{}, &TokenRefreshError{Account: i.account, StatusCode: resp.StatusCode, Message: "response missing xsrfToken or keyId"}
	}

	key, err := decodeSigningKey(parsed.XSRFToken)
	if err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, StatusCode: resp.StatusCode, Message: "invalid signing key", Cause: err}
	}

	now := i.opts.Now()
	value, err := MintAssertion(key, parsed.KeyID, i.cred.Csesidx, now)
	if err != nil {
		return Token{}, &TokenRefreshError{Account: i.account, Message: "failed to mint assertion", Cause: err}
	}

	return Token{Value: value, ExpiresAt: now.Add(TokenLifetime)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d bytes)", s[:n], len(s))
}
