package upstreamtest

import (
	"testing"

	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/config"
)

// AccountConfig returns a complete account entry. The account's config id
// is its name, so fake session names reveal which account created them.
func AccountConfig(name string) config.AccountConfig {
	return config.AccountConfig{
		Name:      name,
		ConfigID:  name,
		Cookies:   auth.SessionCookie + "=ses-" + name + "; " + auth.OriginSessionCookie + "=oses-" + name,
		Csesidx:   "idx-" + name,
		ProjectID: "proj-" + name,
	}
}

// UpstreamConfig returns an upstream section pointed at the fake.
func (s *Server) UpstreamConfig() config.UpstreamConfig {
	cfg := config.NewDefault().Upstream
	cfg.AuthBaseURL = s.URL
	cfg.APIBaseURL = s.URL
	return cfg
}

// IssuerOptions returns token issuer options bound to the fake.
func (s *Server) IssuerOptions() auth.IssuerOptions {
	return auth.IssuerOptions{
		AuthBaseURL: s.URL,
		UserAgent:   "upstreamtest",
		HTTPClient:  s.Client(),
	}
}

// Pool builds a pool of named accounts whose tokens are minted by the fake.
func (s *Server) Pool(t testing.TB, names ...string) *accounts.Pool {
	t.Helper()

	cfgs := make([]config.AccountConfig, len(names))
	for i, n := range names {
		cfgs[i] = AccountConfig(n)
	}
	pool, err := accounts.Load(cfgs, s.IssuerOptions())
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	return pool
}

// Account returns the named account of pool.
func Account(t testing.TB, pool *accounts.Pool, name string) *accounts.Account {
	t.Helper()
	a, ok := pool.Lookup(name)
	if !ok {
		t.Fatalf("account %q not in pool", name)
	}
	return a
}
