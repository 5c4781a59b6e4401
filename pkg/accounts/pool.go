// Package accounts holds the upstream identities the gateway can act as and
// decides which one serves each request.
package accounts

import (
	"context"
	"math/rand/v2"
	"sync/atomic"

	"bizbridge/gateway/pkg/auth"
)

// Account is one upstream identity. Identity is Name; pool membership is by
// reference and lasts for the life of the process.
type Account struct {
	Name       string
	Credential *auth.Credential
	Tokens     *auth.TokenIssuer
}

// Token returns a valid bearer token for the account.
func (a *Account) Token(ctx context.Context) (string, error) {
	return a.Tokens.Get(ctx)
}

// Pool is an ordered, non-empty set of accounts.
//
// Next walks the accounts in order using an atomic cursor, so concurrent
// callers never observe a skipped or repeated index. The cursor is a uint64
// and wraps on overflow.
type Pool struct {
	accounts []*Account
	byName   map[string]*Account
	cursor   atomic.Uint64

	// intn picks a random index in [0, n); replaced in tests.
	intn func(n int) int
}

// NewPool creates a pool over accounts in the given order.
// An empty pool is a configuration error.
func NewPool(accounts []*Account) (*Pool, error) {
	if len(accounts) == 0 {
		return nil, &auth.ConfigurationError{Field: "accounts", Message: "no usable accounts"}
	}

	byName := make(map[string]*Account, len(accounts))
	for _, a := range accounts {
		if _, dup := byName[a.Name]; dup {
			return nil, &auth.ConfigurationError{Account: a.Name, Field: "name", Message: "duplicate account name"}
		}
		byName[a.Name] = a
	}

	return &Pool{
		accounts: append([]*Account(nil), accounts...),
		byName:   byName,
		intn:     rand.IntN,
	}, nil
}

// Next returns the next account in round-robin order.
func (p *Pool) Next() *Account {
	n := p.cursor.Add(1) - 1
	return p.accounts[n%uint64(len(p.accounts))]
}

// Another returns a random member other than excluding. With a single
// member it returns that member, so rotation degrades to a retry in place.
func (p *Pool) Another(excluding *Account) *Account {
	if len(p.accounts) == 1 {
		return p.accounts[0]
	}

	candidates := make([]*Account, 0, len(p.accounts)-1)
	for _, a := range p.accounts {
		if a != excluding {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		return p.accounts[0]
	}
	return candidates[p.intn(len(candidates))]
}

// Successor returns the account after of in pool order, wrapping at the end.
// Accounts not in the pool yield the first member.
func (p *Pool) Successor(of *Account) *Account {
	for i, a := range p.accounts {
		if a == of {
			return p.accounts[(i+1)%len(p.accounts)]
		}
	}
	return p.accounts[0]
}

// Lookup finds an account by name.
func (p *Pool) Lookup(name string) (*Account, bool) {
	a, ok := p.byName[name]
	return a, ok
}

// Len returns the number of accounts.
func (p *Pool) Len() int {
	return len(p.accounts)
}

// Accounts returns the accounts in pool order.
func (p *Pool) Accounts() []*Account {
	return append([]*Account(nil), p.accounts...)
}
