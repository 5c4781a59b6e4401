package accounts

import (
	"errors"

	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/config"
)

// Load builds a pool from configured accounts. It fails closed: if any
// account is unusable the whole load fails and no pool is returned, so the
// process never serves with a partially populated account set. All
// account errors are joined into the returned error.
func Load(cfgs []config.AccountConfig, opts auth.IssuerOptions) (*Pool, error) {
	var (
		built []*Account
		errs  []error
	)

	for _, c := range cfgs {
		if c.Name == "" {
			errs = append(errs, &auth.ConfigurationError{Field: "name", Message: "field is required"})
			continue
		}
		cred, err := auth.NewCredential(c.Name, c.ConfigID, c.ProjectID, c.Csesidx, c.Cookies)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		built = append(built, &Account{
			Name:       c.Name,
			Credential: cred,
			Tokens:     auth.NewTokenIssuer(c.Name, cred, opts),
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewPool(built)
}
