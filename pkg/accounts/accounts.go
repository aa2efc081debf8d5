// Package accounts enriches an authenticated identity with profile
// metadata from POSIX accounts or an LDAP directory.
//
// Enrichment runs strictly after authentication succeeds and strictly
// before the protected operation executes. It never alters the
// authentication outcome, but an enrichment failure prevents the operation
// from running: once a backend authenticated the principal, the matching
// account record is expected to exist, and its absence is a data problem.
package accounts

import (
	"context"
	"fmt"

	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// Resolver fills in display metadata on the request's authenticated user.
type Resolver interface {
	// Resolve mutates rc.User in place. rc.User must be non-nil.
	Resolve(ctx context.Context, rc *identity.RequestContext) error

	// Name returns the backend identifier for logging ("posix", "ldap").
	Name() string
}

// New resolves the configured accounts backend once at startup. metrics
// may be nil; the POSIX backend never consults the directory and ignores
// it.
func New(cfg *config.AuthConfig, m *metrics.AuthMetrics) (Resolver, error) {
	switch cfg.Accounts {
	case config.AccountsPOSIX:
		return NewPOSIXResolver(cfg), nil
	case config.AccountsLDAP:
		return NewLDAPResolver(cfg, m), nil
	default:
		return nil, fmt.Errorf("%w: accounts backend %q", auth.ErrBackendNotSupported, cfg.Accounts)
	}
}
