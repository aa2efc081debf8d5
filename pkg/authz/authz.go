// Package authz gates protected operations by whitelist or group
// membership.
//
// Authorization always runs after authentication has populated the request
// context's user; it never authenticates. Group checks are idempotent per
// request: a membership already recorded in the context is not re-queried.
package authz

import (
	"context"
	"fmt"

	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// Authorizer decides whether the authenticated user may proceed.
type Authorizer interface {
	// Authorize returns nil to allow, a *auth.Denial to refuse, or a
	// wrapped auth.ErrDataIntegrity when directory data cannot
	// substantiate a claimed membership.
	Authorize(ctx context.Context, rc *identity.RequestContext) error

	// Name returns the strategy identifier for logging.
	Name() string
}

// NewAdmin resolves the administrative authorization rule once at startup:
// the whitelist rule when the whitelist backend is configured, otherwise
// membership in the configured admins group. metrics may be nil.
func NewAdmin(cfg *config.AuthConfig, m *metrics.AuthMetrics) (Authorizer, error) {
	switch cfg.Authorization {
	case config.AuthzWhitelist:
		return NewWhitelist(cfg.AdminWhitelist), nil
	case config.AuthzPOSIX:
		return NewPOSIXGroup(cfg.AdminGroup, cfg.GroupFile), nil
	case config.AuthzLDAP:
		return NewDirectoryGroup(cfg.AdminGroup, cfg, m), nil
	default:
		return nil, fmt.Errorf("%w: authorization backend %q", auth.ErrBackendNotSupported, cfg.Authorization)
	}
}
