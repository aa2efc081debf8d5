// Package auth provides the pluggable request authentication layer for
// certgate.
//
// This package defines the core types and interfaces:
//
//   - Authenticator: a configured authentication backend (Kerberos, LDAP, PAM)
//   - Denial: a classified authentication/authorization failure carrying the
//     HTTP status and an optional WWW-Authenticate challenge
//   - Basic credential parsing shared by the LDAP and PAM backends
//
// Exactly one Authenticator is selected at startup from static
// configuration; backends are never combined. A deployment picks exactly one
// trust boundary for primary authentication.
//
// Sub-packages:
//   - kerberos/: SPNEGO/Kerberos Authenticator with keytab management
package auth

import (
	"context"

	"github.com/certgate/certgate/pkg/identity"
)

// Authenticator is a configured authentication backend.
//
// Authenticate receives the raw Authorization header value (empty string if
// the header was absent) and the per-request context. On success it
// populates rc.User and returns nil. On failure it returns a *Denial
// classifying the outcome, or an ordinary error for internal failures.
//
// Thread safety: implementations must be safe for concurrent use; all
// per-request state lives in the RequestContext.
type Authenticator interface {
	// Authenticate performs the backend's credential exchange.
	Authenticate(ctx context.Context, authorization string, rc *identity.RequestContext) error

	// Name returns the backend identifier for logging ("kerberos", "ldap", "pam").
	Name() string
}
