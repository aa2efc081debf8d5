package auth

import (
	"context"
	"fmt"

	"github.com/certgate/certgate/internal/directory"
	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// LDAPAuthenticator authenticates Basic credentials with a simple bind
// against the configured directory.
//
// The bound connection is stored in the request context so that enrichment
// and authorization can reuse it; the middleware releases it when the
// request completes.
type LDAPAuthenticator struct {
	cfg  *config.AuthConfig
	dial func(ctx context.Context, cfg *config.LDAPConfig) (*directory.Conn, error)
}

var _ Authenticator = (*LDAPAuthenticator)(nil)

// NewLDAPAuthenticator creates the LDAP simple-bind backend.
func NewLDAPAuthenticator(cfg *config.AuthConfig) *LDAPAuthenticator {
	return &LDAPAuthenticator{cfg: cfg, dial: directory.Connect}
}

// Name implements Authenticator.
func (a *LDAPAuthenticator) Name() string { return "ldap" }

// Authenticate decodes the Basic credential pair and binds as the end user
// against the first reachable configured directory server. A rejected bind
// re-issues the Basic challenge without revealing which part failed.
func (a *LDAPAuthenticator) Authenticate(ctx context.Context, authorization string, rc *identity.RequestContext) error {
	realm := fmt.Sprintf("Please authenticate with %s domain account or supply UPN", a.cfg.Domain)

	username, password, err := ParseBasic(authorization, realm)
	if err != nil {
		return err
	}

	conn, opened, err := a.connection(ctx, rc)
	if err != nil {
		return err
	}

	upn := QualifyUPN(username, a.cfg.Domain)
	if err := conn.SimpleBind(upn, password); err != nil {
		logger.Debug("directory bind rejected", "username", username, "server", conn.Server())
		if opened {
			// a failed bind leaves nothing worth reusing
			_ = rc.ReleaseDirectory()
		}
		return Unauthorized(ChallengeBasic, realm)
	}

	rc.User = identity.Parse(username)
	return nil
}

// connection returns the request's bound directory session, dialing a new
// one when the context has none yet. The second return reports whether this
// call opened the connection.
func (a *LDAPAuthenticator) connection(ctx context.Context, rc *identity.RequestContext) (*directory.Conn, bool, error) {
	if d := rc.Directory(); d != nil {
		if conn, ok := d.(*directory.Conn); ok {
			return conn, false, nil
		}
	}
	conn, err := a.dial(ctx, &a.cfg.LDAP)
	if err != nil {
		return nil, false, err
	}
	rc.SetDirectory(conn)
	return conn, true, nil
}
