package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/certgate/certgate/internal/directory"
	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// LDAPResolver enriches from the directory. When the request holds no bound
// connection yet (the user authenticated via kerberos or pam), a new one is
// opened with the service's own Kerberos ticket cache. The middleware owns
// the connection's lifetime either way.
type LDAPResolver struct {
	cfg     *config.AuthConfig
	metrics *metrics.AuthMetrics
	dial    func(ctx context.Context, cfg *config.LDAPConfig) (*directory.Conn, error)
}

var _ Resolver = (*LDAPResolver)(nil)

// NewLDAPResolver creates the LDAP accounts backend. metrics may be nil.
func NewLDAPResolver(cfg *config.AuthConfig, m *metrics.AuthMetrics) *LDAPResolver {
	return &LDAPResolver{cfg: cfg, metrics: m, dial: directory.Connect}
}

// Name implements Resolver.
func (r *LDAPResolver) Name() string { return "ldap" }

// Resolve implements Resolver. The directory is expected to know every
// authenticated principal: no matching entry is a hard error, not a silent
// pass.
func (r *LDAPResolver) Resolve(ctx context.Context, rc *identity.RequestContext) error {
	conn, err := r.connection(ctx, rc)
	if err != nil {
		return err
	}

	u := rc.User
	entry, err := conn.LookupUser(u.Name)
	if err != nil {
		r.metrics.RecordDirectoryLookup("user", "error")
		return err
	}
	if entry == nil {
		r.metrics.RecordDirectoryLookup("user", "miss")
		return fmt.Errorf("%w: failed to look up user %s in directory", auth.ErrDataIntegrity, u)
	}
	r.metrics.RecordDirectoryLookup("user", "hit")

	if entry.GivenName != "" && entry.Surname != "" {
		u.GivenName = entry.GivenName
		u.Surname = entry.Surname
	} else if given, surname, ok := strings.Cut(entry.CN, " "); ok {
		u.GivenName = given
		u.Surname = surname
	}

	switch {
	case entry.Mail != "":
		u.Mail = entry.Mail
	case entry.UserPrincipalName != "":
		u.Mail = entry.UserPrincipalName
	}
	u.DN = entry.DN

	logger.Debug("directory enrichment complete", "user", u.Name, "dn", u.DN)
	return nil
}

func (r *LDAPResolver) connection(ctx context.Context, rc *identity.RequestContext) (*directory.Conn, error) {
	if d := rc.Directory(); d != nil {
		if conn, ok := d.(*directory.Conn); ok {
			return conn, nil
		}
	}

	conn, err := r.dial(ctx, &r.cfg.LDAP)
	if err != nil {
		return nil, err
	}
	if err := conn.ServiceBind(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	rc.SetDirectory(conn)
	return conn, nil
}
