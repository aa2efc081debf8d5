package authz

import (
	"context"
	"fmt"

	"github.com/certgate/certgate/internal/directory"
	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// groupDirectory is the slice of a directory session the rule queries.
type groupDirectory interface {
	IsGroupMember(groupName, userDN string) (bool, error)
}

// DirectoryGroup checks membership in a directory group. Like the LDAP
// accounts backend it reuses the request's bound connection when one
// exists, otherwise it binds with the service's own ticket cache and hands
// the connection to the request context for release by the middleware.
type DirectoryGroup struct {
	group   string
	cfg     *config.AuthConfig
	metrics *metrics.AuthMetrics
	dial    func(ctx context.Context, cfg *config.LDAPConfig) (*directory.Conn, error)
}

var _ Authorizer = (*DirectoryGroup)(nil)

// NewDirectoryGroup builds the directory-group rule. metrics may be nil.
func NewDirectoryGroup(group string, cfg *config.AuthConfig, m *metrics.AuthMetrics) *DirectoryGroup {
	return &DirectoryGroup{group: group, cfg: cfg, metrics: m, dial: directory.Connect}
}

// Name implements Authorizer.
func (g *DirectoryGroup) Name() string { return "ldap" }

// Authorize implements Authorizer. The directory is expected to list the
// authenticated user in the designated group: a membership query that
// returns nothing is a data-integrity failure, not a refusal the client
// can act on.
func (g *DirectoryGroup) Authorize(ctx context.Context, rc *identity.RequestContext) error {
	if rc.HasGroup(g.group) {
		return nil
	}

	u := rc.User
	if u == nil || u.DN == "" {
		return fmt.Errorf("%w: no distinguished name recorded for user, accounts backend must run first", auth.ErrDataIntegrity)
	}

	conn, err := g.connection(ctx, rc)
	if err != nil {
		return err
	}

	member, err := conn.IsGroupMember(g.group, u.DN)
	if err != nil {
		g.metrics.RecordDirectoryLookup("group", "error")
		return fmt.Errorf("directory group query: %w", err)
	}
	if !member {
		g.metrics.RecordDirectoryLookup("group", "miss")
		return fmt.Errorf("%w: failed to look up group %s with %s listed as member",
			auth.ErrDataIntegrity, g.group, u.DN)
	}
	g.metrics.RecordDirectoryLookup("group", "hit")

	rc.AddGroup(g.group)
	return nil
}

func (g *DirectoryGroup) connection(ctx context.Context, rc *identity.RequestContext) (groupDirectory, error) {
	if d := rc.Directory(); d != nil {
		if conn, ok := d.(groupDirectory); ok {
			return conn, nil
		}
	}

	conn, err := g.dial(ctx, &g.cfg.LDAP)
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
