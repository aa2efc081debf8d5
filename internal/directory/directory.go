// Package directory manages bound LDAP sessions for authentication,
// account enrichment and group authorization.
//
// A Conn wraps a go-ldap connection to the first reachable configured
// server. All dials and operations carry bounded timeouts; the directory is
// never allowed to block a request indefinitely. Referral chasing is not
// performed (go-ldap does not follow referrals, matching the required
// OPT_REFERRALS=0 behavior).
//
// Connections are request-scoped: the middleware that opened one releases
// it after the wrapped handler returns, regardless of which stage
// (authentication or enrichment) established it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/go-ldap/ldap/v3"
	ldapgssapi "github.com/go-ldap/ldap/v3/gssapi"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/config"
)

// ErrNoServers indicates that no configured directory server was reachable.
// This is a fatal configuration error, not a credential problem.
var ErrNoServers = errors.New("directory: no reachable directory server")

// ErrNoTicketCache indicates that the service has no Kerberos ticket cache
// for its own GSSAPI bind.
var ErrNoTicketCache = errors.New("directory: ticket cache not initialized, unable to authenticate with service account against directory server")

// Conn is a bound directory session.
type Conn struct {
	conn   *ldap.Conn
	server string
	cfg    *config.LDAPConfig
}

// Connect dials the configured servers in order and returns an unbound
// connection to the first one that answers. The caller must follow up with
// SimpleBind or ServiceBind before searching.
func Connect(ctx context.Context, cfg *config.LDAPConfig) (*Conn, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	for _, server := range cfg.Servers {
		conn, err := ldap.DialURL(server, ldap.DialWithDialer(dialer))
		if err != nil {
			logger.Warn("directory server unreachable", "server", server, "error", err)
			continue
		}
		conn.SetTimeout(cfg.RequestTimeout)
		return &Conn{conn: conn, server: server, cfg: cfg}, nil
	}
	return nil, ErrNoServers
}

// SimpleBind binds with the end user's own credentials. Returns the raw
// bind error; callers classify it (rejected bind means the caller must
// re-authenticate, without detail on which part failed).
func (c *Conn) SimpleBind(username, password string) error {
	return c.conn.Bind(username, password)
}

// ServiceBind performs a SASL/GSSAPI bind using the service's own Kerberos
// ticket cache. This is the service's identity, not the end user's: it is
// used for account enrichment lookups when the user authenticated via a
// non-LDAP backend.
func (c *Conn) ServiceBind() error {
	ccache := c.cfg.TicketCache
	if ccache == "" {
		ccache = os.Getenv("KRB5CCNAME")
	}
	if ccache == "" {
		return ErrNoTicketCache
	}

	client, err := ldapgssapi.NewClientFromCCache(ccache, c.cfg.Krb5Conf)
	if err != nil {
		return fmt.Errorf("directory: GSSAPI client from ticket cache %s: %w", ccache, err)
	}
	defer client.DeleteSecContext() //nolint:errcheck

	spn, err := servicePrincipal(c.server)
	if err != nil {
		return err
	}

	logger.Debug("binding to directory with service credentials", "server", c.server, "ticket_cache", ccache)
	return c.conn.GSSAPIBind(client, spn, "")
}

// Server returns the URL of the server this session is bound to.
func (c *Conn) Server() string { return c.server }

// Close releases the underlying connection. Implements identity.Directory.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// servicePrincipal derives the directory service SPN ("ldap/<host>") from a
// server URL.
func servicePrincipal(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("directory: invalid server URL %s: %w", server, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("directory: server URL %s has no host", server)
	}
	return "ldap/" + host, nil
}
