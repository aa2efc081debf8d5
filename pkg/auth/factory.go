package auth

import (
	"fmt"

	"github.com/certgate/certgate/pkg/config"
)

// KerberosConstructor builds the kerberos backend. It is injected by the
// caller (cmd wiring) so that this package does not depend on its own
// kerberos sub-package.
type KerberosConstructor func(cfg *config.KerberosConfig) (Authenticator, error)

// New resolves the configured authentication backend once at startup.
// An unrecognized backend name is fatal: the capability refuses to serve.
func New(cfg *config.AuthConfig, newKerberos KerberosConstructor) (Authenticator, error) {
	switch cfg.Backend {
	case config.AuthKerberos:
		return newKerberos(&cfg.Kerberos)
	case config.AuthLDAP:
		return NewLDAPAuthenticator(cfg), nil
	case config.AuthPAM:
		return NewPAMAuthenticator(cfg), nil
	default:
		return nil, fmt.Errorf("%w: authentication backend %q", ErrBackendNotSupported, cfg.Backend)
	}
}
