package accounts

import (
	"context"
	"fmt"
	"os/user"
	"strings"

	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// POSIXResolver enriches from the local account database. The full name is
// the first comma-delimited field of the GECOS entry; mail is synthesized
// as <name>@<configured domain>.
type POSIXResolver struct {
	cfg *config.AuthConfig

	// lookupFullName returns the account's GECOS full-name field.
	// Replaceable in tests.
	lookupFullName func(username string) (string, error)
}

var _ Resolver = (*POSIXResolver)(nil)

// NewPOSIXResolver creates the POSIX accounts backend.
func NewPOSIXResolver(cfg *config.AuthConfig) *POSIXResolver {
	return &POSIXResolver{cfg: cfg, lookupFullName: lookupGecosName}
}

// Name implements Resolver.
func (r *POSIXResolver) Name() string { return "posix" }

// Resolve implements Resolver. A missing local account is a hard error: a
// backend that authenticated this principal guarantees the account exists.
func (r *POSIXResolver) Resolve(ctx context.Context, rc *identity.RequestContext) error {
	u := rc.User

	fullName, err := r.lookupFullName(u.Name)
	if err != nil {
		return fmt.Errorf("%w: account %q not found: %v", auth.ErrDataIntegrity, u.Name, err)
	}

	if given, surname, ok := strings.Cut(fullName, " "); ok && fullName != "" {
		u.GivenName = given
		u.Surname = surname
	}
	u.Mail = u.Name + "@" + r.cfg.Domain
	return nil
}

// lookupGecosName reads the full-name portion of the GECOS field from the
// local account database. os/user already trims the entry at the first
// comma.
func lookupGecosName(username string) (string, error) {
	entry, err := user.Lookup(username)
	if err != nil {
		return "", err
	}
	name, _, _ := strings.Cut(entry.Name, ",")
	return name, nil
}
