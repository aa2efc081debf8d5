package authz

import (
	"context"
	"fmt"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/identity"
)

// Whitelist allows only explicitly enumerated identities. No group set is
// consulted or populated.
type Whitelist struct {
	entries map[string]struct{}
}

var _ Authorizer = (*Whitelist)(nil)

// NewWhitelist builds the whitelist rule from the configured entries.
func NewWhitelist(entries []string) *Whitelist {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e] = struct{}{}
	}
	return &Whitelist{entries: set}
}

// Name implements Authorizer.
func (w *Whitelist) Name() string { return "whitelist" }

// Authorize implements Authorizer. The user matches when any of its string
// representation, mail address, or raw principal appears in the configured
// set, so that enrichment changing the display form does not lock
// administrators out.
func (w *Whitelist) Authorize(ctx context.Context, rc *identity.RequestContext) error {
	u := rc.User
	if u == nil {
		return auth.Forbidden("User not whitelisted")
	}
	for _, candidate := range []string{u.String(), u.Mail, u.Principal} {
		if candidate == "" {
			continue
		}
		if _, ok := w.entries[candidate]; ok {
			return nil
		}
	}
	logger.Info("rejected access to administrative call, user not whitelisted",
		"user", u.String(), "remote_addr", rc.RemoteAddr)
	return auth.Forbidden(fmt.Sprintf("User %s not whitelisted", u))
}
