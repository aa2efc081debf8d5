// Package identity defines the authenticated identity model shared by all
// authentication backends.
//
// A User is created from the raw principal string asserted by an
// authentication exchange (Kerberos principal, LDAP bind DN short name, or
// PAM account name) and is enriched afterwards with directory or POSIX
// account metadata. Users live for the duration of a single request and are
// never persisted.
package identity

import (
	"fmt"
	"strings"
)

// User represents an authenticated principal and its enriched profile.
//
// Name and Domain are derived from the raw principal at construction time.
// GivenName, Surname, Mail and DN are filled in by the accounts backend
// after authentication succeeds.
type User struct {
	// Principal is the raw identity string asserted by the authentication
	// exchange, e.g. "alice" or "alice@example.com".
	Principal string

	// Name is the local part of the principal.
	Name string

	// Domain is the domain part of the principal, empty if the principal
	// carried no "@".
	Domain string

	// Mail is the user's email address. Pre-populated from the principal
	// when it looks like a UPN, otherwise filled by enrichment.
	Mail string

	// GivenName and Surname are filled by account enrichment.
	GivenName string
	Surname   string

	// DN is the directory distinguished name, set by LDAP enrichment.
	// Required for directory group membership checks.
	DN string
}

// Parse builds a User from a raw principal string, splitting on the first
// "@" into local and domain parts.
func Parse(principal string) *User {
	u := &User{Principal: principal}
	if name, domain, ok := strings.Cut(principal, "@"); ok {
		u.Name = name
		u.Domain = domain
		u.Mail = principal
	} else {
		u.Name = principal
	}
	return u
}

// String renders the user for logs and whitelist comparison. An enriched
// user renders as "Given Surname <mail>", otherwise the mail address or the
// bare account name.
func (u *User) String() string {
	if u.GivenName != "" && u.Surname != "" {
		return fmt.Sprintf("%s %s <%s>", u.GivenName, u.Surname, u.Mail)
	}
	if u.Mail != "" {
		return u.Mail
	}
	return u.Name
}
