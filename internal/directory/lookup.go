package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// UserEntry holds the directory attributes used for account enrichment.
type UserEntry struct {
	DN                string
	CN                string
	GivenName         string
	Surname           string
	Mail              string
	UserPrincipalName string
}

// LookupUser searches the directory for the entry matching the account
// name. Returns nil when no entry matches; the caller decides whether that
// is a hard error.
func (c *Conn) LookupUser(name string) (*UserEntry, error) {
	filter := fmt.Sprintf(c.cfg.UserFilter, ldap.EscapeFilter(name))
	req := ldap.NewSearchRequest(
		c.cfg.Base,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{"cn", "givenName", "sn", "mail", "userPrincipalName"},
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory: user search %q: %w", filter, err)
	}

	for _, e := range res.Entries {
		if e.DN == "" {
			continue
		}
		return &UserEntry{
			DN:                e.DN,
			CN:                e.GetAttributeValue("cn"),
			GivenName:         e.GetAttributeValue("givenName"),
			Surname:           e.GetAttributeValue("sn"),
			Mail:              e.GetAttributeValue("mail"),
			UserPrincipalName: e.GetAttributeValue("userPrincipalName"),
		}, nil
	}
	return nil, nil
}

// IsGroupMember searches for the named group filtered by the user's
// distinguished name. At least one matching entry proves membership.
func (c *Conn) IsGroupMember(groupName, userDN string) (bool, error) {
	filter := fmt.Sprintf(c.cfg.MembersFilter, ldap.EscapeFilter(groupName), ldap.EscapeFilter(userDN))
	req := ldap.NewSearchRequest(
		c.cfg.Base,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{"member"},
		nil,
	)

	res, err := c.conn.Search(req)
	if err != nil {
		return false, fmt.Errorf("directory: group search %q: %w", filter, err)
	}

	for _, e := range res.Entries {
		if strings.TrimSpace(e.DN) == "" {
			continue
		}
		return true, nil
	}
	return false, nil
}
