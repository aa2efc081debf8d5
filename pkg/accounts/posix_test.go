package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

func posixResolver(t *testing.T, fullNames map[string]string) *POSIXResolver {
	t.Helper()
	r := NewPOSIXResolver(&config.AuthConfig{Domain: "example.com"})
	r.lookupFullName = func(username string) (string, error) {
		name, ok := fullNames[username]
		if !ok {
			return "", errors.New("unknown user")
		}
		return name, nil
	}
	return r
}

func TestPOSIXResolve(t *testing.T) {
	r := posixResolver(t, map[string]string{"alice": "Alice Liddell"})
	rc := identity.NewRequestContext("")
	rc.User = identity.Parse("alice")

	require.NoError(t, r.Resolve(context.Background(), rc))
	assert.Equal(t, "Alice", rc.User.GivenName)
	assert.Equal(t, "Liddell", rc.User.Surname)
	assert.Equal(t, "alice@example.com", rc.User.Mail)
}

func TestPOSIXResolveSingleWordName(t *testing.T) {
	r := posixResolver(t, map[string]string{"bob": "bob"})
	rc := identity.NewRequestContext("")
	rc.User = identity.Parse("bob")

	require.NoError(t, r.Resolve(context.Background(), rc))
	assert.Empty(t, rc.User.GivenName)
	assert.Empty(t, rc.User.Surname)
	assert.Equal(t, "bob@example.com", rc.User.Mail)
}

func TestPOSIXResolveIdempotent(t *testing.T) {
	r := posixResolver(t, map[string]string{"alice": "Alice Liddell"})
	rc := identity.NewRequestContext("")
	rc.User = identity.Parse("alice")

	require.NoError(t, r.Resolve(context.Background(), rc))
	first := *rc.User
	require.NoError(t, r.Resolve(context.Background(), rc))
	assert.Equal(t, first, *rc.User)
}

func TestPOSIXResolveMissingAccount(t *testing.T) {
	r := posixResolver(t, nil)
	rc := identity.NewRequestContext("")
	rc.User = identity.Parse("ghost")

	err := r.Resolve(context.Background(), rc)
	assert.ErrorIs(t, err, auth.ErrDataIntegrity)
}

func TestAccountsFactory(t *testing.T) {
	cfg := &config.AuthConfig{Accounts: config.AccountsPOSIX}
	r, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "posix", r.Name())

	cfg.Accounts = "nis"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, auth.ErrBackendNotSupported)
}
