//go:build integration

package ldap

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/certgate/certgate/internal/directory"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

const (
	baseDN        = "dc=example,dc=org"
	adminPassword = "adminpass"
	alicePassword = "alicepass"
	aliceDN       = "cn=alice,ou=users,dc=example,dc=org"
)

// directoryConfig returns an LDAPConfig pointed at the test container with
// OpenLDAP-flavored filter templates.
func directoryConfig(url string) config.LDAPConfig {
	return config.LDAPConfig{
		Servers:        []string{url},
		Base:           baseDN,
		UserFilter:     "(&(objectClass=inetOrgPerson)(uid=%s))",
		MembersFilter:  "(&(objectClass=groupOfNames)(cn=%s)(member=%s))",
		DialTimeout:    5 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
}

// startOpenLDAP starts an OpenLDAP container seeded with one user and the
// default readers group, or reuses an external server named by
// CERTGATE_TEST_LDAP_URL.
func startOpenLDAP(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("CERTGATE_TEST_LDAP_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "bitnami/openldap:2.6",
		ExposedPorts: []string{"1389/tcp"},
		Env: map[string]string{
			"LDAP_ROOT":           baseDN,
			"LDAP_ADMIN_USERNAME": "admin",
			"LDAP_ADMIN_PASSWORD": adminPassword,
			"LDAP_USERS":          "alice",
			"LDAP_PASSWORDS":      alicePassword,
		},
		WaitingFor: wait.ForListeningPort("1389/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1389/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("ldap://%s:%s", host, port.Port())
}

func TestSimpleBind(t *testing.T) {
	url := startOpenLDAP(t)
	cfg := directoryConfig(url)

	conn, err := directory.Connect(context.Background(), &cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SimpleBind(aliceDN, alicePassword))
}

func TestSimpleBindBadPassword(t *testing.T) {
	url := startOpenLDAP(t)
	cfg := directoryConfig(url)

	conn, err := directory.Connect(context.Background(), &cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.Error(t, conn.SimpleBind(aliceDN, "wrong"))
}

func TestLookupUser(t *testing.T) {
	url := startOpenLDAP(t)
	cfg := directoryConfig(url)

	conn, err := directory.Connect(context.Background(), &cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SimpleBind("cn=admin,"+baseDN, adminPassword))

	entry, err := conn.LookupUser("alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, aliceDN, entry.DN)

	missing, err := conn.LookupUser("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGroupMembership(t *testing.T) {
	url := startOpenLDAP(t)
	cfg := directoryConfig(url)

	conn, err := directory.Connect(context.Background(), &cfg)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SimpleBind("cn=admin,"+baseDN, adminPassword))

	// Bitnami seeds the "readers" group with every LDAP_USERS entry.
	member, err := conn.IsGroupMember("readers", aliceDN)
	require.NoError(t, err)
	assert.True(t, member)

	member, err = conn.IsGroupMember("wheel", aliceDN)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestLDAPAuthenticatorAgainstDirectory(t *testing.T) {
	url := startOpenLDAP(t)

	authCfg := &config.AuthConfig{
		Backend: config.AuthLDAP,
		LDAP:    directoryConfig(url),
	}
	authenticator := auth.NewLDAPAuthenticator(authCfg)

	rc := identity.NewRequestContext("")
	header := auth.BasicHeader(aliceDN, alicePassword)

	require.NoError(t, authenticator.Authenticate(context.Background(), header, rc))
	require.NotNil(t, rc.User)
	defer func() { _ = rc.ReleaseDirectory() }()

	rc2 := identity.NewRequestContext("")
	err := authenticator.Authenticate(context.Background(), auth.BasicHeader(aliceDN, "wrong"), rc2)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, 401, d.Status)
}
