package kerberos

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/identity"
)

type fakeExchange struct {
	principal  string
	acceptErr  error
	releaseErr error
	released   int
}

func (f *fakeExchange) Accept(token []byte) (string, error) {
	return f.principal, f.acceptErr
}

func (f *fakeExchange) Release() error {
	f.released++
	return f.releaseErr
}

func newTestAuthenticator(ex *fakeExchange, newErr error) *Authenticator {
	a := &Authenticator{provider: &Provider{servicePrincipal: "HTTP/ca.example.com"}}
	a.newExchange = func() (exchange, error) {
		if newErr != nil {
			return nil, newErr
		}
		return ex, nil
	}
	return a
}

func negotiateHeader(t *testing.T) string {
	t.Helper()
	return "Negotiate " + base64.StdEncoding.EncodeToString([]byte("opaque-token"))
}

func TestAuthenticateNoCredentials(t *testing.T) {
	a := newTestAuthenticator(&fakeExchange{}, nil)
	rc := identity.NewRequestContext("10.0.0.7:1234")

	err := a.Authenticate(context.Background(), "", rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, d.Status)
	assert.Equal(t, ChallengeNegotiate, d.Challenge)
	assert.Nil(t, rc.User, "user must stay unset on failure")
}

func TestAuthenticateSuccess(t *testing.T) {
	ex := &fakeExchange{principal: "alice@EXAMPLE.COM"}
	a := newTestAuthenticator(ex, nil)
	rc := identity.NewRequestContext("")

	require.NoError(t, a.Authenticate(context.Background(), negotiateHeader(t), rc))
	require.NotNil(t, rc.User)
	assert.Equal(t, "alice", rc.User.Name)
	assert.Equal(t, "EXAMPLE.COM", rc.User.Domain)
	assert.Equal(t, 1, ex.released)
}

func TestAuthenticateStepFailureReleasesExchange(t *testing.T) {
	ex := &fakeExchange{acceptErr: errors.New("KRB_AP_ERR_MODIFIED")}
	a := newTestAuthenticator(ex, nil)
	rc := identity.NewRequestContext("")

	err := a.Authenticate(context.Background(), negotiateHeader(t), rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, d.Status)
	assert.Contains(t, d.Message, "KRB_AP_ERR_MODIFIED")
	assert.Equal(t, 1, ex.released, "exchange must be released even on a failed step")
	assert.Nil(t, rc.User)
}

func TestAuthenticateContinueNeeded(t *testing.T) {
	ex := &fakeExchange{acceptErr: errContinueNeeded}
	a := newTestAuthenticator(ex, nil)
	rc := identity.NewRequestContext("")

	err := a.Authenticate(context.Background(), negotiateHeader(t), rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, d.Status)
	assert.Equal(t, ChallengeNegotiate, d.Challenge)
	assert.Equal(t, 1, ex.released)
}

func TestAuthenticateReleaseFailure(t *testing.T) {
	ex := &fakeExchange{principal: "alice@EXAMPLE.COM", releaseErr: errors.New("cleanup failed")}
	a := newTestAuthenticator(ex, nil)
	rc := identity.NewRequestContext("")

	err := a.Authenticate(context.Background(), negotiateHeader(t), rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, d.Status)
	assert.Nil(t, rc.User, "release failure invalidates the exchange")
}

func TestAuthenticateInitFailure(t *testing.T) {
	a := newTestAuthenticator(nil, errors.New("no key for HTTP/ca.example.com"))
	rc := identity.NewRequestContext("")

	err := a.Authenticate(context.Background(), negotiateHeader(t), rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, d.Status)
	assert.Contains(t, d.Message, "Authentication system failure")
}

func TestAuthenticateMalformedToken(t *testing.T) {
	a := newTestAuthenticator(&fakeExchange{}, nil)
	rc := identity.NewRequestContext("")

	err := a.Authenticate(context.Background(), "Negotiate %%%not-base64%%%", rc)
	d, ok := auth.AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, d.Status)
}
