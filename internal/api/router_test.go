package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certgate/certgate/internal/api/handlers"
	apimiddleware "github.com/certgate/certgate/internal/api/middleware"
	"github.com/certgate/certgate/pkg/accounts"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/authz"
	"github.com/certgate/certgate/pkg/config"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.AuthConfig{
		Backend:    config.AuthPAM,
		Accounts:   config.AccountsPOSIX,
		PAMService: "sshd",
		Domain:     "example.com",
	}
	authenticator := auth.NewPAMAuthenticatorWithChecker(cfg, func(service, username, password string) error {
		if username == "alice" && password == "secret" {
			return nil
		}
		return assert.AnError
	})
	resolver, err := accounts.New(cfg, nil)
	require.NoError(t, err)
	admin := authz.NewWhitelist([]string{"alice@example.com"})

	pipeline := apimiddleware.NewPipeline(authenticator, resolver, admin, nil)
	return NewRouter(pipeline, RouterConfig{
		Backends: handlers.Backends{
			Authentication: authenticator.Name(),
			Accounts:       resolver.Name(),
			Authorization:  admin.Name(),
		},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestSessionAnonymous(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
}

func TestSessionRequiresCredentialsWhenRequested(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session?authenticate", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Basic", rec.Header().Get("WWW-Authenticate"))
}

func TestAdminRequiresAuthentication(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
