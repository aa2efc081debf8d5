package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/authz"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

type fakeResolver struct {
	domain string
	err    error
}

func (r *fakeResolver) Name() string { return "posix" }

func (r *fakeResolver) Resolve(ctx context.Context, rc *identity.RequestContext) error {
	if r.err != nil {
		return r.err
	}
	rc.User.Mail = rc.User.Name + "@" + r.domain
	return nil
}

type fakeDirectory struct {
	closed int
}

func (d *fakeDirectory) Close() error {
	d.closed++
	return nil
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func testPipeline(t *testing.T, resolver *fakeResolver) *Pipeline {
	t.Helper()
	cfg := &config.AuthConfig{PAMService: "sshd", Domain: "example.com"}
	authenticator := auth.NewPAMAuthenticatorWithChecker(cfg, func(service, username, password string) error {
		if username == "alice" && password == "secret" {
			return nil
		}
		return errors.New("authentication failure")
	})
	if resolver == nil {
		resolver = &fakeResolver{domain: "example.com"}
	}
	admin := authz.NewWhitelist([]string{"alice@example.com"})
	return NewPipeline(authenticator, resolver, admin, nil)
}

func TestRequireAuthenticatesAndEnriches(t *testing.T) {
	p := testPipeline(t, nil)

	calls := 0
	handler := p.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		rc := identity.FromContext(r.Context())
		require.NotNil(t, rc)
		assert.Equal(t, "alice", rc.User.Name)
		assert.Equal(t, "alice@example.com", rc.User.Mail)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls, "wrapped handler must run exactly once")
}

func TestRequireMissingCredentials(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Basic", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRequireBadPassword(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with bad credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("alice", "wrong"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Basic", rec.Header().Get("WWW-Authenticate"))
}

func TestRequireDataIntegrityFailure(t *testing.T) {
	p := testPipeline(t, &fakeResolver{err: auth.ErrDataIntegrity})

	handler := p.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when enrichment fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireReleasesDirectory(t *testing.T) {
	p := testPipeline(t, nil)

	dir := &fakeDirectory{}
	handler := p.Require()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity.FromContext(r.Context()).SetDirectory(dir)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, dir.closed, "directory connection released after the handler returns")
}

func TestOptionalSkipsAuthentication(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, identity.FromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuthenticatesOnRequest(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := identity.FromContext(r.Context())
		require.NotNil(t, rc)
		assert.Equal(t, "alice", rc.User.Name)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/?authenticate", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalStaysAnonymousOnFalseValue(t *testing.T) {
	p := testPipeline(t, nil)

	for _, value := range []string{"false", "0", "False", "garbage"} {
		t.Run(value, func(t *testing.T) {
			handler := p.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Nil(t, identity.FromContext(r.Context()))
				w.WriteHeader(http.StatusOK)
			}))

			// no Authorization header: a true value would answer 401
			req := httptest.NewRequest(http.MethodGet, "/?authenticate="+value, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestOptionalAuthenticatesOnTrueValue(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := identity.FromContext(r.Context())
		require.NotNil(t, rc)
		assert.Equal(t, "alice", rc.User.Name)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/?authenticate=true", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalRejectsBadCredentialsWhenRequested(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.Optional()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run when requested authentication fails")
	}))

	req := httptest.NewRequest(http.MethodGet, "/?authenticate", nil)
	req.Header.Set("Authorization", basicHeader("alice", "wrong"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func adminChain(p *Pipeline, next http.Handler) http.Handler {
	return p.Require()(p.RequireAdmin()(next))
}

func TestRequireAdminAllowsWhitelisted(t *testing.T) {
	p := testPipeline(t, nil)

	handler := adminChain(p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("alice", "secret"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRejectsOthers(t *testing.T) {
	cfg := &config.AuthConfig{PAMService: "sshd", Domain: "example.com"}
	authenticator := auth.NewPAMAuthenticatorWithChecker(cfg, func(service, username, password string) error {
		return nil
	})
	admin := authz.NewWhitelist([]string{"alice@example.com"})
	p := NewPipeline(authenticator, &fakeResolver{domain: "example.com"}, admin, nil)

	handler := adminChain(p, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for non-whitelisted users")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", basicHeader("bob", "whatever"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminWithoutPipeline(t *testing.T) {
	p := testPipeline(t, nil)

	handler := p.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without an established request context")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
