// Package middleware provides the HTTP authentication pipeline.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/certgate/certgate/internal/api/handlers"
	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/internal/metrics"
	"github.com/certgate/certgate/pkg/accounts"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/authz"
	"github.com/certgate/certgate/pkg/identity"
)

// Pipeline wires the configured backends into HTTP middleware. The three
// stages always run in order: authenticate, resolve account attributes,
// authorize. Backends are resolved once at startup; a request never
// consults the configuration.
type Pipeline struct {
	authenticator auth.Authenticator
	resolver      accounts.Resolver
	admin         authz.Authorizer
	metrics       *metrics.AuthMetrics
}

// NewPipeline builds the middleware pipeline from resolved backends.
// metrics may be nil when the metrics server is disabled.
func NewPipeline(a auth.Authenticator, r accounts.Resolver, admin authz.Authorizer, m *metrics.AuthMetrics) *Pipeline {
	return &Pipeline{authenticator: a, resolver: r, admin: admin, metrics: m}
}

// Require authenticates every request and enriches the account before the
// handler runs. Any directory connection opened along the way is released
// when the handler returns.
func (p *Pipeline) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := p.establish(w, r)
			if !ok {
				return
			}
			defer func() { _ = rc.ReleaseDirectory() }()

			next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), rc)))
		})
	}
}

// Optional authenticates only when the client asks for it with the
// "authenticate" query parameter. Anonymous requests proceed with no
// request context.
func (p *Pipeline) Optional() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !wantsAuthentication(r) {
				next.ServeHTTP(w, r)
				return
			}

			rc, ok := p.establish(w, r)
			if !ok {
				return
			}
			defer func() { _ = rc.ReleaseDirectory() }()

			next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), rc)))
		})
	}
}

// RequireAdmin runs the administrative authorization rule. Must be used
// after Require.
func (p *Pipeline) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := identity.FromContext(r.Context())
			if rc == nil {
				handlers.Unauthorized(w, "Authentication required")
				return
			}

			start := time.Now()
			err := p.admin.Authorize(r.Context(), rc)
			p.metrics.RecordStageDuration("authorize", time.Since(start))

			if err != nil {
				p.metrics.RecordAuthzDecision(p.admin.Name(), failureResult(err))
				p.writeFailure(w, r, err)
				return
			}
			p.metrics.RecordAuthzDecision(p.admin.Name(), "allowed")

			next.ServeHTTP(w, r)
		})
	}
}

// establish runs authentication and account enrichment. On failure the
// response has already been written and the returned context must not be
// used.
func (p *Pipeline) establish(w http.ResponseWriter, r *http.Request) (*identity.RequestContext, bool) {
	rc := identity.NewRequestContext(r.RemoteAddr)

	start := time.Now()
	err := p.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"), rc)
	p.metrics.RecordStageDuration("authenticate", time.Since(start))

	if err != nil {
		p.metrics.RecordAuthAttempt(p.authenticator.Name(), failureResult(err))
		_ = rc.ReleaseDirectory()
		p.writeFailure(w, r, err)
		return nil, false
	}
	p.metrics.RecordAuthAttempt(p.authenticator.Name(), "success")

	start = time.Now()
	err = p.resolver.Resolve(r.Context(), rc)
	p.metrics.RecordStageDuration("accounts", time.Since(start))

	if err != nil {
		_ = rc.ReleaseDirectory()
		p.writeFailure(w, r, err)
		return nil, false
	}

	return rc, true
}

// writeFailure maps a pipeline error onto the wire: denials keep their
// status and challenge, data-integrity failures and everything else
// surface as 500.
func (p *Pipeline) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if d, ok := auth.AsDenial(err); ok {
		if d.Status == http.StatusUnauthorized && d.Challenge != "" {
			w.Header().Set("WWW-Authenticate", d.Challenge)
		}
		logger.Debug("request denied",
			logger.KeyClientIP, r.RemoteAddr,
			logger.KeyStatus, d.Status,
			logger.KeyError, d.Message)
		handlers.WriteProblem(w, d.Status, http.StatusText(d.Status), d.Message)
		return
	}

	if errors.Is(err, auth.ErrDataIntegrity) {
		logger.Error("account data integrity failure",
			logger.KeyClientIP, r.RemoteAddr,
			logger.KeyError, err.Error())
		handlers.InternalServerError(w, err.Error())
		return
	}

	logger.Error("authentication pipeline failure",
		logger.KeyClientIP, r.RemoteAddr,
		logger.KeyError, err.Error())
	handlers.InternalServerError(w, "Authentication pipeline failure")
}

// wantsAuthentication reads the boolean "authenticate" query parameter. A
// bare parameter with no value counts as true; an explicit false value
// ("0", "false") or an unparsable one keeps the request anonymous.
func wantsAuthentication(r *http.Request) bool {
	q := r.URL.Query()
	if !q.Has("authenticate") {
		return false
	}
	v := q.Get("authenticate")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func failureResult(err error) string {
	if _, ok := auth.AsDenial(err); ok {
		return "denied"
	}
	return "error"
}
