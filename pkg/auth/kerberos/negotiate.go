package kerberos

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmturner/goidentity/v6"
	"github.com/jcmturner/gokrb5/v8/gssapi"
	"github.com/jcmturner/gokrb5/v8/service"
	"github.com/jcmturner/gokrb5/v8/spnego"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/auth"
	"github.com/certgate/certgate/pkg/identity"
)

// ChallengeNegotiate is the WWW-Authenticate value for the SPNEGO backend.
const ChallengeNegotiate = "Negotiate"

// errContinueNeeded reports an inconclusive exchange: the mechanism wants
// more rounds, which this backend does not support.
var errContinueNeeded = errors.New("kerberos: negotiation incomplete, more rounds expected")

// exchange is one server-side SPNEGO token exchange. Release must be called
// exactly once on every path, success or failure.
type exchange interface {
	// Accept validates the client token and returns the authenticated
	// principal. Returns errContinueNeeded for an inconclusive exchange.
	Accept(token []byte) (principal string, err error)

	// Release frees any state held by the exchange.
	Release() error
}

// Authenticator implements auth.Authenticator for HTTP Negotiate.
type Authenticator struct {
	provider *Provider

	// newExchange builds a fresh exchange per request. Replaceable in
	// tests to inject mechanism failures.
	newExchange func() (exchange, error)
}

var _ auth.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates the SPNEGO backend on top of an initialized
// Provider.
func NewAuthenticator(p *Provider) *Authenticator {
	a := &Authenticator{provider: p}
	a.newExchange = a.spnegoExchange
	return a
}

// Name implements auth.Authenticator.
func (a *Authenticator) Name() string { return "kerberos" }

// Authenticate performs the server side of the SPNEGO exchange.
//
// Outcomes follow the backend contract: no credentials offered yields a
// Negotiate challenge with Unauthorized; mechanism-level failures during
// the exchange are Forbidden with the mechanism's error text; an
// inconclusive (continue-needed) exchange and a failed release are
// Unauthorized. The exchange state is released on every path.
func (a *Authenticator) Authenticate(ctx context.Context, authorization string, rc *identity.RequestContext) error {
	if authorization == "" {
		logger.Debug("no Kerberos ticket offered", "remote_addr", rc.RemoteAddr)
		return auth.Unauthorized(ChallengeNegotiate,
			"No Kerberos ticket offered, are you sure you've logged in with a domain user account?")
	}

	fields := strings.Fields(authorization)
	if len(fields) < 2 {
		return auth.Forbidden(fmt.Sprintf("Bad header: %s", authorization))
	}
	token, err := base64.StdEncoding.DecodeString(strings.Join(fields[1:], ""))
	if err != nil {
		return auth.Forbidden("Bad credentials: malformed negotiate token")
	}

	ex, err := a.newExchange()
	if err != nil {
		d := auth.Forbidden(fmt.Sprintf("Authentication system failure: %v", err))
		d.Err = err
		return d
	}

	principal, stepErr := ex.Accept(token)
	releaseErr := ex.Release()

	if releaseErr != nil {
		logger.Error("failed to release negotiation state", "error", releaseErr)
		return auth.Unauthorized(ChallengeNegotiate, "Authentication system failure")
	}
	if errors.Is(stepErr, errContinueNeeded) {
		return auth.Unauthorized(ChallengeNegotiate, "Tried GSSAPI")
	}
	if stepErr != nil {
		d := auth.Forbidden(fmt.Sprintf("Bad credentials: %v", stepErr))
		d.Err = stepErr
		return d
	}

	rc.User = identity.Parse(principal)
	logger.Debug("negotiate exchange complete", "principal", principal, "remote_addr", rc.RemoteAddr)
	return nil
}

// spnegoExchange builds the real gokrb5-backed exchange from the current
// keytab. The keytab read is what makes hot-reload effective per request.
func (a *Authenticator) spnegoExchange() (exchange, error) {
	svc := spnego.SPNEGOService(a.provider.Keytab(),
		service.KeytabPrincipal(a.provider.ServicePrincipal()),
		service.MaxClockSkew(a.provider.MaxClockSkew()),
	)
	return &gokrbExchange{svc: svc}, nil
}

// ctxKeyCredentials mirrors gokrb5's unexported spnego context key under
// which AcceptSecContext stores the authenticated identity. The library
// uses a plain string key, so an equal string retrieves the value.
const ctxKeyCredentials = "github.com/jcmturner/gokrb5/v8/ctxCredentials"

type gokrbExchange struct {
	svc *spnego.SPNEGO
}

func (g *gokrbExchange) Accept(token []byte) (string, error) {
	var st spnego.SPNEGOToken
	if err := st.Unmarshal(token); err != nil {
		return "", fmt.Errorf("unmarshal SPNEGO token: %w", err)
	}

	authed, ctx, status := g.svc.AcceptSecContext(&st)
	switch status.Code {
	case gssapi.StatusComplete:
		// fall through to credential extraction
	case gssapi.StatusContinueNeeded:
		return "", errContinueNeeded
	default:
		return "", fmt.Errorf("%s (%d)", status.Message, status.Code)
	}
	if !authed {
		return "", fmt.Errorf("negotiation rejected")
	}

	creds, ok := ctx.Value(ctxKeyCredentials).(goidentity.Identity)
	if !ok {
		return "", fmt.Errorf("no credentials in accepted context")
	}

	principal := creds.UserName()
	if domain := creds.Domain(); domain != "" {
		principal = principal + "@" + domain
	}
	return principal, nil
}

// Release implements exchange. gokrb5 holds no out-of-band mechanism state,
// so there is nothing to free; the method exists so the caller's release
// obligation is uniform across implementations.
func (g *gokrbExchange) Release() error { return nil }
