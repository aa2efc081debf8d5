package auth

import (
	"context"

	"github.com/certgate/certgate/internal/logger"
	"github.com/certgate/certgate/pkg/config"
	"github.com/certgate/certgate/pkg/identity"
)

// CredentialChecker validates a username/password pair against a local
// account service. The default implementation talks to PAM; tests inject
// their own.
type CredentialChecker func(service, username, password string) error

// PAMAuthenticator authenticates Basic credentials against the local PAM
// stack.
type PAMAuthenticator struct {
	cfg   *config.AuthConfig
	check CredentialChecker
}

var _ Authenticator = (*PAMAuthenticator)(nil)

// NewPAMAuthenticator creates the PAM backend checking against the
// configured service (default "sshd").
func NewPAMAuthenticator(cfg *config.AuthConfig) *PAMAuthenticator {
	return &PAMAuthenticator{cfg: cfg, check: checkPAMCredentials}
}

// NewPAMAuthenticatorWithChecker creates a PAM backend with a custom
// credential checker, for tests.
func NewPAMAuthenticatorWithChecker(cfg *config.AuthConfig, check CredentialChecker) *PAMAuthenticator {
	return &PAMAuthenticator{cfg: cfg, check: check}
}

// Name implements Authenticator.
func (a *PAMAuthenticator) Name() string { return "pam" }

// Authenticate decodes the Basic credential pair and checks it against the
// configured PAM service.
func (a *PAMAuthenticator) Authenticate(ctx context.Context, authorization string, rc *identity.RequestContext) error {
	username, password, err := ParseBasic(authorization, "Please authenticate")
	if err != nil {
		return err
	}

	if err := a.check(a.cfg.PAMService, username, password); err != nil {
		logger.Debug("PAM authentication rejected", "username", username, "service", a.cfg.PAMService)
		return Unauthorized(ChallengeBasic, "Invalid password")
	}

	rc.User = identity.Parse(username)
	return nil
}
