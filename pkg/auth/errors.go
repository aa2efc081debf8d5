package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error values for failure classification.
var (
	// ErrBackendNotSupported indicates an unrecognized backend name in the
	// configuration. This is fatal: the capability refuses to serve.
	ErrBackendNotSupported = errors.New("auth: backend not supported")

	// ErrDataIntegrity indicates that an authenticated principal could not
	// be substantiated by the accounts or directory backend (missing
	// account entry, group membership the directory cannot confirm).
	// Distinct from a denial: it signals a data problem, not bad
	// credentials.
	ErrDataIntegrity = errors.New("auth: data integrity error")
)

// Denial is a classified authentication or authorization failure surfaced to
// the caller with an HTTP status, a human-readable message and, for
// Unauthorized outcomes, the challenge a compliant client needs to retry
// with credentials.
type Denial struct {
	// Status is http.StatusUnauthorized or http.StatusForbidden.
	Status int

	// Message is the human-readable explanation sent to the caller.
	Message string

	// Challenge is the WWW-Authenticate value to send alongside an
	// Unauthorized response ("Negotiate" or "Basic"). Empty for Forbidden.
	Challenge string

	// Err is the underlying mechanism error, if any.
	Err error
}

func (d *Denial) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %v", d.Message, d.Err)
	}
	return d.Message
}

func (d *Denial) Unwrap() error { return d.Err }

// Unauthorized builds a 401 denial with the given challenge.
func Unauthorized(challenge, message string) *Denial {
	return &Denial{Status: http.StatusUnauthorized, Message: message, Challenge: challenge}
}

// Forbidden builds a 403 denial. The caller authenticated (or presented a
// malformed scheme) but is not entitled.
func Forbidden(message string) *Denial {
	return &Denial{Status: http.StatusForbidden, Message: message}
}

// AsDenial extracts a *Denial from an error chain.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
