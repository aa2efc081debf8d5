//go:build linux && cgo

package auth

import (
	"fmt"

	"github.com/msteinert/pam/v2"
)

// checkPAMCredentials runs a password-style PAM conversation against the
// named service.
func checkPAMCredentials(service, username, password string) error {
	tx, err := pam.StartFunc(service, username, func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff, pam.PromptEchoOn:
			return password, nil
		case pam.ErrorMsg, pam.TextInfo:
			return "", nil
		default:
			return "", fmt.Errorf("unsupported PAM conversation style %d", style)
		}
	})
	if err != nil {
		return fmt.Errorf("start PAM transaction for service %s: %w", service, err)
	}
	defer func() { _ = tx.End() }()

	return tx.Authenticate(0)
}
