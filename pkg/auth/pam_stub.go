//go:build !linux || !cgo

package auth

import "errors"

// checkPAMCredentials is unavailable without cgo and a Linux PAM stack.
func checkPAMCredentials(service, username, password string) error {
	return errors.New("PAM authentication requires cgo on Linux")
}
