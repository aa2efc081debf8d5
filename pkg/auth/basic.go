package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ChallengeBasic is the WWW-Authenticate value for Basic backends.
const ChallengeBasic = "Basic"

// ParseBasic extracts the username and password from an Authorization header
// carrying Basic credentials.
//
// Failure classification follows the backend contract: a missing header is
// Unauthorized with a Basic challenge (the caller should retry with
// credentials), any scheme other than Basic is Forbidden, and an undecodable
// credential pair is Forbidden.
func ParseBasic(authorization, realm string) (username, password string, err error) {
	if authorization == "" {
		return "", "", Unauthorized(ChallengeBasic, realm)
	}

	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return "", "", Forbidden(fmt.Sprintf("Bad header: %s", authorization))
	}

	decoded, decodeErr := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if decodeErr != nil {
		return "", "", Forbidden("Malformed Basic credentials")
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", Forbidden("Malformed Basic credentials")
	}
	return username, password, nil
}

// BasicHeader encodes a credential pair as an Authorization header value.
func BasicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// QualifyUPN appends "@domain" to a bare username. Usernames that already
// carry a domain are returned unchanged.
func QualifyUPN(username, domain string) string {
	if strings.Contains(username, "@") || domain == "" {
		return username
	}
	return username + "@" + domain
}
