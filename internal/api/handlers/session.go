package handlers

import (
	"net/http"

	"github.com/certgate/certgate/pkg/identity"
)

// SessionResponse describes the caller's resolved identity.
type SessionResponse struct {
	Authenticated bool     `json:"authenticated"`
	User          string   `json:"user,omitempty"`
	Name          string   `json:"name,omitempty"`
	Mail          string   `json:"mail,omitempty"`
	GivenName     string   `json:"given_name,omitempty"`
	Surname       string   `json:"surname,omitempty"`
	Groups        []string `json:"groups,omitempty"`
}

// SessionHandler reports who the caller is. Mounted behind optional
// authentication: anonymous callers get an unauthenticated session, callers
// passing the authenticate query parameter get their resolved identity.
type SessionHandler struct{}

// NewSessionHandler creates the session endpoint.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get serves GET /api/v1/session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc := identity.FromContext(r.Context())
	if rc == nil || rc.User == nil {
		WriteJSONOK(w, SessionResponse{Authenticated: false})
		return
	}

	u := rc.User
	WriteJSONOK(w, SessionResponse{
		Authenticated: true,
		User:          u.Name,
		Name:          u.String(),
		Mail:          u.Mail,
		GivenName:     u.GivenName,
		Surname:       u.Surname,
		Groups:        rc.Groups(),
	})
}
