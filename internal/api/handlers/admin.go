package handlers

import (
	"net/http"

	"github.com/certgate/certgate/pkg/identity"
)

// AdminResponse describes the administrative view of the service.
type AdminResponse struct {
	User     string   `json:"user"`
	Groups   []string `json:"groups,omitempty"`
	Backends Backends `json:"backends"`
}

// Backends lists the backend names resolved at startup.
type Backends struct {
	Authentication string `json:"authentication"`
	Accounts       string `json:"accounts"`
	Authorization  string `json:"authorization"`
}

// AdminHandler serves the administrative endpoint. Mounted behind the
// admin authorization rule; by the time it runs the caller is an
// authenticated administrator.
type AdminHandler struct {
	backends Backends
}

// NewAdminHandler creates the admin endpoint.
func NewAdminHandler(backends Backends) *AdminHandler {
	return &AdminHandler{backends: backends}
}

// Get serves GET /api/v1/admin.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc := identity.FromContext(r.Context())
	if rc == nil || rc.User == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	WriteJSONOK(w, AdminResponse{
		User:     rc.User.Name,
		Groups:   rc.Groups(),
		Backends: h.backends,
	})
}
