package identity

// Directory is a bound directory session stored in a RequestContext so that
// the authentication, enrichment and authorization stages of one request can
// share a single connection. The concrete implementation lives in
// internal/directory; this interface keeps pkg/identity free of LDAP types.
type Directory interface {
	// Close releases the underlying connection. Safe to call once.
	Close() error
}

// RequestContext carries per-request authentication state through the
// middleware chain. It is created empty by the authentication middleware and
// mutated in place as stages succeed.
//
// Invariants:
//   - User is nil until authentication succeeds.
//   - Groups starts empty and only grows.
//
// A RequestContext is never shared across requests and needs no locking.
type RequestContext struct {
	// User is the authenticated identity, nil before authentication.
	User *User

	// RemoteAddr is the caller's network address, for logging only.
	RemoteAddr string

	groups    map[string]struct{}
	directory Directory
}

// NewRequestContext creates an empty request context.
func NewRequestContext(remoteAddr string) *RequestContext {
	return &RequestContext{
		RemoteAddr: remoteAddr,
		groups:     make(map[string]struct{}),
	}
}

// AddGroup records a proven group membership.
func (rc *RequestContext) AddGroup(name string) {
	rc.groups[name] = struct{}{}
}

// HasGroup reports whether membership in the named group has already been
// proven during this request.
func (rc *RequestContext) HasGroup(name string) bool {
	_, ok := rc.groups[name]
	return ok
}

// Groups returns the names of all groups proven so far.
func (rc *RequestContext) Groups() []string {
	names := make([]string, 0, len(rc.groups))
	for name := range rc.groups {
		names = append(names, name)
	}
	return names
}

// Directory returns the bound directory session for this request, or nil.
func (rc *RequestContext) Directory() Directory {
	return rc.directory
}

// SetDirectory stores a bound directory session for reuse by later stages.
// The middleware that owns the request releases it via ReleaseDirectory once
// the wrapped handler returns.
func (rc *RequestContext) SetDirectory(d Directory) {
	rc.directory = d
}

// ReleaseDirectory closes and forgets the bound directory session, if any.
// Connection lifetime is request-scoped regardless of which stage opened it.
func (rc *RequestContext) ReleaseDirectory() error {
	if rc.directory == nil {
		return nil
	}
	d := rc.directory
	rc.directory = nil
	return d.Close()
}
