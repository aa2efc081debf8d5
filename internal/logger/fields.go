package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Request Correlation
	// ========================================================================
	KeyRequestID = "request_id" // Per-request correlation ID
	KeyClientIP  = "client_ip"  // Client IP address (without port)

	// ========================================================================
	// Identity
	// ========================================================================
	KeyUser      = "user"      // Authenticated account name
	KeyPrincipal = "principal" // Raw principal as presented by the client
	KeyMail      = "mail"      // Resolved mail address
	KeyDN        = "dn"        // Directory distinguished name
	KeyDomain    = "domain"    // Kerberos realm / account domain
	KeyGroup     = "group"     // Group name in authorization checks

	// ========================================================================
	// Backends
	// ========================================================================
	KeyBackend  = "backend"   // Backend in use: kerberos, ldap, pam, posix, whitelist
	KeyStage    = "stage"     // Pipeline stage: authenticate, accounts, authorize
	KeyServer   = "server"    // Directory server URL
	KeyService  = "service"   // PAM service name
	KeyKeytab   = "keytab"    // Keytab file path
	KeyGroupDB  = "group_db"  // Local group database path
	KeyTemplate = "template"  // Search filter template
	KeyBaseDN   = "base_dn"   // Directory search base

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyStatus     = "status"      // HTTP status code of the outcome
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyPath       = "path"        // Request path or file path
	KeyMethod     = "method"      // HTTP method
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// RequestID returns a slog.Attr for the per-request correlation ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// User returns a slog.Attr for the authenticated account name
func User(name string) slog.Attr {
	return slog.String(KeyUser, name)
}

// Principal returns a slog.Attr for the raw principal
func Principal(p string) slog.Attr {
	return slog.String(KeyPrincipal, p)
}

// Mail returns a slog.Attr for the resolved mail address
func Mail(addr string) slog.Attr {
	return slog.String(KeyMail, addr)
}

// DN returns a slog.Attr for a distinguished name
func DN(dn string) slog.Attr {
	return slog.String(KeyDN, dn)
}

// Domain returns a slog.Attr for realm/domain name
func Domain(name string) slog.Attr {
	return slog.String(KeyDomain, name)
}

// Group returns a slog.Attr for a group name
func Group(name string) slog.Attr {
	return slog.String(KeyGroup, name)
}

// Backend returns a slog.Attr for the backend in use
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Stage returns a slog.Attr for the pipeline stage
func Stage(name string) slog.Attr {
	return slog.String(KeyStage, name)
}

// Server returns a slog.Attr for a directory server URL
func Server(url string) slog.Attr {
	return slog.String(KeyServer, url)
}

// Service returns a slog.Attr for a PAM service name
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Keytab returns a slog.Attr for a keytab file path
func Keytab(path string) slog.Attr {
	return slog.String(KeyKeytab, path)
}

// GroupDB returns a slog.Attr for the local group database path
func GroupDB(path string) slog.Attr {
	return slog.String(KeyGroupDB, path)
}

// Status returns a slog.Attr for the HTTP status of the outcome
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Path returns a slog.Attr for a request or file path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Method returns a slog.Attr for an HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}
