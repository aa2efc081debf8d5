// Package kerberos implements the Kerberos/SPNEGO authentication backend.
//
// This package wraps the gokrb5 library to provide:
//   - Keytab loading with environment variable overrides and hot-reload
//   - Canonical service principal resolution (HTTP/<fqdn>)
//   - The server side of the SPNEGO token exchange for HTTP Negotiate
//
// The service principal and keytab are process-level preconditions: New
// fails when the keytab is missing, unreadable, or does not contain usable
// credential material, and the server refuses to start. Per-request token
// exchanges then share the loaded keytab, which is read-only and safe for
// concurrent use by independent exchanges.
//
// Multi-round SPNEGO negotiation is not supported: a continue-needed
// outcome fails the request as Unauthorized.
package kerberos
