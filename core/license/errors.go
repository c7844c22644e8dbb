package license

import "github.com/pkg/errors"

var (
	// ErrCredentialsNotConfigured is returned when the Zoom Server-to-Server
	// OAuth app credentials are missing from configuration.
	ErrCredentialsNotConfigured = errors.New("zoom credentials not configured")

	// ErrInvalidLicenseID is returned when a license id falls outside 1..N.
	ErrInvalidLicenseID = errors.New("license id out of range")

	// ErrLicenseNotConfigured is returned when a license id is in range but
	// has no Zoom host mapped to it.
	ErrLicenseNotConfigured = errors.New("license has no zoom host configured")
)

// UpstreamAuthError indicates the OAuth credential exchange with Zoom failed,
// either because credentials are missing or the exchange returned a
// non-success status.
type UpstreamAuthError struct {
	Err error
}

func (e *UpstreamAuthError) Error() string { return "zoom auth: " + e.Err.Error() }
func (e *UpstreamAuthError) Unwrap() error { return e.Err }
func (e *UpstreamAuthError) Cause() error  { return e.Err }

// UpstreamPresenceError indicates a presence fetch failed after (or while)
// obtaining a token.
type UpstreamPresenceError struct {
	Host string
	Err  error
}

func (e *UpstreamPresenceError) Error() string {
	return "zoom presence (" + e.Host + "): " + e.Err.Error()
}
func (e *UpstreamPresenceError) Unwrap() error { return e.Err }
func (e *UpstreamPresenceError) Cause() error  { return e.Err }
