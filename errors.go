package goGrant

import "errors"

var (
	// ErrApplicationNotFound is an exported constant or variable used by the grant engine.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrApplicationDisabled is an exported constant or variable used by the grant engine.
	ErrApplicationDisabled = errors.New("application disabled")
	// ErrDirectoryNotFound is an exported constant or variable used by the grant engine.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrDirectoryDisabled is an exported constant or variable used by the grant engine.
	ErrDirectoryDisabled = errors.New("directory disabled")
	// ErrDirectoryNotInApplication is an exported constant or variable used by the grant engine.
	ErrDirectoryNotInApplication = errors.New("directory not mapped to application")
	// ErrOrganizationNotFound is an exported constant or variable used by the grant engine.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrPrimaryDirectoryNotFound is an exported constant or variable used by the grant engine.
	ErrPrimaryDirectoryNotFound = errors.New("primary directory not found")
	// ErrInvalidCredentials is an exported constant or variable used by the grant engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAPIKey is an exported constant or variable used by the grant engine.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenExpired is an exported constant or variable used by the grant engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is an exported constant or variable used by the grant engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineNotReady is an exported constant or variable used by the grant engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// IsConfigurationError reports whether err signals operator-facing tenant
// misconfiguration: a missing or disabled application, directory, or
// organization rather than bad end-user input.
func IsConfigurationError(err error) bool {
	switch {
	case errors.Is(err, ErrApplicationNotFound),
		errors.Is(err, ErrApplicationDisabled),
		errors.Is(err, ErrDirectoryNotFound),
		errors.Is(err, ErrDirectoryDisabled),
		errors.Is(err, ErrDirectoryNotInApplication),
		errors.Is(err, ErrOrganizationNotFound),
		errors.Is(err, ErrPrimaryDirectoryNotFound):
		return true
	}
	return false
}

// IsAuthenticationFailure reports whether err signals a user-facing credential
// rejection. These are deliberately undifferentiated beyond password versus
// api-key so callers cannot build an account enumeration oracle out of them.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidAPIKey)
}
