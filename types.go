package goGrant

// PasswordGrantRequest defines a public type used by goGrant APIs.
//
// PasswordGrantRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordGrantRequest struct {
	// ApplicationID identifies the application issuing the tokens.
	ApplicationID string
	// DirectoryID is the tenant the login is attempted against. The primary
	// directory fallback applies when the principal is absent from it.
	DirectoryID string
	// Login is the principal's email or username.
	Login    string
	Password string
}

// ClientCredentialsGrantRequest defines a public type used by goGrant APIs.
//
// ClientCredentialsGrantRequest instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClientCredentialsGrantRequest struct {
	ApplicationID string
	// APIKey is the transport encoding base64(public ":" private).
	APIKey string
	// Scopes is the requested scope list. The granted scope is its
	// order-preserving intersection with the account's enabled group names.
	Scopes []string
}

// ScopeSummary describes one granted scope in an account summary.
type ScopeSummary struct {
	Href   string `json:"href"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// AccountSummary defines a public type used by goGrant APIs.
//
// AccountSummary instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountSummary struct {
	Href      string         `json:"href"`
	Status    string         `json:"status"`
	Email     string         `json:"email"`
	GivenName string         `json:"givenName"`
	Surname   string         `json:"surname"`
	Scopes    []ScopeSummary `json:"scopes"`
}

// TokenResponse is the terminal shape of every successful grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	// RefreshToken is empty for client-credentials grants.
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int    `json:"expires_in"`
	Scope     string `json:"scope"`
	// Account is omitted on machine-credential grants.
	Account *AccountSummary `json:"account,omitempty"`
}

const tokenTypeBearer = "bearer"
