package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Subtype tags a token as one half of a token pair via the stt header field.
type Subtype string

const (
	// SubtypeAccess marks a short-lived, expiry-bounded access token.
	SubtypeAccess Subtype = "access"
	// SubtypeRefresh marks a refresh token; refresh tokens carry no exp claim.
	SubtypeRefresh Subtype = "refresh"
)

var (
	// ErrExpired reports that a token's signature verified but its exp claim
	// has passed. Callers surface this as a distinct "token expired" outcome.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports any other verification failure: malformed token,
	// forged signature, wrong key, unexpected algorithm.
	ErrInvalid = errors.New("invalid token")
)

// OrganizationClaim is the organization reference embedded in every token.
type OrganizationClaim struct {
	Href    string `json:"href"`
	NameKey string `json:"nameKey"`
}

// Claims defines a public type used by goGrant APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	Scope        string            `json:"scope"`
	Account      string            `json:"account"`
	Env          string            `json:"env"`
	Organization OrganizationClaim `json:"organization"`
	Grant        string            `json:"grant"`
	jwt.RegisteredClaims
}

// ScopeList splits the space-joined scope claim into its group names.
func (c *Claims) ScopeList() []string {
	if c.Scope == "" {
		return []string{}
	}
	return strings.Split(c.Scope, " ")
}

// IsPasswordGrant reports whether the token came out of a password flow.
func (c *Claims) IsPasswordGrant() bool {
	return c.Grant == "password"
}

// Token is a verified token: its claims plus the header fields the cache
// and engine key off.
type Token struct {
	Claims  *Claims
	KeyID   string
	Subtype Subtype
}

// Config defines a public type used by goGrant APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Leeway tolerated when validating exp, to absorb clock skew between
	// issuing and verifying hosts. Zero disables leeway.
	Leeway time.Duration
}

// Codec mints and verifies signed bearer tokens. The signing key is supplied
// per call because every application record carries its own key.
type Codec struct {
	config Config
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation fails.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Mint serializes claims into a compact signed token. The header carries
// kid = claims issuer and stt = subtype. A positive ttl sets the exp claim;
// access tokens always receive one, refresh tokens never do.
func (c *Codec) Mint(claims Claims, signingKey string, subtype Subtype, ttl time.Duration) (string, error) {
	if signingKey == "" {
		return "", errors.New("signing key required")
	}

	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ID = uuid.NewString()
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = claims.Issuer
	tok.Header["stt"] = string(subtype)

	return tok.SignedString([]byte(signingKey))
}

// Verify checks signature and expiry and returns the verified token.
// Expiry failures return [ErrExpired]; every other failure returns
// [ErrInvalid]. Tokens without an exp claim verify on signature alone.
func (c *Codec) Verify(tokenStr, signingKey string) (*Token, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(signingKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}

	kid, _ := tok.Header["kid"].(string)
	stt, _ := tok.Header["stt"].(string)

	return &Token{
		Claims:  claims,
		KeyID:   kid,
		Subtype: Subtype(stt),
	}, nil
}

// ExpiresWithin reports whether the token's exp claim falls inside the given
// window from now. Tokens without an exp claim never expire.
func (c *Codec) ExpiresWithin(tokenStr, signingKey string, window time.Duration) (bool, error) {
	tok, err := c.Verify(tokenStr, signingKey)
	if err != nil {
		return false, err
	}
	if tok.Claims.ExpiresAt == nil {
		return false, nil
	}
	return !tok.Claims.ExpiresAt.Time.Add(-window).After(time.Now()), nil
}

// ParseFromAuthorization extracts the bearer token from an Authorization
// header value. Missing or malformed headers yield the empty string.
func ParseFromAuthorization(authorization string) string {
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
