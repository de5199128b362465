package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/token"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level cache failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	fieldApplication  = "application"
	fieldAccount      = "account"
	fieldAccessToken  = "accessToken"
	fieldRefreshToken = "refreshToken"
)

// PutStatus reports the outcome of one token's cache insertion.
type PutStatus int

const (
	// PutSkipped means the token failed verification and was not inserted.
	// Skipping never aborts insertion of the counterpart token.
	PutSkipped PutStatus = iota
	// PutInserted means the token verified and its entry was written.
	PutInserted
)

// PairResult carries the per-token outcome of a PutPair call.
type PairResult struct {
	Access  PutStatus
	Refresh PutStatus
}

// Entry is one cached token record.
type Entry struct {
	Application string
	Account     string
	// PairedToken is the opposite member of the token pair, empty when the
	// token was cached unpaired (client-credentials grants, or a counterpart
	// that failed verification).
	PairedToken string
}

// Cache is the Redis-backed token pair store. Safe for concurrent use.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	codec  *token.Codec
}

// NewCache describes the newcache operation and its observable behavior.
//
// NewCache does not touch Redis; connection failures surface on first use.
func NewCache(client redis.UniversalClient, prefix string, codec *token.Codec) *Cache {
	if prefix == "" {
		prefix = "goGrant"
	}
	return &Cache{
		redis:  client,
		prefix: prefix,
		codec:  codec,
	}
}

func (c *Cache) accessKey(tok string) string {
	return c.prefix + ":accessToken:" + tok
}

func (c *Cache) refreshKey(tok string) string {
	return c.prefix + ":refreshToken:" + tok
}

// PutPair verifies both tokens against signingKey and inserts an entry for
// each one that verifies. A token failing verification is skipped without
// aborting its counterpart. The cross-pair link is only written when both
// members verified, so the cache never holds a half-linked pair.
func (c *Cache) PutPair(ctx context.Context, signingKey, accessToken, refreshToken string) (PairResult, error) {
	var result PairResult

	accessTok, accessErr := c.codec.Verify(accessToken, signingKey)
	refreshTok, refreshErr := c.codec.Verify(refreshToken, signingKey)
	paired := accessErr == nil && refreshErr == nil

	if accessErr == nil {
		pairedToken := ""
		if paired {
			pairedToken = refreshToken
		}
		if err := c.put(ctx, c.accessKey(accessToken), accessTok, fieldRefreshToken, pairedToken); err != nil {
			return result, err
		}
		result.Access = PutInserted
	}

	if refreshErr == nil {
		pairedToken := ""
		if paired {
			pairedToken = accessToken
		}
		if err := c.put(ctx, c.refreshKey(refreshToken), refreshTok, fieldAccessToken, pairedToken); err != nil {
			return result, err
		}
		result.Refresh = PutInserted
	}

	return result, nil
}

// PutAccessOnly verifies and inserts a lone access token with no pairing,
// for grants that mint no refresh token.
func (c *Cache) PutAccessOnly(ctx context.Context, signingKey, accessToken string) (PutStatus, error) {
	accessTok, err := c.codec.Verify(accessToken, signingKey)
	if err != nil {
		return PutSkipped, nil
	}
	if err := c.put(ctx, c.accessKey(accessToken), accessTok, fieldRefreshToken, ""); err != nil {
		return PutSkipped, err
	}
	return PutInserted, nil
}

func (c *Cache) put(ctx context.Context, key string, tok *token.Token, pairField, pairValue string) error {
	fields := map[string]interface{}{
		fieldApplication: tok.KeyID,
		fieldAccount:     tok.Claims.Account,
	}
	if pairValue != "" {
		fields[pairField] = pairValue
	}

	ttl := entryTTL(tok)

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// entryTTL mirrors the token's own exp claim. Tokens without exp get no TTL:
// their liveness is governed entirely by cache presence.
func entryTTL(tok *token.Token) time.Duration {
	if tok.Claims.ExpiresAt == nil {
		return 0
	}
	ttl := time.Until(tok.Claims.ExpiresAt.Time)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}

// GetAccess looks up an access token entry. Absent entries return (nil, nil).
func (c *Cache) GetAccess(ctx context.Context, accessToken string) (*Entry, error) {
	return c.get(ctx, c.accessKey(accessToken), fieldRefreshToken)
}

// GetRefresh looks up a refresh token entry. Absent entries return (nil, nil).
func (c *Cache) GetRefresh(ctx context.Context, refreshToken string) (*Entry, error) {
	return c.get(ctx, c.refreshKey(refreshToken), fieldAccessToken)
}

func (c *Cache) get(ctx context.Context, key, pairField string) (*Entry, error) {
	fields, err := c.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	return &Entry{
		Application: fields[fieldApplication],
		Account:     fields[fieldAccount],
		PairedToken: fields[pairField],
	}, nil
}

// DeleteAccess removes an access token entry. Deleting an absent entry is a
// no-op.
func (c *Cache) DeleteAccess(ctx context.Context, accessToken string) error {
	if err := c.redis.Del(ctx, c.accessKey(accessToken)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// DeleteRefresh removes a refresh token entry. Deleting an absent entry is a
// no-op.
func (c *Cache) DeleteRefresh(ctx context.Context, refreshToken string) error {
	if err := c.redis.Del(ctx, c.refreshKey(refreshToken)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (c *Cache) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
