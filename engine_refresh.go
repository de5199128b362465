package goGrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goGrant/token"
)

// RefreshGrant describes the refreshgrant operation and its observable behavior.
//
// RefreshGrant may return an error when input validation, dependency calls, or security checks fail.
// RefreshGrant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The cache is consulted before the signature: a refresh token absent from
// the cache is expired no matter what its signature says, because cache
// presence is the sole liveness authority for refresh tokens. The refresh
// token string is reused across refreshes; only the access token is re-minted.
//
// The application gate runs before signature verification because the
// signing key lives on the application record; a disabled application
// therefore surfaces as [ErrApplicationDisabled] rather than a token
// outcome. The account's directory must still be mapped to the application
// at refresh time; an unmapped tenant cannot keep minting access tokens off
// an old refresh token.
func (e *Engine) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	entry, err := e.cache.GetRefresh(ctx, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, "", "", "", err, nil)
		return nil, err
	}
	if entry == nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, "", "", "", ErrTokenExpired, func() map[string]string {
			return map[string]string{
				"reason": "not_in_cache",
			}
		})
		return nil, ErrTokenExpired
	}

	app, err := e.application(ctx, entry.Application)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, entry.Application, entry.Account, "", err, nil)
		return nil, err
	}

	tok, err := e.codec.Verify(refreshToken, app.SigningKey)
	if err != nil {
		outcome := classifyTokenError(err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, app.ID, entry.Account, "", outcome, nil)
		return nil, outcome
	}

	prin, err := e.principalByID(ctx, app.ID, tok.Claims.Account, true, ErrInvalidCredentials)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, app.ID, tok.Claims.Account, "", err, nil)
		return nil, err
	}

	groups, err := e.store.EnabledGroupsForAccount(ctx, prin.account.ID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}
	scope := joinedScope(groups)

	claims := e.grantClaims(app, prin, scope, grantTypePassword)
	access, err := e.codec.Mint(claims, app.SigningKey, token.SubtypeAccess, time.Duration(app.AccessTokenTTL)*time.Second)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshGrantFailure, grantTypeRefresh, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}

	e.cachePair(ctx, grantTypeRefresh, app, prin.account.ID, access, refreshToken)

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshGrantSuccess, grantTypeRefresh, true, app.ID, prin.account.ID, prin.directory.ID, nil, nil)

	resp := &TokenResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    app.AccessTokenTTL,
		Scope:        scope,
	}
	resp.Account = e.accountSummary(prin.account, groups)

	return resp, nil
}

// classifyTokenError maps codec verification failures onto the engine's
// token outcomes, keeping the expired case distinct so clients can fall back
// to a fresh password grant.
func classifyTokenError(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
