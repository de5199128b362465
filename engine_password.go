package goGrant

import (
	"context"
	"time"

	"github.com/MrEthical07/goGrant/store"
	"github.com/MrEthical07/goGrant/token"
)

const (
	grantTypePassword          = "password"
	grantTypeClientCredentials = "client_credentials"
	grantTypeRefresh           = "refresh"
)

// PasswordGrant describes the passwordgrant operation and its observable behavior.
//
// PasswordGrant may return an error when input validation, dependency calls, or security checks fail.
// PasswordGrant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) PasswordGrant(ctx context.Context, req PasswordGrantRequest) (*TokenResponse, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	app, err := e.application(ctx, req.ApplicationID)
	if err != nil {
		e.metricInc(MetricPasswordGrantFailure)
		e.emitAudit(ctx, auditEventPasswordGrantFailure, grantTypePassword, false, req.ApplicationID, "", req.DirectoryID, err, nil)
		return nil, err
	}

	prin, err := e.resolvePrincipal(ctx, app.ID, req.DirectoryID, req.Login)
	if err != nil {
		e.metricInc(MetricPasswordGrantFailure)
		e.emitAudit(ctx, auditEventPasswordGrantFailure, grantTypePassword, false, app.ID, "", req.DirectoryID, err, nil)
		return nil, err
	}

	if !e.hasher.Verify(req.Password, prin.account.PasswordHash) {
		e.metricInc(MetricPasswordGrantFailure)
		e.emitAudit(ctx, auditEventPasswordGrantFailure, grantTypePassword, false, app.ID, prin.account.ID, prin.directory.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	groups, err := e.store.EnabledGroupsForAccount(ctx, prin.account.ID)
	if err != nil {
		e.metricInc(MetricPasswordGrantFailure)
		e.emitAudit(ctx, auditEventPasswordGrantFailure, grantTypePassword, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}

	resp, err := e.mintPair(ctx, app, prin, joinedScope(groups))
	if err != nil {
		e.metricInc(MetricPasswordGrantFailure)
		e.emitAudit(ctx, auditEventPasswordGrantFailure, grantTypePassword, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}
	resp.Account = e.accountSummary(prin.account, groups)

	e.metricInc(MetricPasswordGrantSuccess)
	e.emitAudit(ctx, auditEventPasswordGrantSuccess, grantTypePassword, true, app.ID, prin.account.ID, prin.directory.ID, nil, nil)

	return resp, nil
}

// mintPair mints an access+refresh pair for a resolved principal, records it
// in the cache, and assembles the response. Only the access token carries an
// exp claim; refresh liveness is governed by cache presence alone.
func (e *Engine) mintPair(ctx context.Context, app *store.Application, prin *principal, scope string) (*TokenResponse, error) {
	claims := e.grantClaims(app, prin, scope, grantTypePassword)

	accessTTL := time.Duration(app.AccessTokenTTL) * time.Second
	access, err := e.codec.Mint(claims, app.SigningKey, token.SubtypeAccess, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := e.codec.Mint(claims, app.SigningKey, token.SubtypeRefresh, 0)
	if err != nil {
		return nil, err
	}

	e.cachePair(ctx, grantTypePassword, app, prin.account.ID, access, refresh)

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    app.AccessTokenTTL,
		Scope:        scope,
	}, nil
}

func (e *Engine) grantClaims(app *store.Application, prin *principal, scope, grantType string) token.Claims {
	claims := token.Claims{
		Scope:   scope,
		Account: prin.account.ID,
		Env:     e.config.Environment.Env,
		Organization: token.OrganizationClaim{
			Href:    e.href("organizations", prin.organization.ID),
			NameKey: prin.organization.NameKey,
		},
		Grant: grantType,
	}
	claims.Issuer = app.ID
	claims.Subject = prin.account.ID
	return claims
}
