package goGrant

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/MrEthical07/goGrant/token"
)

// ClientCredentialsGrant describes the clientcredentialsgrant operation and its observable behavior.
//
// ClientCredentialsGrant may return an error when input validation, dependency calls, or security checks fail.
// ClientCredentialsGrant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ClientCredentialsGrant(ctx context.Context, req ClientCredentialsGrantRequest) (*TokenResponse, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	app, err := e.application(ctx, req.ApplicationID)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, req.ApplicationID, "", "", err, nil)
		return nil, err
	}

	public, private, err := decodeAPIKey(req.APIKey)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, "", "", ErrInvalidAPIKey, func() map[string]string {
			return map[string]string{
				"reason": "malformed_key",
			}
		})
		return nil, ErrInvalidAPIKey
	}

	key, err := e.store.ApiKeyByPublic(ctx, public)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, "", "", err, nil)
		return nil, err
	}
	if key == nil || key.Private != private {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, "", "", ErrInvalidAPIKey, nil)
		return nil, ErrInvalidAPIKey
	}

	prin, err := e.principalByID(ctx, app.ID, key.AccountID, true, ErrInvalidAPIKey)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, key.AccountID, "", err, nil)
		return nil, err
	}

	groups, err := e.store.EnabledGroupsForAccount(ctx, prin.account.ID)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}

	scope := strings.Join(intersectScopes(req.Scopes, groups), " ")
	claims := e.grantClaims(app, prin, scope, grantTypeClientCredentials)

	access, err := e.codec.Mint(claims, app.SigningKey, token.SubtypeAccess, time.Duration(app.AccessTokenTTL)*time.Second)
	if err != nil {
		e.metricInc(MetricClientCredentialsFailure)
		e.emitAudit(ctx, auditEventClientCredentialsGrantFailure, grantTypeClientCredentials, false, app.ID, prin.account.ID, prin.directory.ID, err, nil)
		return nil, err
	}

	e.cacheAccessOnly(ctx, grantTypeClientCredentials, app, prin.account.ID, access)

	e.metricInc(MetricClientCredentialsSuccess)
	e.emitAudit(ctx, auditEventClientCredentialsGrantSuccess, grantTypeClientCredentials, true, app.ID, prin.account.ID, prin.directory.ID, nil, nil)

	return &TokenResponse{
		AccessToken: access,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   app.AccessTokenTTL,
		Scope:       scope,
	}, nil
}

// decodeAPIKey reverses the transport encoding base64(public ":" private),
// splitting once on the first colon.
func decodeAPIKey(encoded string) (public, private string, err error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrInvalidAPIKey
	}
	return parts[0], parts[1], nil
}
