package goGrant

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/tokencache"
)

const (
	auditEventPasswordGrantSuccess          = "password_grant_success"
	auditEventPasswordGrantFailure          = "password_grant_failure"
	auditEventClientCredentialsGrantSuccess = "client_credentials_grant_success"
	auditEventClientCredentialsGrantFailure = "client_credentials_grant_failure"
	auditEventRefreshGrantSuccess           = "refresh_grant_success"
	auditEventRefreshGrantFailure           = "refresh_grant_failure"
	auditEventRevokeGrant                   = "revoke_grant"
	auditEventCacheInsertSkipped            = "cache_insert_skipped"
)

// AuditErrorCode defines a public type used by goGrant APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrInvalidAPIKey       AuditErrorCode = "invalid_api_key"
	auditErrTokenExpired        AuditErrorCode = "token_expired"
	auditErrTokenInvalid        AuditErrorCode = "invalid_token"
	auditErrTenantMisconfigured AuditErrorCode = "tenant_misconfigured"
	auditErrPrimaryDirectory    AuditErrorCode = "primary_directory_missing"
	auditErrCacheUnavailable    AuditErrorCode = "cache_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	grantType string,
	success bool,
	applicationID string,
	accountID string,
	directoryID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		GrantType:     grantType,
		ApplicationID: applicationID,
		AccountID:     accountID,
		DirectoryID:   directoryID,
		Success:       success,
		Metadata:      metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidAPIKey):
		return auditErrInvalidAPIKey
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrPrimaryDirectoryNotFound):
		return auditErrPrimaryDirectory
	case errors.Is(err, tokencache.ErrRedisUnavailable):
		return auditErrCacheUnavailable
	case IsConfigurationError(err):
		return auditErrTenantMisconfigured
	default:
		return auditErrInternal
	}
}
