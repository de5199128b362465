package goGrant

import (
	"context"
	"strconv"
)

// RevokeGrant describes the revokegrant operation and its observable behavior.
//
// RevokeGrant may return an error when dependency calls fail.
// RevokeGrant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Revocation is idempotent: revoking a token absent from the cache is a
// no-op. Deleting an access entry cascades to its paired refresh entry;
// revocation never cascades refresh to access.
func (e *Engine) RevokeGrant(ctx context.Context, accessToken string) error {
	if e == nil || e.cache == nil {
		return ErrEngineNotReady
	}

	entry, err := e.cache.GetAccess(ctx, accessToken)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	if err := e.cache.DeleteAccess(ctx, accessToken); err != nil {
		return err
	}
	e.metricInc(MetricRevoke)

	if entry.PairedToken != "" {
		if err := e.cache.DeleteRefresh(ctx, entry.PairedToken); err != nil {
			return err
		}
		e.metricInc(MetricRevokeCascade)
	}

	e.emitAudit(ctx, auditEventRevokeGrant, "", true, entry.Application, entry.Account, "", nil, func() map[string]string {
		return map[string]string{
			"cascaded": strconv.FormatBool(entry.PairedToken != ""),
		}
	})

	return nil
}
