package goGrant

import (
	"context"
	"log"
	"strings"

	"github.com/MrEthical07/goGrant/password"
	"github.com/MrEthical07/goGrant/store"
	"github.com/MrEthical07/goGrant/token"
	"github.com/MrEthical07/goGrant/tokencache"
)

// Engine defines a public type used by goGrant APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	store   *store.Store
	codec   *token.Codec
	cache   *tokencache.Cache
	hasher  *password.Bcrypt
	audit   *auditDispatcher
	metrics *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// AuthenticateToken reports whether an access token is currently live. Cache
// presence is the authoritative liveness check: a revoked or naturally
// expired token is rejected even when its signature would still verify.
func (e *Engine) AuthenticateToken(ctx context.Context, accessToken string) (bool, error) {
	if e == nil || e.cache == nil {
		return false, ErrEngineNotReady
	}

	entry, err := e.cache.GetAccess(ctx, accessToken)
	if err != nil {
		return false, err
	}
	if entry == nil {
		e.metricInc(MetricTokenRejected)
		return false, nil
	}
	e.metricInc(MetricTokenAuthenticated)
	return true, nil
}

func (e *Engine) href(resource, id string) string {
	return e.config.Environment.BaseHref + "/" + resource + "/" + id
}

func (e *Engine) accountSummary(acct *store.Account, groups []store.Group) *AccountSummary {
	scopes := make([]ScopeSummary, 0, len(groups))
	for _, g := range groups {
		scopes = append(scopes, ScopeSummary{
			Href:   e.href("groups", g.ID),
			Name:   g.Name,
			Status: g.Status,
		})
	}

	return &AccountSummary{
		Href:      e.href("accounts", acct.ID),
		Status:    acct.Status,
		Email:     acct.Email,
		GivenName: acct.FirstName,
		Surname:   acct.LastName,
		Scopes:    scopes,
	}
}

// joinedScope renders group names as the space-joined scope claim.
func joinedScope(groups []store.Group) string {
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	return strings.Join(names, " ")
}

// intersectScopes keeps the requested scopes also present among the group
// names, preserving the requested order.
func intersectScopes(requested []string, groups []store.Group) []string {
	names := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		names[g.Name] = struct{}{}
	}

	granted := make([]string, 0, len(requested))
	for _, scope := range requested {
		if _, ok := names[scope]; ok {
			granted = append(granted, scope)
		}
	}
	return granted
}

// cachePair records a freshly minted pair. Cache insertion is best-effort: a
// failure must not discard an otherwise valid mint.
func (e *Engine) cachePair(ctx context.Context, grantType string, app *store.Application, accountID, accessToken, refreshToken string) {
	result, err := e.cache.PutPair(ctx, app.SigningKey, accessToken, refreshToken)
	if err != nil {
		e.metricInc(MetricCacheUnavailable)
		log.Print("goGrant: token cache insert failed")
		return
	}
	if result.Access == tokencache.PutSkipped || result.Refresh == tokencache.PutSkipped {
		e.metricInc(MetricCacheInsertSkipped)
		e.emitAudit(ctx, auditEventCacheInsertSkipped, grantType, false, app.ID, accountID, "", nil, nil)
	}
}

func (e *Engine) cacheAccessOnly(ctx context.Context, grantType string, app *store.Application, accountID, accessToken string) {
	status, err := e.cache.PutAccessOnly(ctx, app.SigningKey, accessToken)
	if err != nil {
		e.metricInc(MetricCacheUnavailable)
		log.Print("goGrant: token cache insert failed")
		return
	}
	if status == tokencache.PutSkipped {
		e.metricInc(MetricCacheInsertSkipped)
		e.emitAudit(ctx, auditEventCacheInsertSkipped, grantType, false, app.ID, accountID, "", nil, nil)
	}
}

// application loads and gates the issuing application.
func (e *Engine) application(ctx context.Context, applicationID string) (*store.Application, error) {
	app, err := e.store.ApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	if app.Status != store.StatusEnabled {
		return nil, ErrApplicationDisabled
	}
	return app, nil
}
