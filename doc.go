// Package goGrant provides a multi-tenant credential and token-lifecycle
// engine: password, client-credentials, refresh, and revoke grants over an
// organization/directory/account tenant chain, HS256-signed bearer tokens,
// and a Redis-backed revocation cache of outstanding token pairs.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goGrant is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (TokenResponse, MetricsSnapshot, AuditEvent). Token
// encoding lives in token/, the revocation ledger in tokencache/, credential
// hashing in password/, and the relational tenant store in store/.
//
// # Liveness contract
//
// The revocation cache is authoritative for token liveness. A token absent
// from the cache is not currently valid regardless of its own signature and
// expiry, and refresh tokens carry no expiry claim at all: their lifetime is
// exactly their cache presence. Deployments must size cache durability to the
// intended session lifetime.
package goGrant
