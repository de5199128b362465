// Package token implements the bearer-token codec for goGrant: compact
// HS256-signed JWTs carrying tenant-scoped grant claims.
//
// Every token header carries kid (the issuing application id) and stt, a
// subtype tag distinguishing access from refresh tokens. Access tokens are
// always minted with an expiration; refresh tokens are not: their liveness
// is governed entirely by the revocation cache.
//
// Verification failures are classified into exactly two sentinel outcomes,
// [ErrExpired] and [ErrInvalid], because callers translate expiry into a
// distinct user-facing condition.
package token
