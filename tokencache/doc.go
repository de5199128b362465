// Package tokencache implements the Redis-backed revocation ledger for
// outstanding token pairs.
//
// Each successfully minted token gets a hash entry keyed by the token string
// itself, holding the issuing application id, the account id, and (when the
// counterpart verified too) the paired token string. Entry TTLs mirror the
// token's own exp claim, computed at insertion time, so entries vanish when
// their tokens do; refresh tokens carry no exp and their entries persist
// until explicitly revoked.
//
// Presence in this cache is the authoritative liveness check: a token absent
// from the cache is not currently valid, even if its signature would still
// verify.
package tokencache
