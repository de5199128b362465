// Package password provides the one-way credential hashing capability used
// by the grant engine.
//
// Hashing is bcrypt. Verification is deliberately boolean: malformed hashes,
// unknown hash versions, and mismatches all report false rather than an
// error, so callers cannot leak which check failed.
package password
