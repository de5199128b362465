// Package internal holds non-exported helpers shared by the goGrant engine:
// random key material generation for applications and API keys.
//
// Everything here is an implementation detail and carries no compatibility
// guarantees.
package internal
