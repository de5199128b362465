package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	signingKeySize      = 256
	apiKeyComponentSize = 32
)

// NewSigningKey returns a fresh application signing key: 256 random bytes,
// base64 encoded. The encoded form is what gets persisted and fed to the
// token codec.
func NewSigningKey() (string, error) {
	raw := make([]byte, signingKeySize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// NewAPIKeyPair returns a random public/private API key component pair,
// both base64 encoded.
func NewAPIKeyPair() (pub string, pri string, err error) {
	rawPub := make([]byte, apiKeyComponentSize)
	if _, err = rand.Read(rawPub); err != nil {
		return "", "", err
	}
	rawPri := make([]byte, apiKeyComponentSize)
	if _, err = rand.Read(rawPri); err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(rawPub), base64.StdEncoding.EncodeToString(rawPri), nil
}
