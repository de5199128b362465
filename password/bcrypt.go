package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor applied when no cost is configured.
const DefaultCost = 13

// Config defines a public type used by goGrant APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cost int
}

// Bcrypt is the bcrypt-backed credential hasher.
//
// Bcrypt instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates the configured cost and returns a hasher.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("invalid bcrypt cost configuration")
	}
	return &Bcrypt{config: cfg}, nil
}

// Hash derives a one-way hash of secret. It never reverses and always
// produces a new hash (bcrypt salts internally).
func (b *Bcrypt) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), b.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether secret matches encodedHash. Any verification
// error (malformed hash, wrong hash version, mismatch) reports false.
func (b *Bcrypt) Verify(secret, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(secret)) == nil
}
