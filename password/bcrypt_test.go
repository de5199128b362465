package password

import "testing"

// Low cost keeps hashing fast in tests.
func newTestHasher(t *testing.T) *Bcrypt {
	t.Helper()
	h, err := NewBcrypt(Config{Cost: 4})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("sup3r-secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Verify("sup3r-secret", hash) {
		t.Fatal("expected matching secret to verify")
	}
	if h.Verify("wrong-secret", hash) {
		t.Fatal("expected mismatched secret to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := h.Hash("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for the same secret")
	}
}

func TestVerifyMalformedHashReturnsFalse(t *testing.T) {
	h := newTestHasher(t)

	for _, malformed := range []string{"", "not-a-bcrypt-hash", "$1$legacy$abcdef"} {
		if h.Verify("anything", malformed) {
			t.Fatalf("expected malformed hash %q to report false", malformed)
		}
	}
}

func TestNewBcryptRejectsOutOfRangeCost(t *testing.T) {
	if _, err := NewBcrypt(Config{Cost: 99}); err == nil {
		t.Fatal("expected error for cost above bcrypt maximum")
	}
}

func TestNewBcryptDefaultsCost(t *testing.T) {
	h, err := NewBcrypt(Config{})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if h.config.Cost != DefaultCost {
		t.Fatalf("expected default cost %d, got %d", DefaultCost, h.config.Cost)
	}
}
