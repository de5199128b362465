package goGrant

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/goGrant/password"
	"github.com/MrEthical07/goGrant/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword = "correct-horse-battery"
	testBaseHref = "https://api.example.test/v1"
)

// testFixture wires a full engine against miniredis and a throwaway SQLite
// store, seeded with one tenant chain: organization, house directory
// (primary), an application-mapped staff directory, an enabled account with
// two enabled groups, and an api key.
type testFixture struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	store  *store.Store

	org      *store.Organization
	houseDir *store.Directory
	dir      *store.Directory
	app      *store.Application
	account  *store.Account
	apiKey   *store.ApiKey
}

func newEngineTest(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s, err := store.Open(filepath.Join(t.TempDir(), "grant.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	org := store.NewOrganization("Acme", "CUSTOMER")
	if err := s.SaveOrganization(ctx, org); err != nil {
		t.Fatalf("save organization: %v", err)
	}

	houseDir := store.NewDirectory(org.ID, "House")
	if err := s.SaveDirectory(ctx, houseDir); err != nil {
		t.Fatalf("save house directory: %v", err)
	}
	dir := store.NewDirectory(org.ID, "Staff")
	if err := s.SaveDirectory(ctx, dir); err != nil {
		t.Fatalf("save directory: %v", err)
	}

	app, err := store.NewApplication("Portal")
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	app.AccessTokenTTL = 3600
	if err := s.SaveApplication(ctx, app); err != nil {
		t.Fatalf("save application: %v", err)
	}
	if err := s.AddDirectoryToApplication(ctx, dir.ID, app.ID); err != nil {
		t.Fatalf("map directory: %v", err)
	}

	hasher, err := password.NewBcrypt(password.Config{Cost: 4})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	acct := store.NewAccount(dir.ID, "ada@example.com", "Ada", "Lovelace")
	acct.Username = "ada"
	acct.PasswordHash = hash
	if err := s.SaveAccount(ctx, acct); err != nil {
		t.Fatalf("save account: %v", err)
	}

	for _, name := range []string{"admins", "operators"} {
		g := store.NewGroup(dir.ID, name)
		if err := s.SaveGroup(ctx, g); err != nil {
			t.Fatalf("save group %s: %v", name, err)
		}
		if err := s.AddAccountToGroup(ctx, acct.ID, g.ID); err != nil {
			t.Fatalf("add to group %s: %v", name, err)
		}
	}

	key, err := store.NewApiKey(acct.ID)
	if err != nil {
		t.Fatalf("new api key: %v", err)
	}
	if err := s.SaveApiKey(ctx, key); err != nil {
		t.Fatalf("save api key: %v", err)
	}

	cfg := defaultConfig()
	cfg.Environment.Env = "test"
	cfg.Environment.BaseHref = testBaseHref
	cfg.Directory.PrimaryDirectoryID = houseDir.ID
	cfg.Password.Cost = 4
	cfg.Metrics.Enabled = true

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithStore(s).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = s.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &testFixture{
		engine:   engine,
		mr:       mr,
		rdb:      rdb,
		store:    s,
		org:      org,
		houseDir: houseDir,
		dir:      dir,
		app:      app,
		account:  acct,
		apiKey:   key,
	}
}

// passwordGrant runs the seeded account through the password grant and fails
// the test on error.
func (f *testFixture) passwordGrant(t *testing.T) *TokenResponse {
	t.Helper()
	resp, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if err != nil {
		t.Fatalf("password grant: %v", err)
	}
	return resp
}
