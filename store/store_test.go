package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newStoreTest(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "grant.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedOrganization(t *testing.T, s *Store, name string) *Organization {
	t.Helper()
	org := NewOrganization(name, "CUSTOMER")
	if err := s.SaveOrganization(context.Background(), org); err != nil {
		t.Fatalf("save organization: %v", err)
	}
	return org
}

func seedDirectory(t *testing.T, s *Store, orgID, name string) *Directory {
	t.Helper()
	dir := NewDirectory(orgID, name)
	if err := s.SaveDirectory(context.Background(), dir); err != nil {
		t.Fatalf("save directory: %v", err)
	}
	return dir
}

func seedAccount(t *testing.T, s *Store, directoryID, email string) *Account {
	t.Helper()
	acct := NewAccount(directoryID, email, "Ada", "Lovelace")
	acct.PasswordHash = "irrelevant-for-store-tests"
	if err := s.SaveAccount(context.Background(), acct); err != nil {
		t.Fatalf("save account: %v", err)
	}
	return acct
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOrganizationSaveAndLookup(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme Widgets")
	if org.NameKey != "acme-widgets" {
		t.Fatalf("expected slugged name key, got %q", org.NameKey)
	}

	byID, err := s.OrganizationByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if byID == nil || byID.Name != "Acme Widgets" {
		t.Fatalf("unexpected organization: %+v", byID)
	}

	byKey, err := s.OrganizationByNameKey(ctx, "acme-widgets")
	if err != nil {
		t.Fatalf("by name key: %v", err)
	}
	if byKey == nil || byKey.ID != org.ID {
		t.Fatalf("unexpected organization: %+v", byKey)
	}
}

func TestOrganizationNameKeyUniqueness(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	seedOrganization(t, s, "Acme")
	dup := NewOrganization("Acme", "CUSTOMER")
	if err := s.SaveOrganization(ctx, dup); !errors.Is(err, ErrOrganizationNameExists) {
		t.Fatalf("expected ErrOrganizationNameExists, got %v", err)
	}
}

func TestAccountUniquenessWithinDirectory(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")
	seedAccount(t, s, dir.ID, "ada@example.com")

	dup := NewAccount(dir.ID, "ada@example.com", "Ada", "Byron")
	dup.PasswordHash = "x"
	if err := s.SaveAccount(ctx, dup); !errors.Is(err, ErrAccountEmailExists) {
		t.Fatalf("expected ErrAccountEmailExists, got %v", err)
	}

	// Same email in a different directory is fine.
	other := seedDirectory(t, s, org.ID, "Contractors")
	ok := NewAccount(other.ID, "ada@example.com", "Ada", "Byron")
	ok.PasswordHash = "x"
	if err := s.SaveAccount(ctx, ok); err != nil {
		t.Fatalf("expected cross-directory save to pass, got %v", err)
	}
}

func TestAccountUsernameUniqueness(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")

	first := NewAccount(dir.ID, "ada@example.com", "Ada", "Lovelace")
	first.Username = "ada"
	first.PasswordHash = "x"
	if err := s.SaveAccount(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := NewAccount(dir.ID, "grace@example.com", "Grace", "Hopper")
	second.Username = "ada"
	second.PasswordHash = "x"
	if err := s.SaveAccount(ctx, second); !errors.Is(err, ErrAccountUsernameExists) {
		t.Fatalf("expected ErrAccountUsernameExists, got %v", err)
	}
}

func TestAccountLookupByEmailAndUsername(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")

	acct := NewAccount(dir.ID, "ada@example.com", "Ada", "Lovelace")
	acct.Username = "ada"
	acct.PasswordHash = "x"
	if err := s.SaveAccount(ctx, acct); err != nil {
		t.Fatalf("save: %v", err)
	}

	byEmail, err := s.AccountByEmailAndDirectory(ctx, "ada@example.com", dir.ID)
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != acct.ID {
		t.Fatalf("unexpected account: %+v", byEmail)
	}

	byUsername, err := s.AccountByUsernameAndDirectory(ctx, "ada", dir.ID)
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	if byUsername == nil || byUsername.ID != acct.ID {
		t.Fatalf("unexpected account: %+v", byUsername)
	}

	missing, err := s.AccountByEmailAndDirectory(ctx, "nobody@example.com", dir.ID)
	if err != nil {
		t.Fatalf("missing lookup: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent account, got %+v", missing)
	}
}

func TestEnabledGroupsForAccountOrderAndFiltering(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")
	acct := seedAccount(t, s, dir.ID, "ada@example.com")

	names := []string{"admins", "operators", "auditors"}
	for _, name := range names {
		g := NewGroup(dir.ID, name)
		if err := s.SaveGroup(ctx, g); err != nil {
			t.Fatalf("save group %s: %v", name, err)
		}
		if err := s.AddAccountToGroup(ctx, acct.ID, g.ID); err != nil {
			t.Fatalf("add to group %s: %v", name, err)
		}
	}

	disabled := NewGroup(dir.ID, "legacy")
	disabled.Status = StatusDisabled
	if err := s.SaveGroup(ctx, disabled); err != nil {
		t.Fatalf("save disabled group: %v", err)
	}
	if err := s.AddAccountToGroup(ctx, acct.ID, disabled.ID); err != nil {
		t.Fatalf("add to disabled group: %v", err)
	}

	groups, err := s.EnabledGroupsForAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("enabled groups: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 enabled groups, got %d", len(groups))
	}
	for i, name := range names {
		if groups[i].Name != name {
			t.Fatalf("expected membership order preserved, got %v", groups)
		}
	}
}

func TestGroupNameUniquenessWithinDirectory(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")

	if err := s.SaveGroup(ctx, NewGroup(dir.ID, "admins")); err != nil {
		t.Fatalf("save group: %v", err)
	}
	if err := s.SaveGroup(ctx, NewGroup(dir.ID, "admins")); !errors.Is(err, ErrGroupNameExists) {
		t.Fatalf("expected ErrGroupNameExists, got %v", err)
	}
}

func TestApiKeyTokenizeRoundTrip(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := seedOrganization(t, s, "Acme")
	dir := seedDirectory(t, s, org.ID, "Staff")
	acct := seedAccount(t, s, dir.ID, "ada@example.com")

	key, err := NewApiKey(acct.ID)
	if err != nil {
		t.Fatalf("new api key: %v", err)
	}
	if key.Public == "" || key.Private == "" || key.Public == key.Private {
		t.Fatalf("expected distinct random components, got %+v", key)
	}
	if err := s.SaveApiKey(ctx, key); err != nil {
		t.Fatalf("save api key: %v", err)
	}

	found, err := s.ApiKeyByPublic(ctx, key.Public)
	if err != nil {
		t.Fatalf("by public: %v", err)
	}
	if found == nil || found.Private != key.Private || found.AccountID != acct.ID {
		t.Fatalf("unexpected key: %+v", found)
	}

	if key.Tokenize() == "" {
		t.Fatal("expected non-empty transport encoding")
	}
}

func TestApplicationDefaults(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	app, err := NewApplication("Portal")
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if app.SigningKey == "" {
		t.Fatal("expected generated signing key")
	}
	if app.AccessTokenTTL != DefaultAccessTokenTTL || app.RefreshTokenTTL != DefaultRefreshTokenTTL {
		t.Fatalf("unexpected ttl defaults: %+v", app)
	}

	if err := s.SaveApplication(ctx, app); err != nil {
		t.Fatalf("save application: %v", err)
	}
	found, err := s.ApplicationByName(ctx, "Portal")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if found == nil || found.ID != app.ID || found.SigningKey != app.SigningKey {
		t.Fatalf("unexpected application: %+v", found)
	}
}

func TestValidationRunsBeforePersistence(t *testing.T) {
	s := newStoreTest(t)
	ctx := context.Background()

	org := NewOrganization("", "CUSTOMER")
	if err := s.SaveOrganization(ctx, org); err == nil {
		t.Fatal("expected validation error for empty name")
	}

	all, err := s.Organizations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatal("validation failure must not persist anything")
	}
}
