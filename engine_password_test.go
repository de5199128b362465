package goGrant

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/goGrant/store"
	"github.com/MrEthical07/goGrant/token"
)

func TestPasswordGrantIssuesTokenPair(t *testing.T) {
	f := newEngineTest(t)
	resp := f.passwordGrant(t)

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", resp)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", resp.TokenType)
	}
	if resp.ExpiresIn != f.app.AccessTokenTTL {
		t.Fatalf("expected expires_in %d, got %d", f.app.AccessTokenTTL, resp.ExpiresIn)
	}
	if resp.Scope != "admins operators" {
		t.Fatalf("expected space-joined group names, got %q", resp.Scope)
	}
}

func TestPasswordGrantClaims(t *testing.T) {
	f := newEngineTest(t)
	resp := f.passwordGrant(t)

	tok, err := f.engine.codec.Verify(resp.AccessToken, f.app.SigningKey)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if tok.Subtype != token.SubtypeAccess {
		t.Fatalf("unexpected subtype %q", tok.Subtype)
	}
	if tok.KeyID != f.app.ID {
		t.Fatalf("expected kid %q, got %q", f.app.ID, tok.KeyID)
	}
	if tok.Claims.Subject != f.account.ID || tok.Claims.Account != f.account.ID {
		t.Fatalf("unexpected subject claims: %+v", tok.Claims)
	}
	if tok.Claims.Issuer != f.app.ID {
		t.Fatalf("unexpected issuer %q", tok.Claims.Issuer)
	}
	if tok.Claims.Grant != "password" {
		t.Fatalf("unexpected grant claim %q", tok.Claims.Grant)
	}
	if tok.Claims.Env != "test" {
		t.Fatalf("unexpected env claim %q", tok.Claims.Env)
	}
	if tok.Claims.Organization.NameKey != f.org.NameKey {
		t.Fatalf("unexpected organization claim: %+v", tok.Claims.Organization)
	}
	if tok.Claims.ExpiresAt == nil {
		t.Fatal("access token must carry an expiry")
	}

	refresh, err := f.engine.codec.Verify(resp.RefreshToken, f.app.SigningKey)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if refresh.Subtype != token.SubtypeRefresh {
		t.Fatalf("unexpected subtype %q", refresh.Subtype)
	}
	if refresh.Claims.ExpiresAt != nil {
		t.Fatal("refresh token must not carry an expiry")
	}
}

func TestPasswordGrantAccountSummary(t *testing.T) {
	f := newEngineTest(t)
	resp := f.passwordGrant(t)

	acct := resp.Account
	if acct == nil {
		t.Fatal("expected account summary")
	}
	if acct.Email != f.account.Email {
		t.Fatalf("unexpected email %q", acct.Email)
	}
	if acct.Href != testBaseHref+"/accounts/"+f.account.ID {
		t.Fatalf("unexpected href %q", acct.Href)
	}
	if len(acct.Scopes) != 2 || acct.Scopes[0].Name != "admins" || acct.Scopes[1].Name != "operators" {
		t.Fatalf("unexpected scopes: %+v", acct.Scopes)
	}
}

func TestPasswordGrantCachesBothTokens(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()
	resp := f.passwordGrant(t)

	access, err := f.engine.cache.GetAccess(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("get access: %v", err)
	}
	if access == nil || access.PairedToken != resp.RefreshToken {
		t.Fatalf("access entry not paired: %+v", access)
	}

	refresh, err := f.engine.cache.GetRefresh(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("get refresh: %v", err)
	}
	if refresh == nil || refresh.PairedToken != resp.AccessToken {
		t.Fatalf("refresh entry not paired: %+v", refresh)
	}
	if refresh.Account != f.account.ID || refresh.Application != f.app.ID {
		t.Fatalf("unexpected entry fields: %+v", refresh)
	}
}

func TestPasswordGrantWithUsername(t *testing.T) {
	f := newEngineTest(t)

	resp, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         "ada",
		Password:      testPassword,
	})
	if err != nil {
		t.Fatalf("password grant by username: %v", err)
	}
	if resp.Account == nil || resp.Account.Email != f.account.Email {
		t.Fatalf("unexpected account: %+v", resp.Account)
	}
}

func TestPasswordGrantWrongPassword(t *testing.T) {
	f := newEngineTest(t)

	_, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      "not-the-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if !IsAuthenticationFailure(err) {
		t.Fatal("wrong password must classify as authentication failure")
	}
	if IsConfigurationError(err) {
		t.Fatal("wrong password must not classify as configuration error")
	}
}

func TestPasswordGrantUnknownLogin(t *testing.T) {
	f := newEngineTest(t)

	_, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         "nobody@example.com",
		Password:      testPassword,
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordGrantPrimaryDirectoryFallback(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	hash := f.account.PasswordHash
	root := store.NewAccount(f.houseDir.ID, "root@example.com", "Root", "Operator")
	root.PasswordHash = hash
	if err := f.store.SaveAccount(ctx, root); err != nil {
		t.Fatalf("save house account: %v", err)
	}

	// Logging into the staff directory finds the account in the house
	// directory even though the house directory is not mapped to the
	// application.
	resp, err := f.engine.PasswordGrant(ctx, PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         "root@example.com",
		Password:      testPassword,
	})
	if err != nil {
		t.Fatalf("fallback grant: %v", err)
	}
	if resp.Account == nil || resp.Account.Email != "root@example.com" {
		t.Fatalf("unexpected account: %+v", resp.Account)
	}
}

func TestPasswordGrantFallbackKeepsRequestedOrganization(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	// House tenant living in its own organization.
	houseOrg := store.NewOrganization("House Org", "HOUSE")
	if err := f.store.SaveOrganization(ctx, houseOrg); err != nil {
		t.Fatalf("save house organization: %v", err)
	}
	houseDir := store.NewDirectory(houseOrg.ID, "Operators")
	if err := f.store.SaveDirectory(ctx, houseDir); err != nil {
		t.Fatalf("save house directory: %v", err)
	}

	root := store.NewAccount(houseDir.ID, "root@example.com", "Root", "Operator")
	root.PasswordHash = f.account.PasswordHash
	if err := f.store.SaveAccount(ctx, root); err != nil {
		t.Fatalf("save house account: %v", err)
	}

	cfg := f.engine.config
	cfg.Directory.PrimaryDirectoryID = houseDir.ID
	engine, err := New().
		WithConfig(cfg).
		WithRedis(f.rdb).
		WithStore(f.store).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	resp, err := engine.PasswordGrant(ctx, PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         "root@example.com",
		Password:      testPassword,
	})
	if err != nil {
		t.Fatalf("fallback grant: %v", err)
	}

	// The grant is issued under the requested tenant; the house directory
	// only supplied the credentials.
	tok, err := engine.codec.Verify(resp.AccessToken, f.app.SigningKey)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok.Claims.Organization.NameKey != f.org.NameKey {
		t.Fatalf("expected requested organization %q, got %q",
			f.org.NameKey, tok.Claims.Organization.NameKey)
	}
}

func TestPasswordGrantUnknownApplication(t *testing.T) {
	f := newEngineTest(t)

	_, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: "missing",
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
	if !IsConfigurationError(err) {
		t.Fatal("unknown application must classify as configuration error")
	}
}

func TestPasswordGrantDisabledApplication(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	f.app.Status = store.StatusDisabled
	if err := f.store.SaveApplication(ctx, f.app); err != nil {
		t.Fatalf("disable application: %v", err)
	}

	_, err := f.engine.PasswordGrant(ctx, PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if !errors.Is(err, ErrApplicationDisabled) {
		t.Fatalf("expected ErrApplicationDisabled, got %v", err)
	}
}

func TestPasswordGrantDisabledDirectory(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	f.dir.Status = store.StatusDisabled
	if err := f.store.SaveDirectory(ctx, f.dir); err != nil {
		t.Fatalf("disable directory: %v", err)
	}

	_, err := f.engine.PasswordGrant(ctx, PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if !errors.Is(err, ErrDirectoryDisabled) {
		t.Fatalf("expected ErrDirectoryDisabled, got %v", err)
	}
}

func TestPasswordGrantUnmappedDirectory(t *testing.T) {
	f := newEngineTest(t)

	// The house directory exists but is not mapped to the application, and
	// cannot be targeted directly.
	_, err := f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.houseDir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if !errors.Is(err, ErrDirectoryNotInApplication) {
		t.Fatalf("expected ErrDirectoryNotInApplication, got %v", err)
	}
}

func TestPasswordGrantDisabledAccount(t *testing.T) {
	f := newEngineTest(t)
	ctx := context.Background()

	f.account.Status = store.StatusDisabled
	if err := f.store.SaveAccount(ctx, f.account); err != nil {
		t.Fatalf("disable account: %v", err)
	}

	_, err := f.engine.PasswordGrant(ctx, PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      testPassword,
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordGrantMetrics(t *testing.T) {
	f := newEngineTest(t)

	f.passwordGrant(t)
	_, _ = f.engine.PasswordGrant(context.Background(), PasswordGrantRequest{
		ApplicationID: f.app.ID,
		DirectoryID:   f.dir.ID,
		Login:         f.account.Email,
		Password:      "wrong",
	})

	snap := f.engine.MetricsSnapshot()
	if snap.Counters[MetricPasswordGrantSuccess] != 1 {
		t.Fatalf("expected 1 success, got %d", snap.Counters[MetricPasswordGrantSuccess])
	}
	if snap.Counters[MetricPasswordGrantFailure] != 1 {
		t.Fatalf("expected 1 failure, got %d", snap.Counters[MetricPasswordGrantFailure])
	}
}
