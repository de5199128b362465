package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal"
	"github.com/MrEthical07/goGrant/internal/validate"
	"github.com/google/uuid"
)

// Default token lifetimes in seconds: one hour of access and sixty days of
// refresh.
const (
	DefaultAccessTokenTTL  = 3600
	DefaultRefreshTokenTTL = 5184000
)

const applicationColumns = "id, name, signing_key, access_token_ttl, refresh_token_ttl, status, created"

// Application is a token-issuing tenant. Each application carries its own
// signing key and token lifetimes.
type Application struct {
	ID              string
	Name            string
	SigningKey      string
	AccessTokenTTL  int
	RefreshTokenTTL int
	Status          string
	Created         time.Time
}

// NewApplication returns an enabled application with a freshly generated
// signing key and default token lifetimes.
func NewApplication(name string) (*Application, error) {
	key, err := internal.NewSigningKey()
	if err != nil {
		return nil, err
	}
	return &Application{
		ID:              uuid.NewString(),
		Name:            name,
		SigningKey:      key,
		AccessTokenTTL:  DefaultAccessTokenTTL,
		RefreshTokenTTL: DefaultRefreshTokenTTL,
		Status:          StatusEnabled,
	}, nil
}

func (a *Application) validate() error {
	return validate.Schema{
		{Name: "name", Value: a.Name, Max: 255, Required: true},
		{Name: "signingKey", Value: a.SigningKey, Required: true},
		{Name: "status", Value: a.Status, Max: 15, Required: true},
	}.Check()
}

// SaveApplication upserts an application.
func (s *Store) SaveApplication(ctx context.Context, a *Application) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.Created.IsZero() {
		a.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := applicationByID(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE application SET name = ?, signing_key = ?, access_token_ttl = ?, refresh_token_ttl = ?, status = ? WHERE id = ?`,
				a.Name, a.SigningKey, a.AccessTokenTTL, a.RefreshTokenTTL, a.Status, a.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO application (id, name, signing_key, access_token_ttl, refresh_token_ttl, status, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.SigningKey, a.AccessTokenTTL, a.RefreshTokenTTL, a.Status, toMillis(a.Created))
		return err
	})
}

// DeleteApplication removes an application and its directory mappings.
func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM application_directory WHERE application_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM application WHERE id = ?`, id)
		return err
	})
}

// ApplicationByID returns the application, or nil when absent.
func (s *Store) ApplicationByID(ctx context.Context, id string) (*Application, error) {
	return applicationByID(ctx, s.db, id)
}

// ApplicationByName returns the application with the given name, or nil when
// absent.
func (s *Store) ApplicationByName(ctx context.Context, name string) (*Application, error) {
	return scanApplication(s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM application WHERE name = ?`, name))
}

func applicationByID(ctx context.Context, q querier, id string) (*Application, error) {
	return scanApplication(q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM application WHERE id = ?`, id))
}

func scanApplication(row *sql.Row) (*Application, error) {
	var a Application
	var created int64
	err := row.Scan(&a.ID, &a.Name, &a.SigningKey, &a.AccessTokenTTL, &a.RefreshTokenTTL, &a.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Created = fromMillis(created)
	return &a, nil
}
