package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal"
	"github.com/google/uuid"
)

const apiKeyColumns = "id, account_id, public, private, created"

// ApiKey is a machine credential owned by an account: a public lookup
// component and a private component matched on client-credentials grants.
type ApiKey struct {
	ID        string
	AccountID string
	Public    string
	Private   string
	Created   time.Time
}

// NewApiKey returns an API key with freshly generated components.
func NewApiKey(accountID string) (*ApiKey, error) {
	pub, pri, err := internal.NewAPIKeyPair()
	if err != nil {
		return nil, err
	}
	return &ApiKey{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Public:    pub,
		Private:   pri,
	}, nil
}

// Tokenize renders the key in its transport encoding:
// base64(public ":" private).
func (k *ApiKey) Tokenize() string {
	return base64.StdEncoding.EncodeToString([]byte(k.Public + ":" + k.Private))
}

// SaveApiKey upserts an API key.
func (s *Store) SaveApiKey(ctx context.Context, k *ApiKey) error {
	if k.Created.IsZero() {
		k.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := apiKeyByID(ctx, tx, k.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE account_api_key SET account_id = ?, public = ?, private = ? WHERE id = ?`,
				k.AccountID, k.Public, k.Private, k.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO account_api_key (id, account_id, public, private, created) VALUES (?, ?, ?, ?, ?)`,
			k.ID, k.AccountID, k.Public, k.Private, toMillis(k.Created))
		return err
	})
}

// DeleteApiKey removes an API key record.
func (s *Store) DeleteApiKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account_api_key WHERE id = ?`, id)
	return err
}

// ApiKeyByID returns the key, or nil when absent.
func (s *Store) ApiKeyByID(ctx context.Context, id string) (*ApiKey, error) {
	return apiKeyByID(ctx, s.db, id)
}

// ApiKeyByPublic returns the key with the given public component, or nil
// when absent.
func (s *Store) ApiKeyByPublic(ctx context.Context, pub string) (*ApiKey, error) {
	return scanApiKey(s.db.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM account_api_key WHERE public = ?`, pub))
}

// ApiKeysByAccount returns an account's keys ordered by public component.
func (s *Store) ApiKeysByAccount(ctx context.Context, accountID string) ([]ApiKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+apiKeyColumns+` FROM account_api_key WHERE account_id = ? ORDER BY public`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApiKey
	for rows.Next() {
		var k ApiKey
		var created int64
		if err := rows.Scan(&k.ID, &k.AccountID, &k.Public, &k.Private, &created); err != nil {
			return nil, err
		}
		k.Created = fromMillis(created)
		out = append(out, k)
	}
	return out, rows.Err()
}

func apiKeyByID(ctx context.Context, q querier, id string) (*ApiKey, error) {
	return scanApiKey(q.QueryRowContext(ctx,
		`SELECT `+apiKeyColumns+` FROM account_api_key WHERE id = ?`, id))
}

func scanApiKey(row *sql.Row) (*ApiKey, error) {
	var k ApiKey
	var created int64
	err := row.Scan(&k.ID, &k.AccountID, &k.Public, &k.Private, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	k.Created = fromMillis(created)
	return &k, nil
}
