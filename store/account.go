package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal/validate"
	"github.com/google/uuid"
)

const accountColumns = "id, directory_id, user_name, password, email, first_name, last_name, status, created"

// Account is a principal within a directory. PasswordHash holds the bcrypt
// hash produced by the password package; the store never sees plaintext.
type Account struct {
	ID           string
	DirectoryID  string
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	Status       string
	Created      time.Time
}

// NewAccount returns an enabled account with a fresh id. The password hash
// must be set before saving.
func NewAccount(directoryID, email, firstName, lastName string) *Account {
	return &Account{
		ID:          uuid.NewString(),
		DirectoryID: directoryID,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		Status:      StatusEnabled,
	}
}

func (a *Account) validate() error {
	return validate.Schema{
		{Name: "username", Value: a.Username, Max: 100},
		{Name: "password", Value: a.PasswordHash, Max: 255, Required: true},
		{Name: "email", Value: a.Email, Max: 255, Required: true},
		{Name: "firstName", Value: a.FirstName, Max: 64, Required: true},
		{Name: "lastName", Value: a.LastName, Max: 64, Required: true},
		{Name: "status", Value: a.Status, Max: 15, Required: true},
	}.Check()
}

// SaveAccount upserts an account. Email and username (when set) must be
// unique within the account's directory; both checks run in the same
// transaction as the write.
func (s *Store) SaveAccount(ctx context.Context, a *Account) error {
	if err := a.validate(); err != nil {
		return err
	}
	if a.Created.IsZero() {
		a.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		byEmail, err := accountByEmailAndDirectory(ctx, tx, a.Email, a.DirectoryID)
		if err != nil {
			return err
		}
		if byEmail != nil && byEmail.ID != a.ID {
			return ErrAccountEmailExists
		}

		if a.Username != "" {
			byUsername, err := accountByUsernameAndDirectory(ctx, tx, a.Username, a.DirectoryID)
			if err != nil {
				return err
			}
			if byUsername != nil && byUsername.ID != a.ID {
				return ErrAccountUsernameExists
			}
		}

		existing, err := accountByID(ctx, tx, a.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE account SET directory_id = ?, user_name = ?, password = ?, email = ?, first_name = ?, last_name = ?, status = ? WHERE id = ?`,
				a.DirectoryID, nullable(a.Username), a.PasswordHash, a.Email, a.FirstName, a.LastName, a.Status, a.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO account (id, directory_id, user_name, password, email, first_name, last_name, status, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.DirectoryID, nullable(a.Username), a.PasswordHash, a.Email, a.FirstName, a.LastName, a.Status, toMillis(a.Created))
		return err
	})
}

// DeleteAccount removes an account record.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	return err
}

// AccountByID returns the account, or nil when absent.
func (s *Store) AccountByID(ctx context.Context, id string) (*Account, error) {
	return accountByID(ctx, s.db, id)
}

// AccountByEmailAndDirectory returns the account with the given email in a
// directory, or nil when absent.
func (s *Store) AccountByEmailAndDirectory(ctx context.Context, email, directoryID string) (*Account, error) {
	return accountByEmailAndDirectory(ctx, s.db, email, directoryID)
}

// AccountByUsernameAndDirectory returns the account with the given username
// in a directory, or nil when absent.
func (s *Store) AccountByUsernameAndDirectory(ctx context.Context, username, directoryID string) (*Account, error) {
	return accountByUsernameAndDirectory(ctx, s.db, username, directoryID)
}

// AccountsByGroup returns the accounts linked to a group.
func (s *Store) AccountsByGroup(ctx context.Context, groupID string) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.directory_id, a.user_name, a.password, a.email, a.first_name, a.last_name, a.status, a.created
		 FROM account a
		 INNER JOIN account_group ag ON a.id = ag.account_id
		 WHERE ag.group_id = ?`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// AddAccountToGroup links an account to a group. Link order is preserved and
// drives scope ordering in grant responses.
func (s *Store) AddAccountToGroup(ctx context.Context, accountID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account_group (account_id, group_id) VALUES (?, ?)`, accountID, groupID)
	return err
}

// RemoveAccountFromGroup unlinks an account from a group.
func (s *Store) RemoveAccountFromGroup(ctx context.Context, accountID, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM account_group WHERE account_id = ? AND group_id = ?`, accountID, groupID)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func accountByID(ctx context.Context, q querier, id string) (*Account, error) {
	return scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = ?`, id))
}

func accountByEmailAndDirectory(ctx context.Context, q querier, email, directoryID string) (*Account, error) {
	return scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE email = ? AND directory_id = ?`, email, directoryID))
}

func accountByUsernameAndDirectory(ctx context.Context, q querier, username, directoryID string) (*Account, error) {
	return scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE user_name = ? AND directory_id = ?`, username, directoryID))
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var username sql.NullString
	var created int64
	err := row.Scan(&a.ID, &a.DirectoryID, &username, &a.PasswordHash, &a.Email, &a.FirstName, &a.LastName, &a.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Username = username.String
	a.Created = fromMillis(created)
	return &a, nil
}

func scanAccountRow(rows *sql.Rows) (*Account, error) {
	var a Account
	var username sql.NullString
	var created int64
	if err := rows.Scan(&a.ID, &a.DirectoryID, &username, &a.PasswordHash, &a.Email, &a.FirstName, &a.LastName, &a.Status, &created); err != nil {
		return nil, err
	}
	a.Username = username.String
	a.Created = fromMillis(created)
	return &a, nil
}
