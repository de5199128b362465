package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal/validate"
	"github.com/google/uuid"
)

const groupColumns = `id, directory_id, name, status, created`

// Group is a named set of accounts within a directory. Enabled group names
// become the scope claim of minted tokens.
type Group struct {
	ID          string
	DirectoryID string
	Name        string
	Status      string
	Created     time.Time
}

// NewGroup returns an enabled group with a fresh id.
func NewGroup(directoryID, name string) *Group {
	return &Group{
		ID:          uuid.NewString(),
		DirectoryID: directoryID,
		Name:        name,
		Status:      StatusEnabled,
	}
}

func (g *Group) validate() error {
	return validate.Schema{
		{Name: "name", Value: g.Name, Max: 50, Required: true},
		{Name: "status", Value: g.Status, Max: 15, Required: true},
	}.Check()
}

// SaveGroup upserts a group. Group names are unique within a directory; the
// check runs in the same transaction as the write.
func (s *Store) SaveGroup(ctx context.Context, g *Group) error {
	if err := g.validate(); err != nil {
		return err
	}
	if g.Created.IsZero() {
		g.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		byName, err := groupByNameAndDirectory(ctx, tx, g.Name, g.DirectoryID)
		if err != nil {
			return err
		}
		if byName != nil && byName.ID != g.ID {
			return ErrGroupNameExists
		}

		existing, err := groupByID(ctx, tx, g.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE "group" SET directory_id = ?, name = ?, status = ? WHERE id = ?`,
				g.DirectoryID, g.Name, g.Status, g.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO "group" (id, directory_id, name, status, created) VALUES (?, ?, ?, ?, ?)`,
			g.ID, g.DirectoryID, g.Name, g.Status, toMillis(g.Created))
		return err
	})
}

// DeleteGroup removes a group record.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM "group" WHERE id = ?`, id)
	return err
}

// GroupByID returns the group, or nil when absent.
func (s *Store) GroupByID(ctx context.Context, id string) (*Group, error) {
	return groupByID(ctx, s.db, id)
}

// GroupByNameAndDirectory returns the named group within a directory, or nil
// when absent.
func (s *Store) GroupByNameAndDirectory(ctx context.Context, name, directoryID string) (*Group, error) {
	return groupByNameAndDirectory(ctx, s.db, name, directoryID)
}

// EnabledGroupsForAccount returns the account's enabled groups in membership
// insertion order, which keeps scope strings deterministic across calls.
func (s *Store) EnabledGroupsForAccount(ctx context.Context, accountID string) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.directory_id, g.name, g.status, g.created
		 FROM "group" g
		 INNER JOIN account_group ag ON g.id = ag.group_id
		 WHERE ag.account_id = ? AND g.status = ?
		 ORDER BY ag.rowid`, accountID, StatusEnabled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		var g Group
		var created int64
		if err := rows.Scan(&g.ID, &g.DirectoryID, &g.Name, &g.Status, &created); err != nil {
			return nil, err
		}
		g.Created = fromMillis(created)
		out = append(out, g)
	}
	return out, rows.Err()
}

func groupByID(ctx context.Context, q querier, id string) (*Group, error) {
	return scanGroup(q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM "group" WHERE id = ?`, id))
}

func groupByNameAndDirectory(ctx context.Context, q querier, name, directoryID string) (*Group, error) {
	return scanGroup(q.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM "group" WHERE name = ? AND directory_id = ?`, name, directoryID))
}

func scanGroup(row *sql.Row) (*Group, error) {
	var g Group
	var created int64
	err := row.Scan(&g.ID, &g.DirectoryID, &g.Name, &g.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.Created = fromMillis(created)
	return &g, nil
}
