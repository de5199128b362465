package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal/validate"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const organizationColumns = "id, name, name_key, type, status, created"

// Organization is the root of a tenant chain.
type Organization struct {
	ID      string
	Name    string
	NameKey string
	Type    string
	Status  string
	Created time.Time
}

// NewOrganization returns an enabled organization with a fresh id.
func NewOrganization(name, orgType string) *Organization {
	return &Organization{
		ID:     uuid.NewString(),
		Name:   name,
		Type:   orgType,
		Status: StatusEnabled,
	}
}

func (o *Organization) validate() error {
	return validate.Schema{
		{Name: "name", Value: o.Name, Max: 255, Required: true},
		{Name: "nameKey", Value: slug.Make(o.Name), Max: 255},
		{Name: "status", Value: o.Status, Max: 15, Required: true},
		{Name: "type", Value: o.Type, Max: 25, Required: true},
	}.Check()
}

// SaveOrganization upserts an organization. The derived name key must be
// unique; the uniqueness check runs in the same transaction as the write.
func (s *Store) SaveOrganization(ctx context.Context, o *Organization) error {
	if err := o.validate(); err != nil {
		return err
	}
	o.NameKey = slug.Make(o.Name)
	if o.Created.IsZero() {
		o.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := organizationByNameKey(ctx, tx, o.NameKey)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != o.ID {
			return ErrOrganizationNameExists
		}

		current, err := organizationByID(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if current != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE organization SET name = ?, name_key = ?, type = ?, status = ? WHERE id = ?`,
				o.Name, o.NameKey, o.Type, o.Status, o.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO organization (id, name, name_key, type, status, created) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.Name, o.NameKey, o.Type, o.Status, toMillis(o.Created))
		return err
	})
}

// DeleteOrganization removes an organization record.
func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM organization WHERE id = ?`, id)
	return err
}

// OrganizationByID returns the organization, or nil when absent.
func (s *Store) OrganizationByID(ctx context.Context, id string) (*Organization, error) {
	return organizationByID(ctx, s.db, id)
}

// OrganizationByNameKey returns the organization with the given name key, or
// nil when absent.
func (s *Store) OrganizationByNameKey(ctx context.Context, nameKey string) (*Organization, error) {
	return organizationByNameKey(ctx, s.db, nameKey)
}

// Organizations returns every organization ordered by name.
func (s *Store) Organizations(ctx context.Context) ([]Organization, error) {
	return queryOrganizations(ctx, s.db,
		`SELECT `+organizationColumns+` FROM organization ORDER BY name`)
}

// OrganizationsByType returns organizations of one type ordered by name.
func (s *Store) OrganizationsByType(ctx context.Context, orgType string) ([]Organization, error) {
	return queryOrganizations(ctx, s.db,
		`SELECT `+organizationColumns+` FROM organization WHERE type = ? ORDER BY name`, orgType)
}

func organizationByID(ctx context.Context, q querier, id string) (*Organization, error) {
	return scanOrganization(q.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organization WHERE id = ?`, id))
}

func organizationByNameKey(ctx context.Context, q querier, nameKey string) (*Organization, error) {
	return scanOrganization(q.QueryRowContext(ctx,
		`SELECT `+organizationColumns+` FROM organization WHERE name_key = ?`, nameKey))
}

func scanOrganization(row *sql.Row) (*Organization, error) {
	var o Organization
	var created int64
	err := row.Scan(&o.ID, &o.Name, &o.NameKey, &o.Type, &o.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Created = fromMillis(created)
	return &o, nil
}

func queryOrganizations(ctx context.Context, q querier, query string, args ...any) ([]Organization, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organization
	for rows.Next() {
		var o Organization
		var created int64
		if err := rows.Scan(&o.ID, &o.Name, &o.NameKey, &o.Type, &o.Status, &created); err != nil {
			return nil, err
		}
		o.Created = fromMillis(created)
		out = append(out, o)
	}
	return out, rows.Err()
}
