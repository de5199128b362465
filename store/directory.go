package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MrEthical07/goGrant/internal/validate"
	"github.com/google/uuid"
)

const directoryColumns = "id, organization_id, name, is_default, status, created"

// Directory is an isolated namespace of accounts and groups under an
// organization. Within an organization exactly one directory is flagged
// default at all times; SaveDirectory and DeleteDirectory enforce that
// invariant transactionally.
type Directory struct {
	ID             string
	OrganizationID string
	Name           string
	IsDefault      bool
	Status         string
	Created        time.Time
}

// NewDirectory returns an enabled, non-default directory with a fresh id.
func NewDirectory(organizationID, name string) *Directory {
	return &Directory{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
		Status:         StatusEnabled,
	}
}

func (d *Directory) validate() error {
	return validate.Schema{
		{Name: "name", Value: d.Name, Max: 255, Required: true},
		{Name: "status", Value: d.Status, Max: 15, Required: true},
	}.Check()
}

// SaveDirectory upserts a directory while holding the default-invariant:
//
//   - first directory saved into an organization becomes default regardless
//     of the flag it was saved with;
//   - saving with IsDefault true demotes the current default;
//   - saving with IsDefault false promotes some other directory when the
//     save would otherwise leave the organization without a default; the
//     only directory in an organization keeps the flag.
//
// The read-decide-write sequence runs in one transaction so concurrent saves
// cannot both become (or both lose) default.
func (s *Store) SaveDirectory(ctx context.Context, d *Directory) error {
	if err := d.validate(); err != nil {
		return err
	}
	if d.Created.IsZero() {
		d.Created = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		byName, err := directoryByNameAndOrganization(ctx, tx, d.Name, d.OrganizationID)
		if err != nil {
			return err
		}
		if byName != nil && byName.ID != d.ID {
			return ErrDirectoryNameExists
		}

		current, err := defaultDirectoryForOrganization(ctx, tx, d.OrganizationID)
		if err != nil {
			return err
		}
		if current == nil {
			d.IsDefault = true
		} else if d.IsDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE directory SET is_default = 0 WHERE is_default = 1 AND organization_id = ? AND id <> ?`,
				d.OrganizationID, d.ID); err != nil {
				return err
			}
		} else {
			var defaults int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(1) FROM directory WHERE organization_id = ? AND is_default = 1 AND id <> ?`,
				d.OrganizationID, d.ID).Scan(&defaults); err != nil {
				return err
			}
			if defaults == 0 {
				res, err := tx.ExecContext(ctx,
					`UPDATE directory SET is_default = 1
					 WHERE id = (SELECT id FROM directory WHERE organization_id = ? AND id <> ? LIMIT 1)`,
					d.OrganizationID, d.ID)
				if err != nil {
					return err
				}
				promoted, err := res.RowsAffected()
				if err != nil {
					return err
				}
				// The only directory in an organization stays default even
				// when saved with the flag cleared.
				if promoted == 0 {
					d.IsDefault = true
				}
			}
		}

		existing, err := directoryByID(ctx, tx, d.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE directory SET organization_id = ?, name = ?, is_default = ?, status = ? WHERE id = ?`,
				d.OrganizationID, d.Name, d.IsDefault, d.Status, d.ID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO directory (id, organization_id, name, is_default, status, created) VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.OrganizationID, d.Name, d.IsDefault, d.Status, toMillis(d.Created))
		return err
	})
}

// DeleteDirectory removes a directory; when the default was deleted, any
// remaining directory in the organization is promoted, in the same
// transaction.
func (s *Store) DeleteDirectory(ctx context.Context, d *Directory) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM directory WHERE id = ?`, d.ID); err != nil {
			return err
		}

		var defaults int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM directory WHERE organization_id = ? AND is_default = 1`,
			d.OrganizationID).Scan(&defaults); err != nil {
			return err
		}
		if defaults == 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE directory SET is_default = 1
				 WHERE id = (SELECT id FROM directory WHERE organization_id = ? LIMIT 1)`,
				d.OrganizationID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DirectoryByID returns the directory, or nil when absent.
func (s *Store) DirectoryByID(ctx context.Context, id string) (*Directory, error) {
	return directoryByID(ctx, s.db, id)
}

// DirectoryByNameAndOrganization returns the named directory within an
// organization, or nil when absent.
func (s *Store) DirectoryByNameAndOrganization(ctx context.Context, name, organizationID string) (*Directory, error) {
	return directoryByNameAndOrganization(ctx, s.db, name, organizationID)
}

// DefaultDirectoryForOrganization returns the organization's default
// directory, or nil when the organization has no directories.
func (s *Store) DefaultDirectoryForOrganization(ctx context.Context, organizationID string) (*Directory, error) {
	return defaultDirectoryForOrganization(ctx, s.db, organizationID)
}

// DirectoriesByOrganization returns every directory under an organization.
func (s *Store) DirectoriesByOrganization(ctx context.Context, organizationID string) ([]Directory, error) {
	return queryDirectories(ctx, s.db,
		`SELECT `+directoryColumns+` FROM directory WHERE organization_id = ? ORDER BY name`, organizationID)
}

// DirectoriesByApplication returns the directories linked to an application.
func (s *Store) DirectoriesByApplication(ctx context.Context, applicationID string) ([]Directory, error) {
	return queryDirectories(ctx, s.db,
		`SELECT d.id, d.organization_id, d.name, d.is_default, d.status, d.created
		 FROM directory d
		 INNER JOIN application_directory ad ON ad.directory_id = d.id
		 WHERE ad.application_id = ?`, applicationID)
}

// DirectoryBelongsToApplication reports whether the directory is linked to
// the application.
func (s *Store) DirectoryBelongsToApplication(ctx context.Context, directoryID, applicationID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM application_directory WHERE directory_id = ? AND application_id = ?`,
		directoryID, applicationID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddDirectoryToApplication links a directory to an application.
func (s *Store) AddDirectoryToApplication(ctx context.Context, directoryID, applicationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO application_directory (application_id, directory_id) VALUES (?, ?)`,
		applicationID, directoryID)
	return err
}

// RemoveDirectoryFromApplication unlinks a directory from an application.
func (s *Store) RemoveDirectoryFromApplication(ctx context.Context, directoryID, applicationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM application_directory WHERE application_id = ? AND directory_id = ?`,
		applicationID, directoryID)
	return err
}

func directoryByID(ctx context.Context, q querier, id string) (*Directory, error) {
	return scanDirectory(q.QueryRowContext(ctx,
		`SELECT `+directoryColumns+` FROM directory WHERE id = ?`, id))
}

func directoryByNameAndOrganization(ctx context.Context, q querier, name, organizationID string) (*Directory, error) {
	return scanDirectory(q.QueryRowContext(ctx,
		`SELECT `+directoryColumns+` FROM directory WHERE name = ? AND organization_id = ?`, name, organizationID))
}

func defaultDirectoryForOrganization(ctx context.Context, q querier, organizationID string) (*Directory, error) {
	return scanDirectory(q.QueryRowContext(ctx,
		`SELECT `+directoryColumns+` FROM directory WHERE organization_id = ? AND is_default = 1`, organizationID))
}

func scanDirectory(row *sql.Row) (*Directory, error) {
	var d Directory
	var created int64
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Name, &d.IsDefault, &d.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Created = fromMillis(created)
	return &d, nil
}

func queryDirectories(ctx context.Context, q querier, query string, args ...any) ([]Directory, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Directory
	for rows.Next() {
		var d Directory
		var created int64
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Name, &d.IsDefault, &d.Status, &created); err != nil {
			return nil, err
		}
		d.Created = fromMillis(created)
		out = append(out, d)
	}
	return out, rows.Err()
}
