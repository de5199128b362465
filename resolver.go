package goGrant

import (
	"context"

	"github.com/MrEthical07/goGrant/store"
)

// principal is a fully resolved login target: the account plus the tenant
// chain it was found under.
type principal struct {
	account      *store.Account
	directory    *store.Directory
	organization *store.Organization
}

// resolvePrincipal resolves an email or username against the requested
// directory, falling back to the configured primary directory when the
// principal is absent from it. The requested directory must be enabled and
// mapped to the requesting application; the primary directory is exempt from
// the application mapping since it is the process-wide house tenant.
//
// The organization is always the requested directory's, even when the
// account came out of the primary fallback: the grant is issued under the
// requested tenant, the house directory just supplies the credentials.
func (e *Engine) resolvePrincipal(ctx context.Context, applicationID, directoryID, login string) (*principal, error) {
	dir, err := e.store.DirectoryByID(ctx, directoryID)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, ErrDirectoryNotFound
	}
	if dir.Status != store.StatusEnabled {
		return nil, ErrDirectoryDisabled
	}

	mapped, err := e.store.DirectoryBelongsToApplication(ctx, dir.ID, applicationID)
	if err != nil {
		return nil, err
	}
	if !mapped {
		return nil, ErrDirectoryNotInApplication
	}

	requested := dir

	acct, err := e.lookupAccount(ctx, login, dir.ID)
	if err != nil {
		return nil, err
	}

	if acct == nil {
		primaryID := e.config.Directory.PrimaryDirectoryID
		if primaryID == "" || primaryID == dir.ID {
			return nil, ErrInvalidCredentials
		}

		primary, err := e.store.DirectoryByID(ctx, primaryID)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			return nil, ErrPrimaryDirectoryNotFound
		}
		if primary.Status != store.StatusEnabled {
			return nil, ErrDirectoryDisabled
		}

		acct, err = e.lookupAccount(ctx, login, primary.ID)
		if err != nil {
			return nil, err
		}
		if acct == nil {
			return nil, ErrInvalidCredentials
		}
		dir = primary
	}

	if acct.Status != store.StatusEnabled {
		return nil, ErrInvalidCredentials
	}

	org, err := e.store.OrganizationByID(ctx, requested.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	return &principal{
		account:      acct,
		directory:    dir,
		organization: org,
	}, nil
}

// lookupAccount tries email first, then username, within one directory.
func (e *Engine) lookupAccount(ctx context.Context, login, directoryID string) (*store.Account, error) {
	acct, err := e.store.AccountByEmailAndDirectory(ctx, login, directoryID)
	if err != nil {
		return nil, err
	}
	if acct != nil {
		return acct, nil
	}
	return e.store.AccountByUsernameAndDirectory(ctx, login, directoryID)
}

// principalByID re-resolves a token's account against the current tenant
// chain, for refresh and client-credentials grants where the account id is
// already known.
func (e *Engine) principalByID(ctx context.Context, applicationID, accountID string, requireMapping bool, invalidAccount error) (*principal, error) {
	acct, err := e.store.AccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.Status != store.StatusEnabled {
		return nil, invalidAccount
	}

	dir, err := e.store.DirectoryByID(ctx, acct.DirectoryID)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, ErrDirectoryNotFound
	}
	if dir.Status != store.StatusEnabled {
		return nil, ErrDirectoryDisabled
	}

	if requireMapping && dir.ID != e.config.Directory.PrimaryDirectoryID {
		mapped, err := e.store.DirectoryBelongsToApplication(ctx, dir.ID, applicationID)
		if err != nil {
			return nil, err
		}
		if !mapped {
			return nil, ErrDirectoryNotInApplication
		}
	}

	org, err := e.store.OrganizationByID(ctx, dir.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	return &principal{
		account:      acct,
		directory:    dir,
		organization: org,
	}, nil
}
