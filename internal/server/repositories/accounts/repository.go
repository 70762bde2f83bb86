// Package accounts declares the account store contract and its SQL
// implementation.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// Repository persists Account records. Handle uniqueness is enforced by the
// store itself: Create reports a conflicting insert as common.ErrDuplicateHandle.
type Repository interface {
	// Create inserts a new account. The caller assigns ID and timestamps.
	Create(ctx context.Context, a *models.Account) error

	// GetByHandle and GetByID return common.ErrNotFound when absent.
	GetByHandle(ctx context.Context, handle string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// Update overwrites the mutable columns of an existing account.
	Update(ctx context.Context, a *models.Account) error

	// Delete removes an account; common.ErrNotFound if it did not exist.
	Delete(ctx context.Context, id string) error

	// List returns a page ordered from newest to oldest.
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Count(ctx context.Context) (int, error)
}
