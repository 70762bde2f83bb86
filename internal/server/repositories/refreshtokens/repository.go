// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh
// tokens. Tokens are addressed by the SHA-256 digest of their opaque value.
type Repository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, t *models.RefreshToken) error

	// Find returns the token with the given digest or common.ErrNotFound.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes a token by digest and reports whether it existed.
	// Deleting a missing token is not an error.
	Delete(ctx context.Context, tokenHash string) (bool, error)

	// DeleteByAccount removes every token of an account.
	DeleteByAccount(ctx context.Context, accountID string) error

	// DeleteExpired purges tokens that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
