package models

import "time"

// RefreshToken is the stored form of an issued refresh token. Only the
// SHA-256 digest of the token is kept.
type RefreshToken struct {
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
