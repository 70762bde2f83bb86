// Package models defines server-side data models persisted in the database
// and the views derived from them.
package models

import "time"

// Role is the privilege level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a registered principal as stored.
type Account struct {
	ID           string
	Handle       string
	PasswordHash string `json:"-"`
	DisplayName  string
	Phone        string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicAccount is the part of an Account that may leave the service.
type PublicAccount struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public strips the digest.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		Phone:       a.Phone,
		Role:        a.Role,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Principal is the authenticated identity attached to a request. Handle and
// Role are copied from the credential and reflect issuance time.
type Principal struct {
	AccountID string
	Handle    string
	Role      Role
}

// HasRole reports whether the principal holds any of roles.
func (p *Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
