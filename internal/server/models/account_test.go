package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}

func TestAccount_PublicOmitsDigest(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &Account{
		ID:           "a-1",
		Handle:       "alice",
		PasswordHash: "$2a$10$secretdigest",
		DisplayName:  "Alice",
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	b, err := json.Marshal(a.Public())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(b), "secretdigest"))
	assert.Contains(t, string(b), `"handle":"alice"`)
	assert.Contains(t, string(b), `"role":"user"`)

	b, err = json.Marshal(a)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(b), "secretdigest"), "digest must never serialize")
}

func TestPrincipal_HasRole(t *testing.T) {
	p := &Principal{AccountID: "a-1", Role: RoleUser}
	assert.True(t, p.HasRole(RoleUser))
	assert.True(t, p.HasRole(RoleAdmin, RoleUser))
	assert.False(t, p.HasRole(RoleAdmin))
	assert.False(t, p.HasRole())
}
