package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	_, ok = PrincipalFromContext(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)

	p := &models.Principal{AccountID: "a-1", Handle: "alice", Role: models.RoleAdmin}
	got, ok := PrincipalFromContext(WithPrincipal(context.Background(), p))
	assert.True(t, ok)
	assert.Same(t, p, got)
}
