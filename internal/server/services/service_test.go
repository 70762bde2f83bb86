package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophgate/internal/server/storetest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recordingMetrics struct {
	mu  sync.Mutex
	got map[string]int
}

func (m *recordingMetrics) AuthOutcome(op, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.got == nil {
		m.got = map[string]int{}
	}
	m.got[op+"/"+outcome]++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.got[key]
}

type fixture struct {
	identity *IdentityService
	admin    *AccountAdminService
	tokens   *auth.TokenIssuer
	clock    *fakeClock
	metrics  *recordingMetrics
	deps     Dependencies
}

const (
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storetest.OpenSQLite(t)
	m, err := repomanager.NewSQLRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenIssuer([]byte("test-secret-0123456789"), testAccessTTL, auth.WithClock(clock.Now))
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 4, nil)
	require.NoError(t, err)

	metrics := &recordingMetrics{}
	d := Dependencies{
		DB:         db,
		Repos:      m,
		Tokens:     tokens,
		Hasher:     hasher,
		RefreshTTL: testRefreshTTL,
		Metrics:    metrics,
		Now:        clock.Now,
	}
	return &fixture{
		identity: NewIdentityService(d),
		admin:    NewAccountAdminService(d),
		tokens:   tokens,
		clock:    clock,
		metrics:  metrics,
		deps:     d,
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) register(t *testing.T, handle, password string) *AuthResult {
	t.Helper()
	res, err := f.identity.Register(context.Background(), RegisterInput{Handle: handle, Password: password})
	require.NoError(t, err)
	return res
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.deps.Repos.Accounts(f.deps.DB).Count(context.Background())
	require.NoError(t, err)
	return n
}
