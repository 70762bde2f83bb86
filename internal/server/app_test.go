package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.DatabaseDSN = storetest.SQLiteDSN(t.TempDir())
	c.SecretKey = "test-secret"
	c.BcryptCost = bcrypt.MinCost
	c.CleanupInterval = 20 * time.Millisecond
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_AndRun(t *testing.T) {
	var logs bytes.Buffer
	app, err := NewApp(context.Background(), testConfig(t), &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, logs.String(), "Starting HTTP server")
	assert.Contains(t, logs.String(), "App stopped")
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "oracle"
	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)

	c = testConfig(t)
	c.LogBackend = "logrus"
	_, err = NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)

	c = testConfig(t)
	c.SecretKey = ""
	_, err = NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRun_ListenError(t *testing.T) {
	c := testConfig(t)
	c.HTTPAddr = "256.0.0.1:bad"
	app, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.Error(t, app.Run(context.Background()))
}
