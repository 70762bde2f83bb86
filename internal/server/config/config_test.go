package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Empty(t, c.SecretKey)
	assert.Equal(t, 24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 168*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, "slog", c.LogBackend)
}

func TestLoad_NoSources(t *testing.T) {
	c, err := Load(nil, envMap(nil))
	require.NoError(t, err)
	if diff := cmp.Diff(defaults(), c); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempFile(t, "cfg.json", `{"http_addr": ":1000", "grpc_addr": ":2000", "secret_key": "from-file", "log_level": "debug"}`)

	c, err := Load(
		[]string{"-c", path, "-a", ":3000"},
		envMap(map[string]string{"GOPHGATE_GRPC_ADDR": ":4000", "JWT_SECRET": "from-env"}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":3000", c.HTTPAddr, "flag beats file")
	assert.Equal(t, ":4000", c.GRPCAddr, "env beats file")
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, "debug", c.LogLevel, "file beats default")
}

func TestValidate(t *testing.T) {
	c := defaults()
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is not set")

	c.SecretKey = "s3cr3t"
	require.NoError(t, c.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.DatabaseDriver = "oracle" }, "unsupported database driver"},
		{"dsn", func(c *Config) { c.DatabaseDSN = "" }, "dsn"},
		{"access ttl", func(c *Config) { c.AccessTokenValidityDuration = 0 }, "access token validity"},
		{"refresh ttl", func(c *Config) { c.RefreshTokenValidityDuration = -time.Second }, "refresh token validity"},
		{"bcrypt", func(c *Config) { c.BcryptCost = 99 }, "bcrypt cost"},
		{"backend", func(c *Config) { c.LogBackend = "logrus" }, "log backend"},
		{"burst", func(c *Config) { c.LoginRateBurst = 0 }, "burst"},
		{"cleanup", func(c *Config) { c.CleanupInterval = 0 }, "cleanup interval"},
		{"shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			c.SecretKey = "s3cr3t"
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_RateLimitDisabled(t *testing.T) {
	c := defaults()
	c.SecretKey = "s3cr3t"
	c.LoginRateLimit = 0
	c.LoginRateBurst = 0
	assert.NoError(t, c.Validate())
}
