package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	c := defaults()
	err := parseEnv(c, envMap(map[string]string{
		"GOPHGATE_HTTP_ADDR":         ":7000",
		"DATABASE_URL":               "postgres://fallback",
		"GOPHGATE_SECRET_KEY":        "primary",
		"JWT_SECRET":                 "secondary",
		"GOPHGATE_ACCESS_TOKEN_TTL":  "30m",
		"GOPHGATE_BCRYPT_COST":       "11",
		"GOPHGATE_LOGIN_RATE_LIMIT":  "0",
		"GOPHGATE_REFRESH_TOKEN_TTL": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.HTTPAddr)
	assert.Equal(t, "postgres://fallback", c.DatabaseDSN)
	assert.Equal(t, "primary", c.SecretKey, "GOPHGATE_SECRET_KEY wins over JWT_SECRET")
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 168*time.Hour, c.RefreshTokenValidityDuration, "empty values are ignored")
	assert.Equal(t, 11, c.BcryptCost)
	assert.Zero(t, c.LoginRateLimit)
}

func TestParseEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"GOPHGATE_ACCESS_TOKEN_TTL": "forever",
		"GOPHGATE_BCRYPT_COST":      "ten",
		"GOPHGATE_LOGIN_RATE_LIMIT": "lots",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			err := parseEnv(defaults(), envMap(map[string]string{k: v}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), k)
		})
	}
}

func TestParseEnv_NilLookup(t *testing.T) {
	c := defaults()
	require.NoError(t, parseEnv(c, nil))
	assert.Equal(t, defaults(), c)
}

func TestParseEnv_ZeroShutdownTimeoutFailsValidation(t *testing.T) {
	c := defaults()
	c.SecretKey = "s3cr3t"
	require.NoError(t, parseEnv(c, envMap(map[string]string{"GOPHGATE_SHUTDOWN_TIMEOUT": "0s"})))
	assert.Zero(t, c.ShutdownTimeout)
	assert.ErrorContains(t, c.Validate(), "shutdown timeout")
}
