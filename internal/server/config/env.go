package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays GOPHGATE_* variables. JWT_SECRET and DATABASE_URL are
// accepted as fallbacks for the secret and DSN.
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}

	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.HTTPAddr, "GOPHGATE_HTTP_ADDR")
	str(&c.GRPCAddr, "GOPHGATE_GRPC_ADDR")
	str(&c.DatabaseDriver, "GOPHGATE_DATABASE_DRIVER")
	str(&c.DatabaseDSN, "GOPHGATE_DATABASE_DSN", "DATABASE_URL")
	str(&c.SecretKey, "GOPHGATE_SECRET_KEY", "JWT_SECRET")
	str(&c.Issuer, "GOPHGATE_ISSUER")
	str(&c.LogBackend, "GOPHGATE_LOG_BACKEND")
	str(&c.LogLevel, "GOPHGATE_LOG_LEVEL")

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"GOPHGATE_ACCESS_TOKEN_TTL", &c.AccessTokenValidityDuration},
		{"GOPHGATE_REFRESH_TOKEN_TTL", &c.RefreshTokenValidityDuration},
		{"GOPHGATE_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, d := range durations {
		v, ok := lookup(d.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"GOPHGATE_BCRYPT_COST", &c.BcryptCost},
		{"GOPHGATE_HASH_CONCURRENCY", &c.HashConcurrency},
		{"GOPHGATE_LOGIN_RATE_BURST", &c.LoginRateBurst},
	}
	for _, n := range ints {
		v, ok := lookup(n.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", n.key, err)
		}
		*n.dst = parsed
	}

	if v, ok := lookup("GOPHGATE_LOGIN_RATE_LIMIT"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GOPHGATE_LOGIN_RATE_LIMIT: %w", err)
		}
		c.LoginRateLimit = parsed
	}
	return nil
}
