package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophgate/internal/flagx"
	"github.com/dmitrijs2005/gophgate/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a configuration file. Durations accept
// "15m" or integer nanoseconds. Absent keys leave the current value alone.
type FileConfig struct {
	HTTPAddr                     *string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr                     *string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDriver               *string         `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	Issuer                       *string         `json:"issuer" yaml:"issuer"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BcryptCost                   *int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	HashConcurrency              *int            `json:"hash_concurrency" yaml:"hash_concurrency"`
	LogBackend                   *string         `json:"log_backend" yaml:"log_backend"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	LoginRateLimit               *float64        `json:"login_rate_limit" yaml:"login_rate_limit"`
	LoginRateBurst               *int            `json:"login_rate_burst" yaml:"login_rate_burst"`
	CleanupInterval              *timex.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are read as YAML, everything else as JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *FileConfig) apply(c *Config) {
	setIf(&c.HTTPAddr, fc.HTTPAddr)
	setIf(&c.GRPCAddr, fc.GRPCAddr)
	setIf(&c.DatabaseDriver, fc.DatabaseDriver)
	setIf(&c.DatabaseDSN, fc.DatabaseDSN)
	setIf(&c.SecretKey, fc.SecretKey)
	setIf(&c.Issuer, fc.Issuer)
	setIf(&c.BcryptCost, fc.BcryptCost)
	setIf(&c.HashConcurrency, fc.HashConcurrency)
	setIf(&c.LogBackend, fc.LogBackend)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.LoginRateLimit, fc.LoginRateLimit)
	setIf(&c.LoginRateBurst, fc.LoginRateBurst)

	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration != nil {
		c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.CleanupInterval != nil {
		c.CleanupInterval = fc.CleanupInterval.Duration
	}
	if fc.ShutdownTimeout != nil {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
}
