// Package config handles configuration for the server component: defaults,
// a JSON or YAML file overlay, environment variables and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the gophgate server.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	DatabaseDriver string
	DatabaseDSN    string

	// SecretKey signs access tokens (HS256). It has no default.
	SecretKey                    string
	Issuer                       string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration

	BcryptCost int
	// HashConcurrency bounds concurrent bcrypt work; 0 means one per CPU.
	HashConcurrency int

	LogBackend string
	LogLevel   string

	// LoginRateLimit is the number of login/register attempts per minute
	// allowed per client; 0 disables throttling.
	LoginRateLimit  float64
	LoginRateBurst  int
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults. SecretKey is
// deliberately left empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDriver = string(dbx.DialectSQLite)
	c.DatabaseDSN = "file:gophgate.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	c.Issuer = "gophgate"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.HashConcurrency = 0
	c.LogBackend = logging.BackendSlog
	c.LogLevel = "info"
	c.LoginRateLimit = 10
	c.LoginRateBurst = 5
	c.CleanupInterval = 10 * time.Minute
	c.ShutdownTimeout = 10 * time.Second
}

// Load builds a Config from defaults, the file named by -c/-config in args,
// the environment seen through lookupEnv, and the flags in args.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Validate reports every setting that would keep the server from running
// correctly.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is not set (use -s, GOPHGATE_SECRET_KEY or JWT_SECRET)"))
	}
	if _, err := dbx.ParseDialect(c.DatabaseDriver); err != nil {
		errs = append(errs, err)
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is not set"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token validity must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost %d outside [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.HashConcurrency < 0 {
		errs = append(errs, errors.New("hash concurrency must not be negative"))
	}
	if c.LogBackend != logging.BackendSlog && c.LogBackend != logging.BackendZap {
		errs = append(errs, fmt.Errorf("unknown log backend %q", c.LogBackend))
	}
	if c.LoginRateLimit < 0 || (c.LoginRateLimit > 0 && c.LoginRateBurst < 1) {
		errs = append(errs, errors.New("login rate limit must be >= 0 with a burst of at least 1"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("cleanup interval must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be positive"))
	}

	return errors.Join(errs...)
}
