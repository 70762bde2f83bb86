// Package services contains server-side business logic: account
// registration, login, credential verification, profile maintenance and the
// administrative account operations. Transports call into this package and
// map its sentinel errors (package common) to their own status codes.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// AuthMetrics receives authentication outcomes.
type AuthMetrics interface {
	AuthOutcome(op, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) AuthOutcome(string, string) {}

// Dependencies is what both services are built from.
type Dependencies struct {
	DB         *sql.DB
	Repos      repomanager.RepositoryManager
	Tokens     *auth.TokenIssuer
	Hasher     *auth.PasswordHasher
	RefreshTTL time.Duration
	Logger     logging.Logger
	Metrics    AuthMetrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// base carries the plumbing shared by IdentityService and AccountAdminService.
type base struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	hasher   *auth.PasswordHasher
	validate *validator.Validate
	log      logging.Logger
	metrics  AuthMetrics
	clock    func() time.Time
}

func newBase(d Dependencies, module string) base {
	b := base{
		db:       d.DB,
		repos:    d.Repos,
		hasher:   d.Hasher,
		validate: newValidator(),
		log:      d.Logger,
		metrics:  d.Metrics,
		clock:    d.Now,
	}
	if b.log == nil {
		b.log = logging.Nop{}
	}
	b.log = b.log.With("module", module)
	if b.metrics == nil {
		b.metrics = nopMetrics{}
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	return b
}

// now returns the current instant in the precision both stores keep.
func (b *base) now() time.Time {
	return b.clock().UTC().Truncate(time.Microsecond)
}

// storageErr passes domain errors through and hides everything else behind
// common.ErrStorage after logging the cause.
func (b *base) storageErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrDuplicateHandle),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrAccountDisabled),
		errors.Is(err, common.ErrCannotDeleteSelf),
		errors.Is(err, common.ErrCannotDemoteSelf):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	b.log.Error(ctx, "storage failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s", common.ErrStorage, op)
}

// NormalizeHandle returns the stored form of a handle.
func NormalizeHandle(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
