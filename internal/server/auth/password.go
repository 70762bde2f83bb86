package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// maxPasswordBytes is bcrypt's input limit; it ignores anything beyond it.
const maxPasswordBytes = 72

// Gauge is the part of a metrics gauge the hasher reports to.
type Gauge interface {
	Inc()
	Dec()
}

// PasswordHasher computes and checks bcrypt digests. At most `concurrency`
// bcrypt operations run at once; callers beyond that wait for a slot or for
// their context to end.
type PasswordHasher struct {
	cost     int
	sem      *semaphore.Weighted
	inFlight Gauge

	dummyOnce sync.Once
	dummy     []byte
	dummyErr  error
}

// NewPasswordHasher checks cost against bcrypt's bounds. A non-positive
// concurrency means one slot per CPU.
func NewPasswordHasher(cost, concurrency int, inFlight Gauge) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &PasswordHasher{
		cost:     cost,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		inFlight: inFlight,
	}, nil
}

func (h *PasswordHasher) run(ctx context.Context, fn func() error) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	if h.inFlight != nil {
		h.inFlight.Inc()
		defer h.inFlight.Dec()
	}
	return fn()
}

// Hash returns the bcrypt digest of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	var digest []byte
	err := h.run(ctx, func() error {
		var err error
		digest, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", common.ErrValidation)
	}
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether password matches digest. A mismatch is not an
// error; a malformed digest or a cancelled context is. Passwords longer than
// maxPasswordBytes never match, though the comparison still runs so the cost
// is the same.
func (h *PasswordHasher) Compare(ctx context.Context, digest, password string) (bool, error) {
	err := h.run(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	})
	switch {
	case err == nil && len(password) <= maxPasswordBytes:
		return true, nil
	case err == nil,
		errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

// CompareDummy spends one comparison on a fixed digest so that an unknown
// handle costs as much as a wrong password.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) error {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = bcrypt.GenerateFromPassword([]byte("gophgate-unknown-account"), h.cost)
	})
	if h.dummyErr != nil {
		return h.dummyErr
	}
	_, err := h.Compare(ctx, string(h.dummy), password)
	return err
}
