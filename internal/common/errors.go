// Package common defines shared constants and sentinel errors used across
// the transport, service and repository layers of gophgate. Callers should
// use errors.Is to match these values; details are attached with %w wrapping.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrDuplicateHandle = errors.New("handle already registered")

	// ErrStorage hides persistence faults from callers. It is the only kind
	// that may be worth retrying.
	ErrStorage = errors.New("storage failure")

	// Input errors.
	ErrValidation = errors.New("validation failed")

	// Authentication errors. ErrInvalidCredentials is returned for both an
	// unknown handle and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAccountDisabled    = errors.New("account disabled")

	// Authorization errors.
	ErrForbidden        = errors.New("forbidden")
	ErrCannotDeleteSelf = errors.New("cannot delete own account")
	ErrCannotDemoteSelf = errors.New("cannot demote or deactivate own account")

	// Throttling.
	ErrRateLimited = errors.New("too many requests")
)
