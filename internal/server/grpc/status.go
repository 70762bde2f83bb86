package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var statusKinds = []struct {
	err  error
	code codes.Code
}{
	{common.ErrValidation, codes.InvalidArgument},
	{common.ErrDuplicateHandle, codes.AlreadyExists},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrUnauthorized, codes.Unauthenticated},
	{common.ErrAccountDisabled, codes.PermissionDenied},
	{common.ErrForbidden, codes.PermissionDenied},
	{common.ErrCannotDeleteSelf, codes.FailedPrecondition},
	{common.ErrCannotDemoteSelf, codes.FailedPrecondition},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrRateLimited, codes.ResourceExhausted},
}

// toStatus converts a domain error to a gRPC status. Validation errors keep
// their detail; unknown errors are logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, k := range statusKinds {
		if errors.Is(err, k.err) {
			msg := k.err.Error()
			if k.err == common.ErrValidation {
				msg = err.Error()
			}
			return status.Error(k.code, msg)
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	s.logger.Error(ctx, "grpc call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
