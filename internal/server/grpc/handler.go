package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/server/auth"
)

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	return s.identity.Register(ctx, *req)
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	return s.identity.Login(ctx, *req)
}

func (s *GRPCServer) Refresh(ctx context.Context, req *RefreshRequest) (*AuthResponse, error) {
	return s.identity.Refresh(ctx, req.RefreshToken)
}

func (s *GRPCServer) Me(ctx context.Context, _ *Empty) (*AccountResponse, error) {
	p, _ := auth.PrincipalFromContext(ctx)
	return s.identity.Me(ctx, p)
}

func (s *GRPCServer) ListAccounts(ctx context.Context, req *ListAccountsRequest) (*ListAccountsResponse, error) {
	return s.admin.List(ctx, req.Page, req.PerPage)
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, req *DeleteAccountRequest) (*Empty, error) {
	p, _ := auth.PrincipalFromContext(ctx)
	if err := s.admin.Delete(ctx, p, req.ID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}
