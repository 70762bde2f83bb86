// Package grpc serves the Identity service over gRPC. Messages are plain Go
// structs encoded by a JSON codec; access control is applied by a unary
// interceptor from a per-method policy table.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"google.golang.org/grpc"
)

type IdentityService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
	Me(ctx context.Context, p *models.Principal) (*models.PublicAccount, error)
}

type AdminService interface {
	List(ctx context.Context, page, perPage int) (*services.AccountPage, error)
	Delete(ctx context.Context, actor *models.Principal, id string) error
}

type GRPCServer struct {
	address  string
	identity IdentityService
	admin    AdminService
	logger   logging.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
}

type Option func(*GRPCServer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GRPCServer) { s.metrics = m }
}

// WithRateLimiter throttles Register and Login per peer address.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *GRPCServer) { s.limiter = l }
}

func NewGRPCServer(address string, l logging.Logger, identity IdentityService, admin AdminService, opts ...Option) *GRPCServer {
	if l == nil {
		l = logging.Nop{}
	}
	s := &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		identity: identity,
		admin:    admin,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.unaryInterceptor))
	srv.RegisterService(&IdentityServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
