package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type policy struct {
	public    bool
	throttled bool
	roles     []models.Role
}

// methodPolicy lists every method. Methods missing from it require
// authentication.
var methodPolicy = map[string]policy{
	MethodRegister:      {public: true, throttled: true},
	MethodLogin:         {public: true, throttled: true},
	MethodRefresh:       {public: true},
	MethodMe:            {},
	MethodListAccounts:  {roles: []models.Role{models.RoleAdmin}},
	MethodDeleteAccount: {roles: []models.Role{models.RoleAdmin}},
}

func (s *GRPCServer) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := s.guard(ctx, req, info, handler)
	if err != nil {
		err = s.toStatus(ctx, info.FullMethod, err)
	}

	code := status.Code(err)
	if s.metrics != nil {
		s.metrics.RecordGRPCRequest(info.FullMethod, code.String())
	}
	s.logger.Info(ctx, "grpc call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	return resp, err
}

// guard applies the method's policy and attaches the principal before
// calling handler.
func (s *GRPCServer) guard(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	pol, ok := methodPolicy[info.FullMethod]
	if !ok {
		pol = policy{}
	}

	if pol.throttled && s.limiter != nil {
		if allowed, _ := s.limiter.Allow(peerKey(ctx)); !allowed {
			return nil, common.ErrRateLimited
		}
	}

	if !pol.public {
		token, err := auth.BearerToken(firstMetadata(ctx, common.AuthorizationHeaderName))
		if err != nil {
			return nil, err
		}
		p, err := s.identity.Authenticate(ctx, token)
		if err != nil {
			return nil, err
		}
		if len(pol.roles) > 0 {
			if err := auth.Authorize(p, pol.roles...); err != nil {
				return nil, err
			}
		}
		ctx = auth.WithPrincipal(ctx, p)
	}

	return handler(ctx, req)
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
