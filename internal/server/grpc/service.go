package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"google.golang.org/grpc"
)

const serviceName = "gophgate.identity.Identity"

const (
	MethodRegister      = "/" + serviceName + "/Register"
	MethodLogin         = "/" + serviceName + "/Login"
	MethodRefresh       = "/" + serviceName + "/Refresh"
	MethodMe            = "/" + serviceName + "/Me"
	MethodListAccounts  = "/" + serviceName + "/ListAccounts"
	MethodDeleteAccount = "/" + serviceName + "/DeleteAccount"
)

type (
	RegisterRequest      = services.RegisterInput
	LoginRequest         = services.LoginInput
	AuthResponse         = services.AuthResult
	AccountResponse      = models.PublicAccount
	ListAccountsResponse = services.AccountPage
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ListAccountsRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type DeleteAccountRequest struct {
	ID string `json:"id"`
}

type Empty struct{}

// IdentityServer is the server API of the Identity service.
type IdentityServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	Me(context.Context, *Empty) (*AccountResponse, error)
	ListAccounts(context.Context, *ListAccountsRequest) (*ListAccountsResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error)
}

func unary[Req, Resp any](fullMethod string, call func(IdentityServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IdentityServiceDesc describes the Identity service for grpc.Server.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(MethodRegister, IdentityServer.Register)},
		{MethodName: "Login", Handler: unary(MethodLogin, IdentityServer.Login)},
		{MethodName: "Refresh", Handler: unary(MethodRefresh, IdentityServer.Refresh)},
		{MethodName: "Me", Handler: unary(MethodMe, IdentityServer.Me)},
		{MethodName: "ListAccounts", Handler: unary(MethodListAccounts, IdentityServer.ListAccounts)},
		{MethodName: "DeleteAccount", Handler: unary(MethodDeleteAccount, IdentityServer.DeleteAccount)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophgate/identity",
}

// IdentityClient calls the Identity service using the JSON codec.
type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *IdentityClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *IdentityClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *IdentityClient) Me(ctx context.Context, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, MethodMe, &Empty{}, opts)
}

func (c *IdentityClient) ListAccounts(ctx context.Context, in *ListAccountsRequest, opts ...grpc.CallOption) (*ListAccountsResponse, error) {
	return invoke[ListAccountsResponse](ctx, c.cc, MethodListAccounts, in, opts)
}

func (c *IdentityClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, MethodDeleteAccount, in, opts)
	return err
}
