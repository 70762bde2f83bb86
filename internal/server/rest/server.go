// Package rest exposes the identity and admin services as a JSON HTTP API
// routed with gorilla/mux.
package rest

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"github.com/gorilla/mux"
)

// IdentityService is the subset of services.IdentityService the API uses.
type IdentityService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
	Me(ctx context.Context, p *models.Principal) (*models.PublicAccount, error)
	UpdateSelf(ctx context.Context, p *models.Principal, upd services.ProfileUpdate) (*models.PublicAccount, error)
}

// AdminService is the subset of services.AccountAdminService the API uses.
type AdminService interface {
	List(ctx context.Context, page, perPage int) (*services.AccountPage, error)
	Get(ctx context.Context, id string) (*models.PublicAccount, error)
	Update(ctx context.Context, actor *models.Principal, id string, upd services.AdminUpdate) (*models.PublicAccount, error)
	Delete(ctx context.Context, actor *models.Principal, id string) error
}

// Server holds the handlers' dependencies.
type Server struct {
	identity IdentityService
	admin    AdminService
	log      logging.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	health   func(ctx context.Context) error
}

type Option func(*Server)

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimiter throttles the register and login routes.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithHealthCheck makes /healthz report the result of check.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

func NewServer(identity IdentityService, admin AdminService, log logging.Logger, opts ...Option) *Server {
	if log == nil {
		log = logging.Nop{}
	}
	s := &Server{
		identity: identity,
		admin:    admin,
		log:      log.With("module", "rest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found", Code: "not_found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed", Code: "method_not_allowed"})
	})
	r.Use(captureRoute)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	authR := r.PathPrefix("/api/auth").Subrouter()
	authR.Handle("/register", s.throttled(s.register)).Methods(http.MethodPost)
	authR.Handle("/login", s.throttled(s.login)).Methods(http.MethodPost)
	authR.HandleFunc("/refresh", s.refresh).Methods(http.MethodPost)
	authR.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	authR.Handle("/me", s.authenticate(http.HandlerFunc(s.me))).Methods(http.MethodGet)
	authR.Handle("/me", s.authenticate(http.HandlerFunc(s.updateMe))).Methods(http.MethodPut)

	adminR := r.PathPrefix("/api/admin").Subrouter()
	adminR.Use(s.authenticate, s.requireRole(models.RoleAdmin))
	adminR.HandleFunc("/accounts", s.listAccounts).Methods(http.MethodGet)
	adminR.HandleFunc("/accounts/{id}", s.getAccount).Methods(http.MethodGet)
	adminR.HandleFunc("/accounts/{id}", s.updateAccount).Methods(http.MethodPatch)
	adminR.HandleFunc("/accounts/{id}", s.deleteAccount).Methods(http.MethodDelete)

	// logging and metrics wrap the router so unmatched requests are seen too
	var h http.Handler = s.recoverer(r)
	if s.metrics != nil {
		h = s.instrument(h)
	}
	return s.requestLogger(h)
}

func (s *Server) throttled(h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.rateLimit(h)
}
