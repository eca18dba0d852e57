package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/expo/api/team" // Swagger docs
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/otpstore"
	"github.com/aussiebroadwan/expo/internal/team/service"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/httpx"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// Limits are the rate limit profiles applied per route group.
type Limits struct {
	// Strict covers login and the public password setup steps.
	Strict httpx.RateLimitConfig `envPrefix:"STRICT_"`
	// Moderate covers authenticated member management.
	Moderate httpx.RateLimitConfig `envPrefix:"MODERATE_"`
}

func DefaultLimits() Limits {
	return Limits{Strict: httpx.StrictLimit, Moderate: httpx.ModerateLimit}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	codes    otpstore.Store
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	Limits Limits
	// ClientIP resolves caller addresses for rate limiting. Nil means the
	// direct peer address is used and forwarding headers are ignored.
	ClientIP *httpx.ClientIP

	ActivationService *service.ActivationService
	AuthService       *service.AuthService
	TokenService      *service.TokenService
	BootstrapService  *service.BootstrapService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	codes otpstore.Store,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		codes:        codes,
		metrics:      m,
		gatherer:     gatherer,
		Limits:       DefaultLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTeam()
	r.registerPassword()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Expo Team Service API
//	@version		0.1.0
//	@description	Team member provisioning for the expo backend: admins invite managers and sales staff, invitees verify their email with a one-time code and set a password, members log in for JWT credentials.
//	@description
//	@description				Tokens are signed with EdDSA or ES256 and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern with per-route latency metrics.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	mws = append([]httpx.Middleware{r.instrument(pattern)}, mws...)
	r.Mux.Handle(pattern, httpx.Chain(h, mws...))
}

func (r *Router) instrument(route string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			r.metrics.ObserveHTTP(route, rec.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{AuthService: r.AuthService, TokenService: r.TokenService}
	refresh := &RefreshHandler{TokenService: r.TokenService}
	me := &MeHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP + email to slow password guessing
	r.handle("POST /v1/auth/login", login,
		httpx.RateLimitByIPAndJSONField(r.Limits.Strict, r.ClientIP.Key, "email"),
	)

	r.handle("POST /v1/auth/refresh", refresh,
		httpx.RateLimitByIP(r.Limits.Moderate, r.ClientIP.Key),
	)

	r.handle("GET /v1/me", me,
		httpx.Authn(r.keys.Verifier),
		httpx.RateLimitByMember(r.Limits.Moderate, r.ClientIP.Key),
	)
}

func (r *Router) registerTeam() {
	h := &MembersHandler{ActivationService: r.ActivationService}

	// Admin role is enforced by the service so non-admins get a 403 rather
	// than a 401.
	secured := []httpx.Middleware{
		httpx.Authn(r.keys.Verifier),
		httpx.RateLimitByMember(r.Limits.Moderate, r.ClientIP.Key),
	}

	r.handle("POST /v1/team/members", http.HandlerFunc(h.HandleInvite), secured...)
	r.handle("GET /v1/team/members", http.HandlerFunc(h.HandleList), secured...)
	r.handle("DELETE /v1/team/members/{id}", http.HandlerFunc(h.HandleRemove), secured...)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{ActivationService: r.ActivationService}

	// Public endpoints keyed by IP + email so one address cannot be hammered
	// for codes.
	r.handle("POST /v1/password/otp", http.HandlerFunc(h.HandleRequestOTP),
		httpx.RateLimitByIPAndJSONField(r.Limits.Strict, r.ClientIP.Key, "email"),
	)
	r.handle("POST /v1/password/otp/verify", http.HandlerFunc(h.HandleVerifyOTP),
		httpx.RateLimitByIPAndJSONField(r.Limits.Strict, r.ClientIP.Key, "email"),
	)
	r.handle("POST /v1/password", http.HandlerFunc(h.HandleSetPassword),
		httpx.RateLimitByIPAndJSONField(r.Limits.Strict, r.ClientIP.Key, "email"),
	)
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.handle("POST /v1/bootstrap", h, httpx.RateLimitByIP(r.Limits.Strict, r.ClientIP.Key))
}

func (r *Router) registerSystem() {
	r.handle("GET /.well-known/jwks.json", JWKSHandler(r.keys.KeySet))
	r.handle("GET /livez", LivezHandler())
	r.handle("GET /readyz", ReadyzHandler(r.store, r.codes, r.keys))

	if r.gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}
}
