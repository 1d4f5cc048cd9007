package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/service"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/aussiebroadwan/stranger/pkg/presence/wire"
	"github.com/aussiebroadwan/stranger/pkg/slogx"

	_ "github.com/aussiebroadwan/stranger/api/stranger" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	limits       httpx.RateLimits

	// Database and StatusStore are probed by /readyz.
	Database    Pinger
	StatusStore Pinger

	AccountService      *service.AccountService
	VerificationService *service.VerificationService

	// Online backs /v1/presence/online.
	Online OnlineNames

	// Realtime serves the websocket endpoint; it reads the claims that the
	// router's authn middleware stores in the request context.
	Realtime http.Handler
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	limits httpx.RateLimits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		limits:       limits,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerPresence()
	r.registerRealtime()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Stranger Presence Service API
//	@version		0.1.0
//	@description	Accounts, email verification and realtime online presence.
//	@description
//	@description				Access tokens are EdDSA-signed JWTs verifiable with the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/stranger
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

func (r *Router) registerAccounts() {
	register := &RegisterHandler{Accounts: r.AccountService}
	login := &LoginHandler{Accounts: r.AccountService}
	verify := &VerifyHandler{Verification: r.VerificationService}
	profile := &ProfileHandler{Accounts: r.AccountService}

	// Credential endpoints are limited per IP and address to slow guessing.
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(register,
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(login,
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /v1/verify",
		httpx.Chain(http.HandlerFunc(verify.HandleVerify),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)
	r.Mux.Handle("POST /v1/verify/resend",
		httpx.Chain(http.HandlerFunc(verify.HandleResend),
			httpx.RateLimitByIPAndJSONField(r.limits.Strict, "email"),
		),
	)

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(profile.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
	r.Mux.Handle("PATCH /v1/me",
		httpx.Chain(http.HandlerFunc(profile.HandleUpdate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.limits.Moderate),
		),
	)
}

func (r *Router) registerPresence() {
	h := &OnlineHandler{Online: r.Online}

	r.Mux.Handle("GET /v1/presence/online",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireVerified(),
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
}

// registerRealtime godoc
//
//	@Summary		Realtime status websocket
//	@Description	Upgrades to a websocket carrying JSON frames. Clients send write, arm, disarm,
//	@Description	subscribe, unsubscribe and ping operations; the server answers with hello, ack,
//	@Description	snapshot, change and pong frames. The token may also be passed as ?token=.
//	@Tags			Presence
//	@Security		BearerAuth
//	@Param			token	query	string	false	"access token for clients that cannot set headers"
//	@Success		101
//	@Failure		401	{object}	strangersdk.ErrorResponse	"invalid_token"
//	@Failure		503	{string}	string						"server shutting down"
//	@Router			/v1/realtime [get].
func (r *Router) registerRealtime() {
	// Unverified tokens may connect; the hub rejects their writes.
	r.Mux.Handle("GET "+wire.Path,
		httpx.Chain(r.Realtime,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Database, r.StatusStore, r.keys))
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)
}
