package server

import (
	"context"
	"errors"
	"net/http"

	stripe "github.com/stripe/stripe-go/v81"
	"golang.org/x/time/rate"

	"github.com/anth0nytran/coaching-site/internal/config"
	"github.com/anth0nytran/coaching-site/internal/content"
	"github.com/anth0nytran/coaching-site/internal/discord"
	"github.com/anth0nytran/coaching-site/internal/log"
	"github.com/anth0nytran/coaching-site/internal/payments"
	"github.com/anth0nytran/coaching-site/internal/session"
)

// BotClient is the slice of the Discord bot the handlers need.
type BotClient interface {
	AssignStudentRole(ctx context.Context, userID string) error
	NotifyOwner(ctx context.Context, content string) error
	IsGuildMember(ctx context.Context, userID string) bool
}

// CheckoutService is the slice of the payments service the handlers need.
type CheckoutService interface {
	Create(ctx context.Context, req payments.Request) (string, error)
	Confirm(ctx context.Context, sessionID string) (*payments.Confirmation, error)
	WebhookConfigured() bool
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg      config.Config
	sessions session.Manager
	state    session.StateManager
	provider discord.IdentityProvider
	bot      BotClient
	checkout CheckoutService
	catalog  *content.Catalog

	// Lead submissions are throttled globally; the endpoint is an
	// unauthenticated write path straight into the owner's Discord channel.
	leadLimiter *rate.Limiter
}

// New creates a server with dependency injection. provider may be nil when
// OAuth is not configured; the login flow then degrades to a redirect home.
func New(
	cfg config.Config,
	sessions session.Manager,
	provider discord.IdentityProvider,
	bot BotClient,
	checkout CheckoutService,
	catalog *content.Catalog,
) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		provider:    provider,
		bot:         bot,
		checkout:    checkout,
		catalog:     catalog,
		leadLimiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// Routes builds the HTTP handler for the whole site API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/auth/login", s.LoginHandler)
	mux.HandleFunc("GET /api/auth/callback", s.CallbackHandler)
	mux.HandleFunc("GET /api/auth/logout", s.LogoutHandler)
	mux.HandleFunc("GET /api/session", s.SessionHandler)
	mux.HandleFunc("GET /api/discord/membership", s.MembershipHandler)

	mux.HandleFunc("POST /api/checkout", s.CheckoutHandler)
	mux.HandleFunc("GET /api/checkout/confirm", s.CheckoutConfirmHandler)

	mux.HandleFunc("POST /api/webhooks/stripe", s.StripeWebhookHandler)
	mux.HandleFunc("POST /api/webhooks/calendly", s.CalendlyWebhookHandler)

	mux.HandleFunc("POST /api/lead", s.LeadHandler)

	mux.HandleFunc("GET /api/videos", s.VideosHandler)
	mux.HandleFunc("GET /api/credentials", s.CredentialsHandler)

	mux.Handle("GET /health", NewHealthHandler())

	return ChainMiddleware(mux, NewLoggingMiddleware())
}

// HTTPServer manages the HTTP server lifecycle
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer creates a new HTTP server with the given handler and address
func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

// HealthHandler handles health check requests
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for health checks
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	log.LogInfoWithFields("http", "HTTP server starting", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	log.LogInfoWithFields("http", "HTTP server stopping", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
