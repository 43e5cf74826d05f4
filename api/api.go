package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/privacy-pool/asp"
	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/pool"
	"github.com/vocdoni/privacy-pool/transfer"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host string
	Port int
	// Pool is the pool served by the API.
	Pool *pool.Pool
	// Registry receives the approval roots published through the API.
	Registry *asp.Registry
	// Ledger is optional: when set, native ledger balances are exposed.
	Ledger *transfer.Ledger
	// Admin is the address allowed to wind down the pool and publish
	// approval roots.
	Admin common.Address
}

// API type represents the pool HTTP server.
type API struct {
	router   *chi.Mux
	server   *http.Server
	listener net.Listener
	pool     *pool.Pool
	registry *asp.Registry
	ledger   *transfer.Ledger
	admin    common.Address
}

// New creates a new API instance with the given configuration and starts
// the HTTP server in the background.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Pool == nil {
		return nil, fmt.Errorf("missing pool instance")
	}
	if conf.Registry == nil {
		return nil, fmt.Errorf("missing approval root registry")
	}
	a := &API{
		pool:     conf.Pool,
		registry: conf.Registry,
		ledger:   conf.Ledger,
		admin:    conf.Admin,
	}

	// Initialize router
	a.initRouter()
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	a.listener = ln
	a.server = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "addr", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server failed")
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// Addr returns the address the server listens on.
func (a *API) Addr() net.Addr {
	return a.listener.Addr()
}

// Close gracefully stops the HTTP server.
func (a *API) Close(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

type route struct {
	method   string
	endpoint string
	handler  http.HandlerFunc
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	routes := []route{
		{http.MethodGet, PingEndpoint, func(w http.ResponseWriter, r *http.Request) { httpWriteOK(w) }},
		{http.MethodGet, PoolEndpoint, a.stats},
		{http.MethodPost, DepositsEndpoint, a.deposit},
		{http.MethodPost, WithdrawalsEndpoint, a.withdraw},
		{http.MethodPost, RagequitsEndpoint, a.ragequit},
		{http.MethodPost, WindDownEndpoint, a.windDown},
		{http.MethodGet, RootEndpoint, a.root},
		{http.MethodGet, KnownRootEndpoint, a.knownRoot},
		{http.MethodGet, LeavesEndpoint, a.leaves},
		{http.MethodGet, LeafProofEndpoint, a.leafProof},
		{http.MethodGet, CommitmentEndpoint, a.commitmentProof},
		{http.MethodGet, NullifierEndpoint, a.nullifier},
		{http.MethodGet, DepositorEndpoint, a.depositor},
		{http.MethodGet, EventsEndpoint, a.events},
		{http.MethodPost, ApprovalRootsEndpoint, a.publishApprovalRoot},
		{http.MethodGet, ApprovalRootsEndpoint, a.approvalRoots},
		{http.MethodGet, LatestApprovalRootEndpoint, a.latestApprovalRoot},
	}
	if a.ledger != nil {
		routes = append(routes, route{http.MethodGet, BalanceEndpoint, a.balance})
	}
	for _, h := range routes {
		log.Infow("register handler", "endpoint", h.endpoint, "method", h.method)
		a.router.Method(h.method, h.endpoint, h.handler)
	}
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
