// Package api exposes the shielded pool over HTTP. All state-changing
// operations go through the mixer state machine; the API layer only decodes
// requests, maps errors to stable codes and encodes responses.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/mixer-z-sandbox/log"
	"github.com/vocdoni/mixer-z-sandbox/mixer"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port and the mixer instance to serve.
type APIConfig struct {
	Host  string
	Port  int
	Mixer *mixer.Mixer
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	mixer  *mixer.Mixer
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	a, err := NewRouter(conf.Mixer)
	if err != nil {
		return nil, err
	}
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// NewRouter creates an API instance without binding a listener, for
// embedding the handler in an existing server or an httptest one.
func NewRouter(m *mixer.Mixer) (*API, error) {
	if m == nil {
		return nil, fmt.Errorf("missing mixer instance")
	}
	a := &API{
		mixer: m,
	}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", InfoEndpoint, "method", "GET")
	a.router.Get(InfoEndpoint, a.info)
	log.Infow("register handler", "endpoint", DepositsEndpoint, "method", "POST")
	a.router.Post(DepositsEndpoint, a.deposit)
	log.Infow("register handler", "endpoint", WithdrawalsEndpoint, "method", "POST")
	a.router.Post(WithdrawalsEndpoint, a.withdraw)
	log.Infow("register handler", "endpoint", RootEndpoint, "method", "GET")
	a.router.Get(RootEndpoint, a.root)
	log.Infow("register handler", "endpoint", RootStatusEndpoint, "method", "GET")
	a.router.Get(RootStatusEndpoint, a.rootStatus)
	log.Infow("register handler", "endpoint", NullifierStatusEndpoint, "method", "GET")
	a.router.Get(NullifierStatusEndpoint, a.nullifierStatus)
	log.Infow("register handler", "endpoint", LeavesEndpoint, "method", "GET")
	a.router.Get(LeavesEndpoint, a.leaves)
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
