// Package diagnostics exposes an HTTP server reporting subscription and
// provider health, grounded on the teacher's router/v1 package shape
// (gorilla/mux routing, a StatusAvailable /healthz response) enriched with
// an alice middleware chain and rs/cors, both teacher dependencies that
// router/v1 never got around to wiring in.
package diagnostics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/bidfx-oss/pricing-go/config"
	"github.com/bidfx-oss/pricing-go/pricing"
)

// APIPathPrefix is the mount point for every route this package registers,
// matching the teacher's v1.APIPathPrefix convention.
const APIPathPrefix = "/api/v1"

// Status values reported by the /healthz endpoint.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Server reports the live subscription set and provider connectivity over
// HTTP, and renders the metrics sink collected by Metrics.
type Server struct {
	logger  zerolog.Logger
	metrics *Metrics

	mu            sync.Mutex
	subscriptions map[string]pricing.SubscriptionStatus
	providers     map[string]pricing.ProviderStatus
}

// New builds a diagnostics Server and wires cb so every subscription and
// provider event updates the state /healthz and the status endpoints report.
func New(logger zerolog.Logger, metrics *Metrics, cb *pricing.Callbacks) *Server {
	s := &Server{
		logger:        logger.With().Str("component", "diagnostics").Logger(),
		metrics:       metrics,
		subscriptions: make(map[string]pricing.SubscriptionStatus),
		providers:     make(map[string]pricing.ProviderStatus),
	}

	prevSub := cb.SubscriptionEventFn
	cb.SubscriptionEventFn = func(e pricing.SubscriptionEvent) {
		s.mu.Lock()
		s.subscriptions[e.Subject.String()] = e.Status
		s.mu.Unlock()
		if prevSub != nil {
			prevSub(e)
		}
	}

	prevProvider := cb.ProviderEventFn
	cb.ProviderEventFn = func(e pricing.ProviderEvent) {
		s.mu.Lock()
		s.providers[e.Provider] = e.Status
		s.mu.Unlock()
		if prevProvider != nil {
			prevProvider(e)
		}
	}

	return s
}

// RegisterRoutes mounts the server's handlers under prefix on r, following
// v1.Router.RegisterRoutes.
func (s *Server) RegisterRoutes(r *mux.Router, prefix string) {
	r.HandleFunc(prefix+"/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/subscriptions", s.handleSubscriptions).Methods(http.MethodGet)
	r.HandleFunc(prefix+"/providers", s.handleProviders).Methods(http.MethodGet)
	if s.metrics != nil {
		r.HandleFunc(prefix+"/metrics", s.handleMetrics).Methods(http.MethodGet)
	}
}

// ListenAndServe builds the router, layers the cors and request-logging
// middleware through an alice chain, and serves it on cfg.ListenAddr from a
// background goroutine. It returns the *http.Server at once; the caller
// stops it through that server's Shutdown, matching the caller-owns-lifecycle
// pattern cmd/stream.go uses for Facade.
func (s *Server) ListenAndServe(cfg config.Diagnostics) *http.Server {
	r := mux.NewRouter()
	s.RegisterRoutes(r, APIPathPrefix)

	corsOpt := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		Debug:          cfg.VerboseCORS,
	})
	chain := alice.New(corsOpt.Handler, s.loggingMiddleware).Then(r)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      chain,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info().Str("addr", cfg.ListenAddr).Msg("starting diagnostics server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("diagnostics server stopped")
		}
	}()
	return httpServer
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("diagnostics request")
		next.ServeHTTP(w, req)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": StatusAvailable})
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.subscriptions)
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.providers)
}

func (s *Server) handleMetrics(w http.ResponseWriter, req *http.Request) {
	body, err := s.metrics.Sink().DisplayMetrics(w, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
