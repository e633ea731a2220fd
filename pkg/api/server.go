/*
 * Copyright 2025 Teleolink Robotics.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api provides the HTTP surface of the coordinator: the WebSocket
// endpoint for peers and the JSON control plane for the dashboard.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	srHTTP "github.com/teleolink/coordinator/pkg/http"
	"github.com/teleolink/coordinator/pkg/logger"
	"github.com/teleolink/coordinator/pkg/models"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
)

// CoordinatorService is the control-plane contract the coordinator core
// exposes to the admin API.
type CoordinatorService interface {
	Connections() []models.ConnectionSummary
	Connection(id string) (*models.ConnectionDetail, error)
	ForcePair(idA, idB string) error
	CloseConnection(id string) error
}

// APIServer serves the admin control plane plus the /ws peer endpoint.
type APIServer struct {
	router         *mux.Router
	coordinator    CoordinatorService
	wsHandler      http.HandlerFunc
	metricsHandler http.Handler
	corsConfig     models.CORSConfig
	apiKey         string
	logger         logger.Logger
	httpServer     *http.Server
}

func NewAPIServer(options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router: mux.NewRouter(),
		logger: logger.NewTestLogger(),
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

// WithCoordinator wires the coordinator core into the API server.
func WithCoordinator(c CoordinatorService) func(*APIServer) {
	return func(server *APIServer) {
		server.coordinator = c
	}
}

// WithWebSocketHandler mounts the peer WebSocket endpoint at /ws.
func WithWebSocketHandler(h http.HandlerFunc) func(*APIServer) {
	return func(server *APIServer) {
		server.wsHandler = h
	}
}

// WithMetricsHandler mounts a metrics endpoint at /metrics.
func WithMetricsHandler(h http.Handler) func(*APIServer) {
	return func(server *APIServer) {
		server.metricsHandler = h
	}
}

// WithAPIKey protects the /api routes with a shared key.
func WithAPIKey(key string) func(*APIServer) {
	return func(server *APIServer) {
		server.apiKey = key
	}
}

// WithCORSConfig sets the CORS policy for the admin routes.
func WithCORSConfig(cors models.CORSConfig) func(*APIServer) {
	return func(server *APIServer) {
		server.corsConfig = cors
	}
}

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) func(*APIServer) {
	return func(server *APIServer) {
		server.logger = log
	}
}

// setupRoutes configures the HTTP routes. The WebSocket endpoint, health
// check, and metrics bypass the API key; everything under /api requires it.
func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHTTP.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	if s.wsHandler != nil {
		s.router.HandleFunc("/ws", s.wsHandler)
	}

	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.Use(srHTTP.APIKeyMiddleware(s.apiKey, s.logger))

	apiRouter.HandleFunc("/connections", s.handleListConnections).Methods(http.MethodGet)
	apiRouter.HandleFunc("/connections/{id}", s.handleGetConnection).Methods(http.MethodGet)
	apiRouter.HandleFunc("/connections/{id}/force-pair", s.handleForcePair).Methods(http.MethodPost)
	apiRouter.HandleFunc("/connections/{id}/close", s.handleCloseConnection).Methods(http.MethodPost)
}

// Router returns the configured router, mainly for tests.
func (s *APIServer) Router() *mux.Router {
	return s.router
}

func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
// Read and write timeouts stay unset: /ws responses are long-lived
// streams, and per-request deadlines would sever healthy sessions.
func (s *APIServer) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info().Str("addr", addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"}, s.logger)
}

func writeJSONResponse(w http.ResponseWriter, data interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	if err := json.NewEncoder(w).Encode(errResponse); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
