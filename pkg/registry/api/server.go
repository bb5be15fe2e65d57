/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package api exposes the registry over HTTP: the three control-plane routes
// nodes call, an inspection API, and a websocket stream of node snapshots.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	nrhttp "github.com/carverauto/noderadar/pkg/http"
	"github.com/carverauto/noderadar/pkg/logger"
	"github.com/carverauto/noderadar/pkg/models"
	"github.com/carverauto/noderadar/pkg/registry"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	defaultListenAddr   = "localhost:10081"
	maxRequestBody      = 1 << 20
)

// NodeRegistry is the registry surface the API needs.
type NodeRegistry interface {
	Connect(ctx context.Context, req *models.ConnectRequest) (*registry.ConnectResult, error)
	Disconnect(ctx context.Context, nodeID string) error
	Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*registry.HeartbeatResult, error)
	Nodes() []*models.Node
	Node(nodeID string) (*models.Node, bool)
	AddOutboundMessages(ctx context.Context, nodeID string, config []interface{}, actions []models.Action)
	RemoteData() *models.RemoteData
	NodeExpiryTimeout() time.Duration
	SetNodeExpiryTimeout(d time.Duration) error
}

// OutboundQueue receives config and actions submitted through the API when the
// orchestrator owns delivery into the registry.
type OutboundQueue interface {
	Push(nodeID string, config []interface{}, actions []models.Action)
}

type APIServer struct {
	router     *mux.Router
	registry   NodeRegistry
	outbound   OutboundQueue
	corsConfig models.CORSConfig
	logger     logger.Logger
	listenAddr string

	subMu       sync.Mutex
	subscribers map[string]chan StreamMessage
	pingEvery   time.Duration

	srvMu  sync.Mutex
	server *http.Server
}

func NewAPIServer(reg NodeRegistry, config models.CORSConfig, options ...func(server *APIServer)) *APIServer {
	s := &APIServer{
		router:      mux.NewRouter(),
		registry:    reg,
		corsConfig:  config,
		logger:      logger.NewTestLogger(),
		listenAddr:  defaultListenAddr,
		subscribers: make(map[string]chan StreamMessage),
		pingEvery:   30 * time.Second,
	}

	for _, o := range options {
		o(s)
	}

	s.setupRoutes()

	return s
}

func WithLogger(log logger.Logger) func(*APIServer) {
	return func(s *APIServer) {
		if log != nil {
			s.logger = log
		}
	}
}

func WithListenAddr(addr string) func(*APIServer) {
	return func(s *APIServer) {
		if addr != "" {
			s.listenAddr = addr
		}
	}
}

// WithOutboundQueue routes POST /api/nodes/{id}/outbound into q instead of the registry.
func WithOutboundQueue(q OutboundQueue) func(*APIServer) {
	return func(s *APIServer) {
		s.outbound = q
	}
}

func WithPingInterval(d time.Duration) func(*APIServer) {
	return func(s *APIServer) {
		if d > 0 {
			s.pingEvery = d
		}
	}
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return nrhttp.CommonMiddleware(next, s.corsConfig, s.logger)
	})

	s.router.HandleFunc("/connect", s.handleConnect).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/disconnect", s.handleDisconnect).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/data", s.handleHeartbeat).Methods(http.MethodPost, http.MethodOptions)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/nodes", s.getNodes).Methods(http.MethodGet)
	apiRouter.HandleFunc("/nodes/{id}", s.getNode).Methods(http.MethodGet)
	apiRouter.HandleFunc("/nodes/{id}/outbound", s.postOutbound).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/remote", s.getRemote).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings/expiry", s.getExpiry).Methods(http.MethodGet)
	apiRouter.HandleFunc("/settings/expiry", s.putExpiry).Methods(http.MethodPut, http.MethodOptions)
	apiRouter.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)
}

// Handler returns the routed handler, for embedding or httptest.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled or Stop is called.
func (s *APIServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.srvMu.Lock()
	s.server = srv
	s.srvMu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Registry API listening")

	errCh := make(chan error, 1)

	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)

		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.server
	s.srvMu.Unlock()

	s.closeSubscribers()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) {
	s.encodeJSONStatus(w, http.StatusOK, data)
}

func (s *APIServer) encodeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Message: message, Status: statusCode}); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst)
}
