/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

// Package diag implements the optional diagnostics HTTP surface: a
// gorilla/mux-routed server exposing /healthz, /metrics, and
// /debug/connections. One mux.Router, middleware applied at the router,
// one handler per concern.
package diag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/MonetDB/mapi-go/internal/log"
	"github.com/MonetDB/mapi-go/internal/metrics"
)

// SessionInfo is the JSON shape returned by /debug/connections for one live
// session: MOTD, handshake options level, and row-cache occupancy, for
// operators. It never carries wire protocol contents.
type SessionInfo struct {
	ID               string `json:"id"`
	MOTD             string `json:"motd"`
	HandshakeOptions int    `json:"handshake_options"`
	RowCacheRows     int    `json:"row_cache_rows"`
	Connected        bool   `json:"connected"`
}

// SessionSnapshot is implemented by mapi.Session (kept decoupled here
// because mapi imports diag, so diag importing mapi would be an import
// cycle).
type SessionSnapshot interface {
	DiagSnapshot() SessionInfo
}

// Registry tracks live sessions for /debug/connections. The zero value is
// ready to use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]SessionSnapshot
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]SessionSnapshot)}
}

// Register adds (or replaces) the session tracked under id.
func (r *Registry) Register(id string, s SessionSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions == nil {
		r.sessions = make(map[string]SessionSnapshot)
	}
	r.sessions[id] = s
}

// Unregister removes the session tracked under id, called when a session
// closes.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) snapshot() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.DiagSnapshot())
	}
	return out
}

// Server is the optional diagnostics HTTP server. A library consumer may
// ignore it entirely; cmd/mapi-diag wires it into a standalone binary.
type Server struct {
	router   *mux.Router
	registry *Registry
	httpSrv  *http.Server
}

// New builds a Server listening on addr, routing /healthz, /metrics, and
// /debug/connections through registry.
func New(addr string, registry *Registry) *Server {
	r := mux.NewRouter()

	s := &Server{router: r, registry: registry}
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/debug/connections", s.handleConnections).Methods(http.MethodGet)

	wrapped := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(handlers.CombinedLoggingHandler(log.Writer(), r))

	s.httpSrv = &http.Server{Addr: addr, Handler: wrapped}
	return s
}

// Handler returns the fully decorated route handler, for callers that
// want to mount the diagnostics routes on a server they already run.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks serving the diagnostics routes until the server is
// shut down or a fatal error occurs.
func (s *Server) ListenAndServe() error {
	log.Info("diagnostics server starting", log.Pairs{"addr": s.httpSrv.Addr})
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the diagnostics server immediately, closing its listener
// and any open connections without waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.httpSrv.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.registry.snapshot())
}

// recoveryLogger adapts internal/log to gorilla/handlers' RecoveryHandlerLogger
// (a bare Println(...interface{})) so a panicking diag handler logs through
// the same structured logger as everything else.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error("diag handler panicked", log.Pairs{"recover": fmt.Sprint(v...)})
}
