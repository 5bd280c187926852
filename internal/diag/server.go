// Package diag exposes a small HTTP surface for watching a load in
// progress: a liveness endpoint and a point-in-time stats snapshot of
// the loader's row counters.
package diag

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowflk/general-loader/internal/loader"
)

// Server serves /healthz and /stats while the decoder runs. It is
// read-only; nothing it serves can affect the stream being decoded.
type Server struct {
	listenAddr string
	router     *mux.Router
	listener   net.Listener
	stats      func() loader.Stats
}

func NewServer(listenAddr string, stats func() loader.Stats) *Server {
	s := &Server{
		listenAddr: listenAddr,
		router:     mux.NewRouter(),
		stats:      stats,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.router.HandleFunc("/stats", s.handleStats).Methods("GET")
}

// Handler returns the route table, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving requests until Close is called.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return errors.Wrapf(err, "diagnostics server failed to listen on %s", s.listenAddr)
	}
	s.listener = l
	log.Infof("diagnostics server listening on %s", l.Addr())
	err = http.Serve(l, s.router)
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.stats())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("diagnostics response failed: %s", err)
	}
}
