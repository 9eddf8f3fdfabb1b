// Package httpdebug is a read-only view of a flow's current DAG shape,
// exposed as adjacency JSON or Graphviz DOT over HTTP, routed with
// gorilla/mux.
package httpdebug

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/dagflow/dagflow/internal/dag"
)

// GraphProvider returns the current DAG for a named flow, or an error if the
// flow has never been built (e.g. not yet run).
type GraphProvider func() (*dag.DAG, error)

// Server is the debug HTTP surface. Safe for concurrent registration and
// serving.
type Server struct {
	mu        sync.RWMutex
	providers map[string]GraphProvider
	router    *mux.Router
}

// NewServer builds an empty debug server; flows are registered afterward via
// Register.
func NewServer() *Server {
	s := &Server{providers: make(map[string]GraphProvider)}
	r := mux.NewRouter()
	r.HandleFunc("/flows/{name}/graph.json", s.handleGraphJSON).Methods(http.MethodGet)
	r.HandleFunc("/flows/{name}/graph.dot", s.handleGraphDOT).Methods(http.MethodGet)
	r.HandleFunc("/flows", s.handleListFlows).Methods(http.MethodGet)
	s.router = r
	return s
}

// Register makes name's DAG available at /flows/{name}/graph.{json,dot}.
func (s *Server) Register(name string, provider GraphProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[name] = provider
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) lookup(name string) (GraphProvider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[name]
	return p, ok
}

func (s *Server) handleGraphJSON(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	provider, ok := s.lookup(name)
	if !ok {
		http.Error(w, "unknown flow "+name, http.StatusNotFound)
		return
	}
	d, err := provider()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d.ExportJSON(name))
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	provider, ok := s.lookup(name)
	if !ok {
		http.Error(w, "unknown flow "+name, http.StatusNotFound)
		return
	}
	d, err := provider()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(d.ExportDOT(name)))
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	s.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(names)
}
