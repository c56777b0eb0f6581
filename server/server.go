package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-http-utils/etag"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/highlight-eng/roleseer"
)

// Server exposes a Seer over HTTP: the full role document at /roles and a
// random pick for one role at /roles/{role}.
type Server struct {
	Seer    *roleseer.Seer
	AuthKey string
}

func New(seer *roleseer.Seer) *Server {
	return &Server{Seer: seer}
}

func (s *Server) Start(addr string) {
	logrus.Info("Starting server")

	err := http.ListenAndServe(addr, s.Handler())
	if err != nil {
		logrus.WithError(err).Fatal("error starting server")
	}
}

// Handler builds the route table wrapped with etag support and, if an auth
// key is configured, the API-key middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/roles", s.handleRoles)
	mux.HandleFunc("/roles/", s.handleLookup)

	handler := etag.Handler(mux, false)
	if s.AuthKey != "" {
		handler = Auth(handler, s.AuthKey)
	}
	return handler
}

// handleRoles serves the current snapshot of the whole role document as
// YAML. Snapshot skips the staleness check, so in pull mode this endpoint
// can serve data older than one reload interval.
func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response, err := yaml.Marshal(s.Seer.Roles().Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(response); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

// handleLookup serves one random server of the requested role as JSON.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	role := strings.TrimPrefix(r.URL.Path, "/roles/")
	if role == "" || strings.Contains(role, "/") {
		http.NotFound(w, r)
		return
	}

	result, err := s.Seer.Lookup(r.Context(), role)
	if err != nil {
		if errors.Is(err, roleseer.ErrKeyNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

// Auth is a middleware that checks if the request is authenticated.
// If not, it returns a 401 Unauthorized response.
func Auth(next http.Handler, authKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-KEY")
		if key == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if key != authKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
