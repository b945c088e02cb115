// Package httpapi is the HTTP surface consumed by a browser extension or
// editor plugin (spec §6): filesystem navigation over ingested commits plus an
// LSP-shaped query surface, routed with gorilla/mux the way the teacher's own
// cmd/frontend/internal/httpapi wires mux.Vars-keyed routes.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sourcegraph/log"

	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

type requestIDKey struct{}

// requestIDMiddleware stamps every request with a fresh correlation id,
// returned as X-Request-Id and threaded through the request's logger fields
// (grounded on the teacher's uuid.New().String() request-id idiom, e.g.
// cmd/cody-gateway/internal/httpapi/embeddings/sourcegraph.go).
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID extracts the correlation id requestIDMiddleware attached to ctx,
// empty if none (e.g. in a handler invoked directly from a test).
func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Server bundles the stores and navigator the HTTP handlers need.
type Server struct {
	commits storeapi.Store[model.Commit]
	nodes   storeapi.Store[model.Node]
	blobs   storeapi.Store[model.BlobFile]
	nav     *query.Navigator
	logger  log.Logger
}

func NewServer(
	commits storeapi.Store[model.Commit],
	nodes storeapi.Store[model.Node],
	blobs storeapi.Store[model.BlobFile],
	nav *query.Navigator,
	logger log.Logger,
) *Server {
	return &Server{commits: commits, nodes: nodes, blobs: blobs, nav: nav, logger: logger}
}

// NewRouter builds the mux.Router exposing every route in spec §6.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/fs/commits", s.handleListCommits).Methods(http.MethodGet)
	r.HandleFunc("/api/fs/commits/by-id/{id}", s.handleCommitByID).Methods(http.MethodGet)
	r.HandleFunc("/api/fs/commits/by-oid/{hex}", s.handleCommitByOID).Methods(http.MethodGet)
	r.HandleFunc("/api/fs/tree/{commit}", s.handleTree).Methods(http.MethodGet)
	r.PathPrefix("/api/fs/tree/{commit}/").HandlerFunc(s.handleTree).Methods(http.MethodGet)
	r.HandleFunc("/api/fs/nodes/{id}", s.handleNode).Methods(http.MethodGet)
	r.HandleFunc("/api/fs/blobs/{id}", s.handleBlob).Methods(http.MethodGet)

	r.HandleFunc("/api/lsp/initialize", s.handleInitialize).Methods(http.MethodPost)
	r.HandleFunc("/api/lsp/textDocument/hover", s.handleHover).Methods(http.MethodPost)
	r.HandleFunc("/api/lsp/textDocument/definition", s.handleDefinition).Methods(http.MethodPost)
	r.HandleFunc("/api/lsp/textDocument/references", s.handleReferences).Methods(http.MethodPost)

	r.Use(requestIDMiddleware)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, logger log.Logger, err error) {
	kind := query.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case query.KindNotFound:
		status = http.StatusNotFound
	case query.KindBadRequest, query.KindMethodNotFound:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Warn("httpapi: internal error",
			log.String("request_id", requestID(r.Context())), log.Error(err))
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
