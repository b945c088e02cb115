package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sourcegraph/log"

	"github.com/iliakonnov/shatterbird/internal/lsp"
	"github.com/iliakonnov/shatterbird/internal/query"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, logger log.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, logger, query.BadRequest("malformed request body: %v", err))
		return false
	}
	return true
}

// handleInitialize answers POST /api/lsp/initialize with the fixed capability
// set this server always advertises (spec §6).
func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lsp.InitializeResult{Capabilities: lsp.Capabilities()})
}

// handleHover answers POST /api/lsp/textDocument/hover.
func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	var params lsp.TextDocumentPositionParams
	if !decodeJSON(w, r, s.logger, &params) {
		return
	}
	hover, err := lsp.Hover(r.Context(), s.nav, params)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if hover == nil {
		writeJSON(w, http.StatusOK, lsp.Hover{Contents: nil})
		return
	}
	writeJSON(w, http.StatusOK, hover)
}

// handleDefinition answers POST /api/lsp/textDocument/definition.
func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	var params lsp.TextDocumentPositionParams
	if !decodeJSON(w, r, s.logger, &params) {
		return
	}
	locations, err := lsp.Definition(r.Context(), s.nav, params)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

// handleReferences answers POST /api/lsp/textDocument/references.
func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	var params lsp.TextDocumentPositionParams
	if !decodeJSON(w, r, s.logger, &params) {
		return
	}
	locations, err := lsp.References(r.Context(), s.nav, params)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}
