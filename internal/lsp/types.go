// Package lsp holds the LSP request/response wire types and the handlers that
// compose internal/query's Navigator into hover/definition/references answers
// (spec §4.5 end, §6 HTTP surface).
package lsp

// Position is an LSP position: zero-based line/character.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is an LSP range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextDocumentIdentifier names a document by its bird:// URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentPositionParams is the shared request shape for hover,
// definition, and references.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// Location is a URI + Range pair, the LSP response shape for definition and
// references.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// MarkupContent is a single hover content entry.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the response to textDocument/hover.
type Hover struct {
	Contents []MarkupContent `json:"contents"`
}

// ServerCapabilities is advertised by POST /api/lsp/initialize (spec §6).
type ServerCapabilities struct {
	HoverProvider      bool `json:"hoverProvider"`
	DefinitionProvider bool `json:"definitionProvider"`
	ReferencesProvider bool `json:"referencesProvider"`
}

// InitializeResult is the response to POST /api/lsp/initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// Capabilities is the fixed capability set this server always advertises —
// every operation in spec §4.5 is supported unconditionally.
func Capabilities() ServerCapabilities {
	return ServerCapabilities{HoverProvider: true, DefinitionProvider: true, ReferencesProvider: true}
}
