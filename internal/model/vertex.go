package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// VertexKind discriminates the LSIF vertex kinds mirrored by VertexInfo.
type VertexKind string

const (
	VertexMetaData             VertexKind = "metaData"
	VertexProject              VertexKind = "project"
	VertexDocument             VertexKind = "document"
	VertexRange                VertexKind = "range"
	VertexResultSet            VertexKind = "resultSet"
	VertexMoniker              VertexKind = "moniker"
	VertexPackageInformation   VertexKind = "packageInformation"
	VertexDefinitionResult     VertexKind = "definitionResult"
	VertexDeclarationResult    VertexKind = "declarationResult"
	VertexTypeDefinitionResult VertexKind = "typeDefinitionResult"
	VertexReferenceResult      VertexKind = "referenceResult"
	VertexImplementationResult VertexKind = "implementationResult"
	VertexFoldingRangeResult   VertexKind = "foldingRangeResult"
	VertexHoverResult          VertexKind = "hoverResult"
	VertexDocumentSymbolResult VertexKind = "documentSymbolResult"
	VertexDocumentLinkResult   VertexKind = "documentLinkResult"
	VertexDiagnosticResult     VertexKind = "diagnosticResult"
)

// RangeTag carries the optional LSIF range-vertex tag (definition/reference/
// unknown symbol role), kept verbatim from the LSIF input.
type RangeTag struct {
	Type string `bson:"type"`
	Text string `bson:"text,omitempty"`
}

// RangeVertexData is the VertexInfo payload for VertexRange.
type RangeVertexData struct {
	Range ids.Id[Range] `bson:"range"`
	Tag   *RangeTag     `bson:"tag,omitempty"`
}

// MonikerData is the VertexInfo payload for VertexMoniker.
type MonikerData struct {
	Scheme     string `bson:"scheme"`
	Identifier string `bson:"identifier"`
	Kind       string `bson:"kind,omitempty"`
	Unique     string `bson:"unique,omitempty"`
}

// PackageInformationData is the VertexInfo payload for VertexPackageInformation.
type PackageInformationData struct {
	Name    string `bson:"name"`
	Manager string `bson:"manager"`
	Version string `bson:"version,omitempty"`
}

// HoverContent is the stored shape of an LSP hover response (markdown or plain
// text contents, as produced by an LSIF indexer's hoverResult vertex).
type HoverContent struct {
	Kind  string `bson:"kind"` // "markdown", "plaintext", or a MarkedString language id
	Value string `bson:"value"`
}

// HoverResultData is the VertexInfo payload for VertexHoverResult.
type HoverResultData struct {
	Contents []HoverContent `bson:"contents"`
}

// DiagnosticEntry is one diagnostic attached to a diagnosticResult vertex.
type DiagnosticEntry struct {
	Range    ids.Id[Range] `bson:"range"`
	Severity int           `bson:"severity"`
	Code     string        `bson:"code,omitempty"`
	Source   string        `bson:"source,omitempty"`
	Message  string        `bson:"message"`
}

// DiagnosticResultData is the VertexInfo payload for VertexDiagnosticResult.
type DiagnosticResultData struct {
	Diagnostics []DiagnosticEntry `bson:"diagnostics"`
}

// VertexInfo is the tagged variant mirroring the LSIF vertex kinds (spec §3).
// Exactly one payload field matching Kind is populated; the "Result" vertices
// that carry no LSIF payload beyond their identity (DefinitionResult,
// ReferenceResult, ...) need none.
type VertexInfo struct {
	Kind VertexKind `bson:"kind"`

	Range              *RangeVertexData        `bson:"range,omitempty"`
	Moniker            *MonikerData            `bson:"moniker,omitempty"`
	PackageInformation *PackageInformationData `bson:"package_information,omitempty"`
	HoverResult        *HoverResultData        `bson:"hover_result,omitempty"`
	DiagnosticResult   *DiagnosticResultData   `bson:"diagnostic_result,omitempty"`
}

// Vertex is a single LSIF vertex, rewritten to a database id at conversion time.
type Vertex struct {
	Id   ids.Id[Vertex] `bson:"_id"`
	Data VertexInfo     `bson:"data"`
}

func (Vertex) CollectionName() string { return "vertices" }

// IdValue implements storeapi.Entity.
func (v Vertex) IdValue() ids.Id[Vertex] { return v.Id }
