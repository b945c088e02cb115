package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// EdgeKind discriminates the LSIF edge kinds mirrored by EdgeInfo.
type EdgeKind string

const (
	EdgeContains           EdgeKind = "contains"
	EdgeMoniker            EdgeKind = "moniker"
	EdgeNextMoniker        EdgeKind = "nextMoniker"
	EdgeNext               EdgeKind = "next"
	EdgePackageInformation EdgeKind = "packageInformation"
	EdgeItem               EdgeKind = "item"
	EdgeDefinition         EdgeKind = "textDocument/definition"
	EdgeDeclaration        EdgeKind = "textDocument/declaration"
	EdgeHover              EdgeKind = "textDocument/hover"
	EdgeReferences         EdgeKind = "textDocument/references"
	EdgeImplementation     EdgeKind = "textDocument/implementation"
	EdgeTypeDefinition     EdgeKind = "textDocument/typeDefinition"
	EdgeFoldingRange       EdgeKind = "textDocument/foldingRange"
	EdgeDocumentLink       EdgeKind = "textDocument/documentLink"
	EdgeDocumentSymbol     EdgeKind = "textDocument/documentSymbol"
	EdgeDiagnostic         EdgeKind = "textDocument/diagnostic"
)

// ItemProperty further classifies an Item edge's target ranges (spec §3, §4.5).
type ItemProperty string

const (
	ItemPropertyDefinitions  ItemProperty = "definitions"
	ItemPropertyReferences   ItemProperty = "references"
	ItemPropertyDeclarations ItemProperty = "declarations"
)

// EdgeInfo is the tagged variant mirroring the LSIF edge kinds (spec §3). Every
// kind carries OutV and one-or-more InVs (single-in edges simply populate InVs
// with one element, collapsing EdgeData/EdgeDataMultiIn into one shape — Go has
// no cheap way to express "exactly one xor many" without a slice anyway, and the
// spec's own invariants never depend on the slice having length 1).
type EdgeInfo struct {
	Kind EdgeKind         `bson:"kind"`
	OutV ids.Id[Vertex]   `bson:"out_v"`
	InVs []ids.Id[Vertex] `bson:"in_vs"`

	// Document and Property are populated only for EdgeItem.
	Document *ids.Id[Vertex] `bson:"document,omitempty"`
	Property *ItemProperty   `bson:"property,omitempty"`
}

// Edge is a single LSIF edge, rewritten to database ids at conversion time (I3:
// every Id[Vertex] referenced here must already exist in the Vertex collection).
type Edge struct {
	Id   ids.Id[Edge] `bson:"_id"`
	Data EdgeInfo     `bson:"data"`
}

func (Edge) CollectionName() string { return "edges" }

// IdValue implements storeapi.Entity.
func (e Edge) IdValue() ids.Id[Edge] { return e.Id }
