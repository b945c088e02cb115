package lsp

import (
	"context"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
)

func toQueryPosition(p Position) query.Position {
	return query.Position{Line: p.Line, Character: p.Character}
}

func toLSPLocation(loc query.Location) Location {
	return Location{
		URI: loc.URI,
		Range: Range{
			Start: Position{Line: loc.Range.Line, Character: loc.Range.StartCharacter},
			End:   Position{Line: loc.Range.Line, Character: loc.Range.EndCharacter},
		},
	}
}

// Hover answers textDocument/hover: find(Hover, pos), keep the first
// HoverResult vertex, return its stored payload (spec §4.5).
func Hover(ctx context.Context, nav *query.Navigator, params TextDocumentPositionParams) (*Hover, error) {
	kind := model.EdgeHover
	resolved, err := nav.Find(ctx, params.TextDocument.URI, toQueryPosition(params.Position), &kind)
	if err != nil {
		return nil, err
	}
	for _, v := range resolved.Found {
		if v.Data.Kind == model.VertexHoverResult && v.Data.HoverResult != nil {
			contents := make([]MarkupContent, 0, len(v.Data.HoverResult.Contents))
			for _, c := range v.Data.HoverResult.Contents {
				contents = append(contents, MarkupContent{Kind: c.Kind, Value: c.Value})
			}
			return &Hover{Contents: contents}, nil
		}
	}
	return nil, nil
}

// Definition answers textDocument/definition: find(Definition, pos), filter to
// DefinitionResult vertices, find_items, map Ranges to Locations (spec §4.5).
func Definition(ctx context.Context, nav *query.Navigator, params TextDocumentPositionParams) ([]Location, error) {
	kind := model.EdgeDefinition
	return resolveToLocations(ctx, nav, params, kind, model.VertexDefinitionResult)
}

// References answers textDocument/references, mirroring Definition with the
// References/ReferenceResult pair (spec §4.5).
func References(ctx context.Context, nav *query.Navigator, params TextDocumentPositionParams) ([]Location, error) {
	kind := model.EdgeReferences
	return resolveToLocations(ctx, nav, params, kind, model.VertexReferenceResult)
}

func resolveToLocations(ctx context.Context, nav *query.Navigator, params TextDocumentPositionParams, edgeKind model.EdgeKind, resultKind model.VertexKind) ([]Location, error) {
	resolved, err := nav.Find(ctx, params.TextDocument.URI, toQueryPosition(params.Position), &edgeKind)
	if err != nil {
		return nil, err
	}

	var resultIDs []ids.Id[model.Vertex]
	for _, v := range resolved.Found {
		if v.Data.Kind == resultKind {
			resultIDs = append(resultIDs, v.Id)
		}
	}
	if len(resultIDs) == 0 {
		return nil, nil
	}

	ranges, err := nav.FindItems(ctx, resultIDs)
	if err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(ranges))
	for _, r := range ranges {
		loc, err := nav.ToLocation(ctx, r)
		if err != nil {
			return nil, err
		}
		locations = append(locations, toLSPLocation(loc))
	}
	return locations, nil
}
