package lsp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/lsp"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

func TestHover(t *testing.T) {
	ctx := context.Background()
	commits := storeapi.NewMemStore[model.Commit]()
	nodes := storeapi.NewMemStore[model.Node]()
	lines := storeapi.NewMemStore[model.Line]()
	ranges := storeapi.NewMemStore[model.Range]()
	vertices := storeapi.NewMemStore[model.Vertex]()
	edges := storeapi.NewMemStore[model.Edge]()
	nav := query.New(commits, nodes, lines, ranges, vertices, edges)

	line := model.Line{Id: ids.New[model.Line](), Text: "func F() {}"}
	require.NoError(t, lines.InsertOne(ctx, line))
	fileNode := model.Node{Id: ids.New[model.Node](), OID: oid(t, 1), Content: model.NewTextContent(12, []ids.Id[model.Line]{line.Id})}
	require.NoError(t, nodes.InsertOne(ctx, fileNode))
	root := model.Node{Id: ids.New[model.Node](), OID: oid(t, 2), Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{"a.go": fileNode.Id})}
	require.NoError(t, nodes.InsertOne(ctx, root))
	commit := model.Commit{Id: ids.New[model.Commit](), OID: oid(t, 3), Root: root.Id}
	require.NoError(t, commits.InsertOne(ctx, commit))

	r := model.Range{Id: ids.New[model.Range](), LineId: line.Id, Start: 5, End: 6, Path: []ids.Id[model.Node]{root.Id, fileNode.Id}}
	require.NoError(t, ranges.InsertOne(ctx, r))

	rangeVertex := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexRange, Range: &model.RangeVertexData{Range: r.Id}}}
	hoverVertex := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexHoverResult, HoverResult: &model.HoverResultData{
		Contents: []model.HoverContent{{Kind: "markdown", Value: "`func F()`"}},
	}}}
	require.NoError(t, vertices.InsertOne(ctx, rangeVertex))
	require.NoError(t, vertices.InsertOne(ctx, hoverVertex))

	edge := model.Edge{Id: ids.New[model.Edge](), Data: model.EdgeInfo{Kind: model.EdgeHover, OutV: rangeVertex.Id, InVs: []ids.Id[model.Vertex]{hoverVertex.Id}}}
	require.NoError(t, edges.InsertOne(ctx, edge))

	params := lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: "bird:///" + commit.OID.String() + "/a.go"},
		Position:     lsp.Position{Line: 0, Character: 5},
	}
	hover, err := lsp.Hover(ctx, nav, params)
	require.NoError(t, err)
	require.NotNil(t, hover)
	require.Equal(t, "`func F()`", hover.Contents[0].Value)
}

func oid(t *testing.T, b byte) ids.OID {
	t.Helper()
	var raw [20]byte
	raw[0] = b
	o, err := ids.OIDFromBytes(raw[:])
	require.NoError(t, err)
	return o
}
