package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/query"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

type harness struct {
	commits  storeapi.Store[model.Commit]
	nodes    storeapi.Store[model.Node]
	lines    storeapi.Store[model.Line]
	ranges   storeapi.Store[model.Range]
	vertices storeapi.Store[model.Vertex]
	edges    storeapi.Store[model.Edge]
	nav      *query.Navigator
}

func newHarness() *harness {
	h := &harness{
		commits:  storeapi.NewMemStore[model.Commit](),
		nodes:    storeapi.NewMemStore[model.Node](),
		lines:    storeapi.NewMemStore[model.Line](),
		ranges:   storeapi.NewMemStore[model.Range](),
		vertices: storeapi.NewMemStore[model.Vertex](),
		edges:    storeapi.NewMemStore[model.Edge](),
	}
	h.nav = query.New(h.commits, h.nodes, h.lines, h.ranges, h.vertices, h.edges)
	return h
}

func oidFor(t *testing.T, b byte) ids.OID {
	t.Helper()
	var raw [20]byte
	raw[0] = b
	oid, err := ids.OIDFromBytes(raw[:])
	require.NoError(t, err)
	return oid
}

// buildRepo seeds commit-hex/dir/sub/file.go with three lines, nested two
// directories deep, matching S2's traversal scenario. It also returns the
// Node-id path from the commit root down to file.go, the Path a Range on that
// file carries (I2).
func buildRepo(t *testing.T, h *harness) (model.Commit, model.Node, []ids.Id[model.Line], []ids.Id[model.Node]) {
	t.Helper()
	ctx := context.Background()

	var lineIds []ids.Id[model.Line]
	for _, text := range []string{"package main", "func F() {}", "// tail"} {
		row := model.Line{Id: ids.New[model.Line](), Text: text}
		require.NoError(t, h.lines.InsertOne(ctx, row))
		lineIds = append(lineIds, row.Id)
	}
	fileNode := model.Node{Id: ids.New[model.Node](), OID: oidFor(t, 1), Content: model.NewTextContent(40, lineIds)}
	require.NoError(t, h.nodes.InsertOne(ctx, fileNode))

	subDir := model.Node{Id: ids.New[model.Node](), OID: oidFor(t, 2), Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{"file.go": fileNode.Id})}
	require.NoError(t, h.nodes.InsertOne(ctx, subDir))

	dir := model.Node{Id: ids.New[model.Node](), OID: oidFor(t, 3), Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{"sub": subDir.Id})}
	require.NoError(t, h.nodes.InsertOne(ctx, dir))

	root := model.Node{Id: ids.New[model.Node](), OID: oidFor(t, 4), Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{"dir": dir.Id})}
	require.NoError(t, h.nodes.InsertOne(ctx, root))

	commit := model.Commit{Id: ids.New[model.Commit](), OID: oidFor(t, 5), Root: root.Id}
	require.NoError(t, h.commits.InsertOne(ctx, commit))

	return commit, fileNode, lineIds, []ids.Id[model.Node]{root.Id, dir.Id, subDir.Id, fileNode.Id}
}

// S2 — resolving bird:///<hex>/dir/sub/file.go returns the Text node whose
// oid matches the blob at that path.
func TestResolveURL_DirectoryTraversal(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commit, fileNode, _, _ := buildRepo(t, h)

	node, gotCommit, err := h.nav.ResolveURL(ctx, "bird:///"+commit.OID.String()+"/dir/sub/file.go")
	require.NoError(t, err)
	require.Equal(t, fileNode.OID, node.OID)
	require.Equal(t, commit.Id, gotCommit.Id)
}

// P7 — Find returns Ranges sorted innermost (smallest end-start) first.
func TestFind_InnermostFirstOrdering(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commit, _, lineIds, filePath := buildRepo(t, h)

	outer := model.Range{Id: ids.New[model.Range](), LineId: lineIds[1], Start: 0, End: 20, Path: filePath}
	inner := model.Range{Id: ids.New[model.Range](), LineId: lineIds[1], Start: 5, End: 8, Path: filePath}
	require.NoError(t, h.ranges.InsertOne(ctx, outer))
	require.NoError(t, h.ranges.InsertOne(ctx, inner))

	uri := "bird:///" + commit.OID.String() + "/dir/sub/file.go"
	resolved, err := h.nav.Find(ctx, uri, query.Position{Line: 1, Character: 6}, nil)
	require.NoError(t, err)
	require.Len(t, resolved.Ranges, 2)
	require.Equal(t, inner.Id, resolved.Ranges[0].Id)
	require.Equal(t, outer.Id, resolved.Ranges[1].Id)
}

// P4 / S5 — a multi-line Range's line_id is a line of the file's Text node,
// and its End carries the EndOfLine sentinel.
func TestRange_MultiLineSentinel(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, fileNode, lineIds, _ := buildRepo(t, h)

	r := model.Range{Id: ids.New[model.Range](), LineId: lineIds[0], Start: 0, End: model.EndOfLine}
	require.True(t, r.IsMultiLine())
	require.Contains(t, fileNode.Content.Text.Lines, r.LineId)
}

// S4 — Go-to-definition: Range -Next-> ResultSet -Definition-> DefinitionResult
// -Item(definitions)-> target Range in another document.
func TestFind_Definition(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commit, _, lineIds, filePath := buildRepo(t, h)

	srcRange := model.Range{Id: ids.New[model.Range](), LineId: lineIds[1], Start: 5, End: 6, Path: filePath}
	require.NoError(t, h.ranges.InsertOne(ctx, srcRange))
	targetRange := model.Range{Id: ids.New[model.Range](), LineId: lineIds[0], Start: 0, End: 4, Path: filePath}
	require.NoError(t, h.ranges.InsertOne(ctx, targetRange))

	srcRangeVertex := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexRange, Range: &model.RangeVertexData{Range: srcRange.Id}}}
	resultSet := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexResultSet}}
	defResult := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexDefinitionResult}}
	targetRangeVertex := model.Vertex{Id: ids.New[model.Vertex](), Data: model.VertexInfo{Kind: model.VertexRange, Range: &model.RangeVertexData{Range: targetRange.Id}}}
	for _, v := range []model.Vertex{srcRangeVertex, resultSet, defResult, targetRangeVertex} {
		require.NoError(t, h.vertices.InsertOne(ctx, v))
	}

	prop := model.ItemPropertyDefinitions
	edges := []model.Edge{
		{Id: ids.New[model.Edge](), Data: model.EdgeInfo{Kind: model.EdgeNext, OutV: srcRangeVertex.Id, InVs: []ids.Id[model.Vertex]{resultSet.Id}}},
		{Id: ids.New[model.Edge](), Data: model.EdgeInfo{Kind: model.EdgeDefinition, OutV: resultSet.Id, InVs: []ids.Id[model.Vertex]{defResult.Id}}},
		{Id: ids.New[model.Edge](), Data: model.EdgeInfo{Kind: model.EdgeItem, OutV: defResult.Id, InVs: []ids.Id[model.Vertex]{targetRangeVertex.Id}, Property: &prop}},
	}
	for _, e := range edges {
		require.NoError(t, h.edges.InsertOne(ctx, e))
	}

	uri := "bird:///" + commit.OID.String() + "/dir/sub/file.go"
	defKind := model.EdgeDefinition
	resolved, err := h.nav.Find(ctx, uri, query.Position{Line: 1, Character: 5}, &defKind)
	require.NoError(t, err)
	require.Len(t, resolved.Found, 1)
	require.Equal(t, defResult.Id, resolved.Found[0].Id)

	items, err := h.nav.FindItems(ctx, []ids.Id[model.Vertex]{resolved.Found[0].Id})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, targetRange.Id, items[0].Id)

	loc, err := h.nav.ToLocation(ctx, items[0])
	require.NoError(t, err)
	require.Contains(t, loc.URI, commit.OID.String())
	require.Equal(t, uint32(0), loc.Range.Line)
}

// P6 — to_location then resolve_url then re-find at (line_no, start) yields
// the same Range id.
func TestURLRoundTrip(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, fileNode, lineIds, filePath := buildRepo(t, h)

	r := model.Range{Id: ids.New[model.Range](), LineId: lineIds[2], Start: 0, End: 2, Path: filePath}
	require.NoError(t, h.ranges.InsertOne(ctx, r))

	loc, err := h.nav.ToLocation(ctx, r)
	require.NoError(t, err)

	node, _, err := h.nav.ResolveURL(ctx, loc.URI)
	require.NoError(t, err)
	require.Equal(t, fileNode.OID, node.OID)

	resolved, err := h.nav.Find(ctx, loc.URI, query.Position{Line: loc.Range.Line, Character: loc.Range.StartCharacter}, nil)
	require.NoError(t, err)
	require.Len(t, resolved.Ranges, 1)
	require.Equal(t, r.Id, resolved.Ranges[0].Id)
}
