package lsifconvert_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sourcegraph/log/logtest"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/lsif"
	"github.com/iliakonnov/shatterbird/internal/lsifconvert"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

type fixtures struct {
	commits storeapi.Store[model.Commit]
	nodes   storeapi.Store[model.Node]
	lines   storeapi.Store[model.Line]
	ranges  storeapi.Store[model.Range]
	vertex  storeapi.Store[model.Vertex]
	edge    storeapi.Store[model.Edge]
}

// seedRepo builds a single commit whose root directory contains one file
// "a.rs" with three lines, matching S3's `root/a.rs@commit`.
func seedRepo(t *testing.T) (fixtures, ids.Id[model.Commit]) {
	t.Helper()
	ctx := context.Background()
	f := fixtures{
		commits: storeapi.NewMemStore[model.Commit](),
		nodes:   storeapi.NewMemStore[model.Node](),
		lines:   storeapi.NewMemStore[model.Line](),
		ranges:  storeapi.NewMemStore[model.Range](),
		vertex:  storeapi.NewMemStore[model.Vertex](),
		edge:    storeapi.NewMemStore[model.Edge](),
	}

	var lineIds []ids.Id[model.Line]
	for _, text := range []string{"fn main() {", "    foo();", "}"} {
		row := model.Line{Id: ids.New[model.Line](), Text: text}
		require.NoError(t, f.lines.InsertOne(ctx, row))
		lineIds = append(lineIds, row.Id)
	}

	fileNode := model.Node{Id: ids.New[model.Node](), OID: mustOID(t, 1), Content: model.NewTextContent(30, lineIds)}
	require.NoError(t, f.nodes.InsertOne(ctx, fileNode))

	rootNode := model.Node{
		Id:  ids.New[model.Node](),
		OID: mustOID(t, 2),
		Content: model.NewDirectoryContent(map[string]ids.Id[model.Node]{
			"a.rs": fileNode.Id,
		}),
	}
	require.NoError(t, f.nodes.InsertOne(ctx, rootNode))

	commit := model.Commit{Id: ids.New[model.Commit](), OID: mustOID(t, 3), Root: rootNode.Id}
	require.NoError(t, f.commits.InsertOne(ctx, commit))

	return f, commit.Id
}

func mustOID(t *testing.T, b byte) ids.OID {
	t.Helper()
	var raw [20]byte
	raw[0] = b
	oid, err := ids.OIDFromBytes(raw[:])
	require.NoError(t, err)
	return oid
}

// S3 — LSIF range materialization: a document + range + contains edge,
// anchored under /root, produces a Range row with the expected line/columns.
func TestConvert_RangeMaterialization(t *testing.T) {
	ctx := context.Background()
	f, commitID := seedRepo(t)

	const ndjson = `
{"id":1,"type":"vertex","label":"document","uri":"file:///root/a.rs"}
{"id":2,"type":"vertex","label":"range","start":{"line":2,"character":4},"end":{"line":2,"character":9}}
{"id":3,"type":"edge","label":"contains","outV":1,"inVs":[2]}
`
	holder, err := lsif.Parse(strings.NewReader(ndjson))
	require.NoError(t, err)
	graph := holder.Build()

	logger := logtest.Scoped(t)
	conv := lsifconvert.New(
		graph,
		[]lsifconvert.RootMapping{{Dir: "/root", Commit: commitID}},
		f.commits, f.nodes, f.ranges, f.vertex, f.edge,
		logger,
	)
	require.NoError(t, conv.Run(ctx))

	rows, err := f.ranges.Find(ctx, bson.M{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint32(4), rows[0].Start)
	require.Equal(t, uint32(9), rows[0].End)

	commit, ok, err := f.commits.Get(ctx, commitID)
	require.NoError(t, err)
	require.True(t, ok)
	root, ok, err := f.nodes.Get(ctx, commit.Root)
	require.NoError(t, err)
	require.True(t, ok)
	fileNode, ok, err := f.nodes.Get(ctx, root.Content.Directory.Children["a.rs"])
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, fileNode.Content.Text.Lines[2], rows[0].LineId)

	verts, err := f.vertex.Find(ctx, bson.M{})
	require.NoError(t, err)
	var sawRangeVertex bool
	for _, v := range verts {
		if v.Data.Kind == model.VertexRange {
			sawRangeVertex = true
			require.Equal(t, rows[0].Id, v.Data.Range.Range)
		}
	}
	require.True(t, sawRangeVertex)

	edges, err := f.edge.Find(ctx, bson.M{})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, model.EdgeContains, edges[0].Data.Kind)
}

// S6 — a document whose URI does not match any root mapping is skipped with a
// warning; conversion still completes.
func TestConvert_MissingRootMapping(t *testing.T) {
	ctx := context.Background()
	f, _ := seedRepo(t)

	const ndjson = `{"id":1,"type":"vertex","label":"document","uri":"file:///unknown/a.rs"}`
	holder, err := lsif.Parse(strings.NewReader(ndjson))
	require.NoError(t, err)
	graph := holder.Build()

	logger := logtest.Scoped(t)
	conv := lsifconvert.New(graph, nil, f.commits, f.nodes, f.ranges, f.vertex, f.edge, logger)
	require.NoError(t, conv.Run(ctx))

	verts, err := f.vertex.Find(ctx, bson.M{})
	require.NoError(t, err)
	require.Len(t, verts, 0)
}
