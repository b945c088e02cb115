package lsif_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliakonnov/shatterbird/internal/lsif"
)

const sample = `
{"id":"1","type":"vertex","label":"document","uri":"file:///a.go"}
{"id":2,"type":"vertex","label":"range","start":{"line":0,"character":0},"end":{"line":0,"character":3}}
{"id":3,"type":"edge","label":"contains","outV":"1","inVs":[2]}
{"id":"4","type":"vertex","label":"resultSet"}
{"id":5,"type":"edge","label":"next","outV":"2","inV":"4"}
`

func TestParseAndBuild(t *testing.T) {
	holder, err := lsif.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	graph := holder.Build()

	// Numeric and string forms of the same id must resolve to one entry
	// (the range vertex's own id is written as the number 2, while the next
	// edge names it as the quoted string "2").
	v, ok := graph.Vertex("2")
	require.True(t, ok)
	require.Equal(t, "range", v.Label)

	doc, ok := graph.Vertex(lsif.ID("1"))
	require.True(t, ok)
	require.Equal(t, "document", doc.Label)

	contains := graph.OutgoingFrom("1")
	require.Len(t, contains, 1)
	require.Equal(t, "contains", contains[0].Label)
	require.Equal(t, []lsif.ID{"2"}, contains[0].AllInVs())

	next := graph.OutgoingFrom("2")
	require.Len(t, next, 1)
	require.Equal(t, lsif.ID("4"), next[0].InV)

	docs := graph.Documents()
	require.Len(t, docs, 1)
	require.Equal(t, "file:///a.go", docs[0].URI)

	// No outgoing edges for a vertex that is never an out_v.
	require.Nil(t, graph.OutgoingFrom("4"))
}

func TestForEachOutgoingParallel(t *testing.T) {
	holder, err := lsif.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	graph := holder.Build()

	var seen []string
	var mu sync.Mutex
	err = graph.ForEachOutgoingParallel(context.Background(), "1", func(_ context.Context, e *lsif.Entry) error {
		mu.Lock()
		seen = append(seen, e.Label)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"contains"}, seen)
}
