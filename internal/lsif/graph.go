package lsif

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Graph is the read-only view of a parsed LSIF document produced by
// ArenaHolder.Build. All accessors are safe for concurrent use (spec §4.3),
// matching the way the converter's Phase A/B walk the graph from a worker
// pool.
type Graph struct {
	entries   []Entry
	byID      map[ID]int
	outgoing  map[ID][]int
	documents []int
}

// Vertex looks up an entry (vertex or edge) by id.
func (g *Graph) Vertex(id ID) (*Entry, bool) {
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return &g.entries[i], true
}

// OutgoingFrom returns every edge whose out_v is id, in discovery order. An
// out_v with no edges returns nil, not an error: LSIF leaf vertices (e.g. an
// unreferenced hoverResult) legitimately have none.
func (g *Graph) OutgoingFrom(id ID) []*Entry {
	idxs := g.outgoing[id]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]*Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = &g.entries[idx]
	}
	return out
}

// Documents returns every document vertex, in discovery order.
func (g *Graph) Documents() []*Entry {
	out := make([]*Entry, len(g.documents))
	for i, idx := range g.documents {
		out[i] = &g.entries[idx]
	}
	return out
}

// ForEachOutgoingParallel runs fn concurrently over every outgoing edge from
// id, bounded by the errgroup's default unlimited concurrency (callers doing
// CPU-bound work should wrap fn or use a SetLimit'd group instead). The first
// error returned by fn cancels ctx and is propagated. The converter's phases
// use ForEachDocumentParallel and ForEachOutgoingFromAllParallel instead.
func (g *Graph) ForEachOutgoingParallel(ctx context.Context, id ID, fn func(context.Context, *Entry) error) error {
	edges := g.OutgoingFrom(id)
	grp, gctx := errgroup.WithContext(ctx)
	for _, e := range edges {
		e := e
		grp.Go(func() error { return fn(gctx, e) })
	}
	return grp.Wait()
}

// ForEachDocumentParallel runs fn concurrently over every document vertex.
func (g *Graph) ForEachDocumentParallel(ctx context.Context, fn func(context.Context, *Entry) error) error {
	docs := g.Documents()
	grp, gctx := errgroup.WithContext(ctx)
	for _, d := range docs {
		d := d
		grp.Go(func() error { return fn(gctx, d) })
	}
	return grp.Wait()
}

// ForEachOutgoingFromAllParallel runs fn over every outgoing edge from every
// id in roots, bounded globally to at most limit concurrent calls (limit <= 0
// means unlimited). This is the shape a CPU-bound traversal phase needs when
// it fans out across many root vertices under one shared worker budget —
// e.g. GOMAXPROCS — rather than reopening an unbounded group per root.
func (g *Graph) ForEachOutgoingFromAllParallel(ctx context.Context, roots []ID, limit int, fn func(context.Context, ID, *Entry) error) error {
	grp, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		grp.SetLimit(limit)
	}
	for _, id := range roots {
		id := id
		for _, e := range g.OutgoingFrom(id) {
			e := e
			grp.Go(func() error { return fn(gctx, id, e) })
		}
	}
	return grp.Wait()
}
