// Package graphdot renders the LSIF vertex/edge neighborhood around a single
// Range as a Graphviz DOT file, for interactive debugging of a conversion
// (supplemented from original_source/backend/shatterbird-cli/src/graph.rs,
// which the distilled spec dropped).
package graphdot

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

// Renderer walks the vertex/edge graph around a starting Range and writes a
// "strict digraph" DOT description of it.
type Renderer struct {
	ranges   storeapi.Store[model.Range]
	vertices storeapi.Store[model.Vertex]
	edges    storeapi.Store[model.Edge]
}

func New(ranges storeapi.Store[model.Range], vertices storeapi.Store[model.Vertex], edges storeapi.Store[model.Edge]) *Renderer {
	return &Renderer{ranges: ranges, vertices: vertices, edges: edges}
}

// leaf vertex kinds are recorded (so edges pointing at them still render) but
// never themselves expanded, mirroring the original's Document/
// PackageInformation/Moniker cutoff.
func isLeafKind(k model.VertexKind) bool {
	return k == model.VertexDocument || k == model.VertexPackageInformation || k == model.VertexMoniker
}

type state struct {
	ctx        context.Context
	vertices   map[ids.Id[model.Vertex]]bool // true once expanded
	edgesSeen  map[ids.Id[model.Edge]]bool
	w          io.Writer
	vertexRows map[ids.Id[model.Vertex]]model.Vertex
}

// Render writes the DOT graph rooted at rangeID's own Range-vertex to w.
func (r *Renderer) Render(ctx context.Context, rangeID ids.Id[model.Range], w io.Writer) error {
	rangeRow, ok, err := r.ranges.Get(ctx, rangeID)
	if err != nil {
		return errors.Wrap(err, "graphdot: fetch range")
	}
	if !ok {
		return errors.Newf("graphdot: range %s not found", rangeID)
	}

	initial, ok, err := r.vertices.FindOne(ctx, bson.M{"data.kind": string(model.VertexRange), "data.range.range": rangeRow.Id})
	if err != nil {
		return errors.Wrap(err, "graphdot: find range vertex")
	}
	if !ok {
		return errors.Newf("graphdot: no vertex references range %s", rangeID)
	}

	st := &state{
		ctx:        ctx,
		vertices:   make(map[ids.Id[model.Vertex]]bool),
		edgesSeen:  make(map[ids.Id[model.Edge]]bool),
		w:          w,
		vertexRows: make(map[ids.Id[model.Vertex]]model.Vertex),
	}

	fmt.Fprintln(w, "strict digraph {")
	if err := r.visitVertex(st, initial.Id); err != nil {
		return err
	}
	fmt.Fprintln(w, "}")
	return nil
}

func (r *Renderer) visitVertex(st *state, id ids.Id[model.Vertex]) error {
	if _, seen := st.vertices[id]; seen {
		return nil
	}

	vertex, ok, err := r.vertices.Get(st.ctx, id)
	if err != nil {
		return errors.Wrap(err, "graphdot: fetch vertex")
	}
	if !ok {
		return errors.Newf("graphdot: vertex %s not found", id)
	}
	st.vertexRows[id] = vertex

	if isLeafKind(vertex.Data.Kind) {
		st.vertices[id] = false
		return nil
	}
	st.vertices[id] = true

	fillcolor := ""
	if len(st.vertices) == 1 {
		fillcolor = ", fillcolor=yellow, style=filled"
	}
	fmt.Fprintln(st.w)
	fmt.Fprintf(st.w, "node%s [label=%q%s];\n", id, vertex.Data.Kind, fillcolor)

	outEdges, err := r.edges.Find(st.ctx, bson.M{"data.out_v": id})
	if err != nil {
		return errors.Wrap(err, "graphdot: find outgoing edges")
	}
	inEdges, err := r.edges.Find(st.ctx, bson.M{"data.in_vs": id})
	if err != nil {
		return errors.Wrap(err, "graphdot: find incoming edges")
	}

	for _, e := range outEdges {
		if err := r.visitEdge(st, e, true); err != nil {
			return err
		}
	}
	for _, e := range inEdges {
		if err := r.visitEdge(st, e, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) visitEdge(st *state, edge model.Edge, out bool) error {
	if st.edgesSeen[edge.Id] {
		return nil
	}
	st.edgesSeen[edge.Id] = true

	if out {
		for _, inV := range edge.Data.InVs {
			if err := r.visitVertex(st, inV); err != nil {
				return err
			}
		}
	} else {
		if err := r.visitVertex(st, edge.Data.OutV); err != nil {
			return err
		}
	}

	if !st.vertices[edge.Data.OutV] {
		return nil
	}
	var reachable []ids.Id[model.Vertex]
	for _, inV := range edge.Data.InVs {
		if st.vertices[inV] {
			reachable = append(reachable, inV)
		}
	}
	sort.Slice(reachable, func(i, j int) bool { return reachable[i].String() < reachable[j].String() })

	if len(reachable) == 0 {
		return nil
	}
	fmt.Fprintln(st.w)
	for _, inV := range reachable {
		fmt.Fprintf(st.w, "node%s -> node%s [label=%q];\n", edge.Data.OutV, inV, edge.Data.Kind)
	}
	return nil
}
