package query

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

// Position is a zero-based LSP-style line/character position.
type Position struct {
	Line      uint32
	Character uint32
}

// LSPRange is a single-line LSP range: [StartCharacter, EndCharacter) on Line.
type LSPRange struct {
	Line           uint32
	StartCharacter uint32
	EndCharacter   uint32
}

// Location names a file at a revision plus a range within it, composed by
// ToLocation from FindFilePath + FindLineNo (spec §4.5 to_location).
type Location struct {
	URI   string
	Range LSPRange
}

// ResolvedPosition is Find's result: every Range under the queried position
// (innermost first) plus, when an edge kind was requested, the vertices that
// edge kind resolves to.
type ResolvedPosition struct {
	Node     model.Node
	Line     uint32
	Position Position
	Ranges   []model.Range
	Found    []model.Vertex
}

// Navigator answers LSP-shaped queries over the ingested repository + LSIF
// graph (spec §4.5).
type Navigator struct {
	commits  storeapi.Store[model.Commit]
	nodes    storeapi.Store[model.Node]
	lines    storeapi.Store[model.Line]
	ranges   storeapi.Store[model.Range]
	vertices storeapi.Store[model.Vertex]
	edges    storeapi.Store[model.Edge]
}

func New(
	commits storeapi.Store[model.Commit],
	nodes storeapi.Store[model.Node],
	lines storeapi.Store[model.Line],
	ranges storeapi.Store[model.Range],
	vertices storeapi.Store[model.Vertex],
	edges storeapi.Store[model.Edge],
) *Navigator {
	return &Navigator{commits: commits, nodes: nodes, lines: lines, ranges: ranges, vertices: vertices, edges: edges}
}

// ResolveURL parses a bird:///<commit-hex>/<segment>/… URI and descends the
// commit's tree to the named Node (spec §4.5 resolve_url).
func (n *Navigator) ResolveURL(ctx context.Context, uri string) (model.Node, model.Commit, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "bird" {
		return model.Node{}, model.Commit{}, BadRequest("malformed bird:// URI %q", uri)
	}

	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return model.Node{}, model.Commit{}, BadRequest("bird:// URI %q has no commit segment", uri)
	}

	oid, err := ids.OIDFromHex(segments[0])
	if err != nil {
		return model.Node{}, model.Commit{}, BadRequest("invalid commit hash %q", segments[0])
	}
	commit, ok, err := n.commits.GetByOID(ctx, oid)
	if err != nil {
		return model.Node{}, model.Commit{}, Internal(err, "look up commit by oid")
	}
	if !ok {
		return model.Node{}, model.Commit{}, NotFound("no commit with hash %q", segments[0])
	}

	cur := commit.Root
	for _, seg := range segments[1:] {
		node, ok, err := n.nodes.Get(ctx, cur)
		if err != nil {
			return model.Node{}, model.Commit{}, Internal(err, "look up node")
		}
		if !ok || node.Content.Kind != model.NodeDirectory {
			return model.Node{}, model.Commit{}, NotFound("path segment %q does not resolve in %s", seg, uri)
		}
		child, exists := node.Content.Directory.Children[seg]
		if !exists {
			return model.Node{}, model.Commit{}, NotFound("path segment %q does not resolve in %s", seg, uri)
		}
		cur = child
	}

	node, ok, err := n.nodes.Get(ctx, cur)
	if err != nil {
		return model.Node{}, model.Commit{}, Internal(err, "look up resolved node")
	}
	if !ok {
		return model.Node{}, model.Commit{}, NotFound("resolved node missing from store for %s", uri)
	}
	return node, commit, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Find resolves uri+pos to the innermost-first Ranges covering it and,
// when edgeKind is non-nil, the vertices that edge kind reaches by walking
// Next-chains outward from the innermost Range (spec §4.5 find).
func (n *Navigator) Find(ctx context.Context, uri string, pos Position, edgeKind *model.EdgeKind) (ResolvedPosition, error) {
	node, _, err := n.ResolveURL(ctx, uri)
	if err != nil {
		return ResolvedPosition{}, err
	}
	if node.Content.Kind != model.NodeText {
		return ResolvedPosition{}, BadRequest("%s is not a text file", uri)
	}
	if int(pos.Line) >= len(node.Content.Text.Lines) {
		return ResolvedPosition{}, BadRequest("line %d out of range in %s", pos.Line, uri)
	}
	lineID := node.Content.Text.Lines[pos.Line]

	rows, err := n.ranges.Find(ctx, bson.M{
		"line_id": lineID,
		"start":   bson.M{"$lte": pos.Character},
		"end":     bson.M{"$gt": pos.Character},
	})
	if err != nil {
		return ResolvedPosition{}, Internal(err, "query ranges at position")
	}
	sort.Slice(rows, func(i, j int) bool {
		return width(rows[i]) < width(rows[j])
	})

	result := ResolvedPosition{Node: node, Line: pos.Line, Position: pos, Ranges: rows}
	if edgeKind == nil {
		return result, nil
	}

	for _, r := range rows {
		found, err := n.walkFromRange(ctx, r, *edgeKind)
		if err != nil {
			return ResolvedPosition{}, err
		}
		if len(found) > 0 {
			result.Found = found
			return result, nil
		}
	}
	return result, nil
}

func width(r model.Range) int64 {
	return int64(r.End) - int64(r.Start)
}

// walkFromRange implements the Range-vertex → Next-chain walk: push the
// Range's own vertex, then repeatedly pop a vertex, check it for an outgoing
// edge of kind, and otherwise follow its Next edges outward (spec §4.5 step 5).
func (n *Navigator) walkFromRange(ctx context.Context, r model.Range, edgeKind model.EdgeKind) ([]model.Vertex, error) {
	rangeVertex, ok, err := n.vertices.FindOne(ctx, bson.M{"data.kind": string(model.VertexRange), "data.range.range": r.Id})
	if err != nil {
		return nil, Internal(err, "look up range vertex")
	}
	if !ok {
		return nil, nil
	}

	stack := []ids.Id[model.Vertex]{rangeVertex.Id}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		matching, err := n.edges.Find(ctx, bson.M{"data.kind": string(edgeKind), "data.out_v": v})
		if err != nil {
			return nil, Internal(err, "query outgoing edges")
		}
		if len(matching) > 0 {
			var inVs []ids.Id[model.Vertex]
			for _, e := range matching {
				inVs = append(inVs, e.Data.InVs...)
			}
			return n.fetchVertices(ctx, inVs)
		}

		nextEdges, err := n.edges.Find(ctx, bson.M{"data.kind": string(model.EdgeNext), "data.out_v": v})
		if err != nil {
			return nil, Internal(err, "query next-edges")
		}
		for _, e := range nextEdges {
			stack = append(stack, e.Data.InVs...)
		}
	}
	return nil, nil
}

func (n *Navigator) fetchVertices(ctx context.Context, ids_ []ids.Id[model.Vertex]) ([]model.Vertex, error) {
	out := make([]model.Vertex, 0, len(ids_))
	for _, id := range ids_ {
		v, ok, err := n.vertices.Get(ctx, id)
		if err != nil {
			return nil, Internal(err, "fetch vertex")
		}
		if !ok {
			return nil, Internal(nil, "dangling vertex id referenced by edge")
		}
		out = append(out, v)
	}
	return out, nil
}

// FindLineNo locates the index of r's line within the Text node that contains
// it (spec §4.5 find_line_no): expensive (full collection scan via
// $elemMatch), acceptable because answers cite few locations.
func (n *Navigator) FindLineNo(ctx context.Context, r model.Range) (uint32, error) {
	node, ok, err := n.nodes.FindOne(ctx, bson.M{"content.text.lines": bson.M{"$elemMatch": bson.M{"$eq": r.LineId}}})
	if err != nil {
		return 0, Internal(err, "find text node containing line")
	}
	if !ok {
		return 0, Internal(nil, "line referenced by range is not contained in any text node")
	}
	for i, id := range node.Content.Text.Lines {
		if id == r.LineId {
			return uint32(i), nil
		}
	}
	return 0, Internal(nil, "line disappeared from text node between lookup and scan")
}

// FindFilePath reconstructs the commit-hash + child-name path for r (spec
// §4.5 find_file_path): the first entry is the commit's Git-hash hex, the
// rest are child names read by reverse-scanning each Directory's children map.
func (n *Navigator) FindFilePath(ctx context.Context, r model.Range) ([]string, error) {
	if len(r.Path) == 0 {
		return nil, Internal(nil, "range has an empty path")
	}

	commit, ok, err := n.commits.FindOne(ctx, bson.M{"root": r.Path[0]})
	if err != nil {
		return nil, Internal(err, "find commit owning range path root")
	}
	if !ok {
		return nil, NotFound("no commit has root %s", r.Path[0])
	}

	names := make([]string, 0, len(r.Path))
	names = append(names, commit.OID.String())

	for i := 0; i < len(r.Path)-1; i++ {
		parent, ok, err := n.nodes.Get(ctx, r.Path[i])
		if err != nil {
			return nil, Internal(err, "fetch path ancestor")
		}
		if !ok || parent.Content.Kind != model.NodeDirectory {
			return nil, Internal(nil, "range path entry is not a directory")
		}
		child := r.Path[i+1]
		name, found := reverseLookupChild(parent.Content.Directory.Children, child)
		if !found {
			return nil, Internal(nil, "range path child not found in parent's children map")
		}
		names = append(names, name)
	}
	return names, nil
}

func reverseLookupChild(children map[string]ids.Id[model.Node], target ids.Id[model.Node]) (string, bool) {
	for name, id := range children {
		if id == target {
			return name, true
		}
	}
	return "", false
}

// FindItems dereferences Item edges outgoing from each result vertex into
// their target Ranges (spec §4.5 find_items).
func (n *Navigator) FindItems(ctx context.Context, resultVertexIDs []ids.Id[model.Vertex]) ([]model.Range, error) {
	var out []model.Range
	for _, rv := range resultVertexIDs {
		itemEdges, err := n.edges.Find(ctx, bson.M{"data.kind": string(model.EdgeItem), "data.out_v": rv})
		if err != nil {
			return nil, Internal(err, "query item edges")
		}
		for _, e := range itemEdges {
			for _, inV := range e.Data.InVs {
				vertex, ok, err := n.vertices.Get(ctx, inV)
				if err != nil {
					return nil, Internal(err, "fetch item target vertex")
				}
				if !ok || vertex.Data.Kind != model.VertexRange {
					continue
				}
				rangeRow, ok, err := n.ranges.Get(ctx, vertex.Data.Range.Range)
				if err != nil {
					return nil, Internal(err, "fetch item target range")
				}
				if ok {
					out = append(out, rangeRow)
				}
			}
		}
	}
	return out, nil
}

// ToLocation composes FindFilePath and FindLineNo into a bird:// URI and an
// LSP range (spec §4.5 to_location).
func (n *Navigator) ToLocation(ctx context.Context, r model.Range) (Location, error) {
	pathParts, err := n.FindFilePath(ctx, r)
	if err != nil {
		return Location{}, err
	}
	lineNo, err := n.FindLineNo(ctx, r)
	if err != nil {
		return Location{}, err
	}
	// r.End is passed through as-is, including the model.EndOfLine sentinel for
	// multi-line ranges — no end-line is carried (spec §9's accepted precision
	// tradeoff), matching go_to_definition.rs's unconditional
	// Position::new(line_no, range.end) rather than collapsing it to r.Start.
	end := r.End
	return Location{
		URI: "bird:///" + strings.Join(pathParts, "/"),
		Range: LSPRange{
			Line:           lineNo,
			StartCharacter: r.Start,
			EndCharacter:   end,
		},
	}, nil
}
