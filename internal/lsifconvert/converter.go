// Package lsifconvert resolves an in-memory LSIF graph against an
// already-ingested repository and persists the result (spec §4.4). It mirrors
// the converter's arena/concurrent-map shape with Go-native primitives:
// sync.Map for the four concurrent maps, errgroup for the I/O-bound document
// load phase and the final bulk-save fan-out, and a bounded errgroup for the
// CPU-bound edge/vertex traversal.
package lsifconvert

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/lsif"
	"github.com/iliakonnov/shatterbird/internal/model"
	"github.com/iliakonnov/shatterbird/internal/storeapi"
)

// Converter resolves one parsed LSIF graph against the repository already
// held in the Store and writes the resulting Vertex/Edge/Range rows.
type Converter struct {
	graph *lsif.Graph
	trie  *rootTrie

	commits storeapi.Store[model.Commit]
	nodes   storeapi.Store[model.Node]
	ranges  storeapi.Store[model.Range]
	vertex  storeapi.Store[model.Vertex]
	edge    storeapi.Store[model.Edge]

	logger log.Logger

	files    sync.Map // lsif.ID -> fileEntry
	rangesMu sync.Map // lsif.ID -> *rangeSlot
	vertices sync.Map // lsif.ID -> *vertexSlot
	edges    sync.Map // lsif.ID -> *edgeSlot

	docsMu sync.Mutex
	docIDs []lsif.ID
}

// New builds a Converter over graph, anchoring document URIs against roots.
func New(
	graph *lsif.Graph,
	roots []RootMapping,
	commits storeapi.Store[model.Commit],
	nodes storeapi.Store[model.Node],
	ranges storeapi.Store[model.Range],
	vertex storeapi.Store[model.Vertex],
	edge storeapi.Store[model.Edge],
	logger log.Logger,
) *Converter {
	trie := newRootTrie()
	for _, r := range roots {
		trie.insert(r.Dir, r)
	}
	return &Converter{
		graph:   graph,
		trie:    trie,
		commits: commits,
		nodes:   nodes,
		ranges:  ranges,
		vertex:  vertex,
		edge:    edge,
		logger:  logger,
	}
}

// Run executes the three-phase load/traverse/save pipeline and returns once
// every materialized row has been durably inserted.
func (c *Converter) Run(ctx context.Context) error {
	if err := c.phaseA(ctx); err != nil {
		return err
	}
	if err := c.phaseB(ctx); err != nil {
		return err
	}
	return c.phaseC(ctx)
}

// phaseA anchors every Document vertex to a stored file and materializes the
// Ranges it contains, in parallel across documents (I/O-bound).
func (c *Converter) phaseA(ctx context.Context) error {
	return c.graph.ForEachDocumentParallel(ctx, c.loadDocument)
}

// phaseB walks outgoing edges from every successfully-anchored document,
// bounded to GOMAXPROCS concurrent traversals (CPU-bound).
func (c *Converter) phaseB(ctx context.Context) error {
	return c.graph.ForEachOutgoingFromAllParallel(ctx, c.docIDs, runtime.GOMAXPROCS(0),
		func(ctx context.Context, docID lsif.ID, edge *lsif.Entry) error {
			_, err := c.loadEdge(ctx, docID, edge)
			return err
		})
}

// phaseC drains the three concurrent maps into bulk inserts; ordering between
// them is unconstrained.
func (c *Converter) phaseC(ctx context.Context) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error { return c.saveRanges(gctx) })
	grp.Go(func() error { return c.saveVertices(gctx) })
	grp.Go(func() error { return c.saveEdges(gctx) })
	return grp.Wait()
}

// loadDocument requires scheme "file", longest-prefix-matches the URI path
// against the root trie, descends the commit's tree to the leaf Text Node,
// and eagerly materializes the Document's Vertex row plus every Range it
// contains (spec §4.4 Phase A).
func (c *Converter) loadDocument(ctx context.Context, doc *lsif.Entry) error {
	u, err := url.Parse(doc.URI)
	if err != nil || !strings.EqualFold(u.Scheme, "file") {
		c.logger.Warn("lsifconvert: document has non-file scheme, skipping", log.String("uri", doc.URI))
		return nil
	}

	mapping, suffix, ok := c.trie.longestPrefixMatch(u.Path)
	if !ok {
		c.logger.Warn("lsifconvert: no root mapping for document, skipping", log.String("uri", doc.URI))
		return nil
	}

	commit, ok, err := c.commits.Get(ctx, mapping.Commit)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lsifconvert: root mapping commit %s not found", mapping.Commit)
	}

	path := []ids.Id[model.Node]{commit.Root}
	cur := commit.Root
	for _, seg := range suffix {
		node, ok, err := c.nodes.Get(ctx, cur)
		if err != nil {
			return err
		}
		if !ok || node.Content.Kind != model.NodeDirectory {
			c.logger.Warn("lsifconvert: document path does not resolve, skipping",
				log.String("uri", doc.URI), log.String("segment", seg))
			return nil
		}
		child, exists := node.Content.Directory.Children[seg]
		if !exists {
			c.logger.Warn("lsifconvert: document path does not resolve, skipping",
				log.String("uri", doc.URI), log.String("segment", seg))
			return nil
		}
		cur = child
		path = append(path, cur)
	}

	leaf, ok, err := c.nodes.Get(ctx, cur)
	if err != nil {
		return err
	}
	if !ok || leaf.Content.Kind != model.NodeText {
		c.logger.Warn("lsifconvert: document does not resolve to a text file, skipping", log.String("uri", doc.URI))
		return nil
	}

	c.files.Store(doc.Id, fileEntry{Node: cur, Path: path})

	info := model.VertexInfo{Kind: model.VertexDocument}
	slot := &vertexSlot{id: ids.New[model.Vertex]()}
	slot.info.Store(&info)
	actual, _ := c.vertices.LoadOrStore(doc.Id, slot)
	_ = actual

	for _, containsEdge := range c.graph.OutgoingFrom(doc.Id) {
		if containsEdge.Label != string(model.EdgeContains) {
			continue
		}
		for _, inV := range containsEdge.AllInVs() {
			rangeEntry, ok := c.graph.Vertex(inV)
			if !ok || rangeEntry.Label != "range" {
				continue
			}
			if _, err := c.loadRange(ctx, doc.Id, inV); err != nil {
				return err
			}
		}
	}

	c.docsMu.Lock()
	c.docIDs = append(c.docIDs, doc.Id)
	c.docsMu.Unlock()
	return nil
}

// loadRange materializes the Range declared by the vertex rangeID, anchored
// into the file doc.Id resolved to in loadDocument (spec §4.4 load_range).
func (c *Converter) loadRange(ctx context.Context, docID, rangeID lsif.ID) (ids.Id[model.Range], error) {
	if existing, ok := c.rangesMu.Load(rangeID); ok {
		return existing.(*rangeSlot).id, nil
	}

	rangeEntry, ok := c.graph.Vertex(rangeID)
	if !ok {
		return ids.Id[model.Range]{}, fmt.Errorf("lsifconvert: range vertex %s missing from graph", rangeID)
	}

	fe, ok := c.files.Load(docID)
	if !ok {
		return ids.Id[model.Range]{}, fmt.Errorf("lsifconvert: range %s references unanchored document %s", rangeID, docID)
	}
	file := fe.(fileEntry)

	leaf, ok, err := c.nodes.Get(ctx, file.Node)
	if err != nil {
		return ids.Id[model.Range]{}, err
	}
	if !ok || leaf.Content.Kind != model.NodeText {
		return ids.Id[model.Range]{}, fmt.Errorf("lsifconvert: document %s file node is not text", docID)
	}

	startLine := rangeEntry.Start.Line
	if int(startLine) >= len(leaf.Content.Text.Lines) {
		return ids.Id[model.Range]{}, fmt.Errorf("lsifconvert: range %s start line %d out of bounds", rangeID, startLine)
	}
	lineID := leaf.Content.Text.Lines[startLine]

	end := rangeEntry.End.Character
	if rangeEntry.Start.Line != rangeEntry.End.Line {
		end = model.EndOfLine
	}

	row := model.Range{
		Id:     ids.New[model.Range](),
		LineId: lineID,
		Start:  rangeEntry.Start.Character,
		End:    end,
		Path:   file.Path,
	}
	slot := &rangeSlot{id: row.Id, row: row}
	actual, _ := c.rangesMu.LoadOrStore(rangeID, slot)
	return actual.(*rangeSlot).id, nil
}

// loadVertexAndEdges resolves vID to a Vertex row, then recursively traverses
// its own outgoing edges — the "load_vertex(in_v) and its outgoing edges"
// step load_edge performs for every in_v (spec §4.4).
func (c *Converter) loadVertexAndEdges(ctx context.Context, docHint lsif.ID, vID lsif.ID) (ids.Id[model.Vertex], error) {
	storeID, err := c.loadVertex(ctx, docHint, vID)
	if err != nil {
		return ids.Id[model.Vertex]{}, err
	}
	for _, out := range c.graph.OutgoingFrom(vID) {
		if _, err := c.loadEdge(ctx, docHint, out); err != nil {
			return ids.Id[model.Vertex]{}, err
		}
	}
	return storeID, nil
}

// loadEdge occupies its tentative id, resolves out_v and every in_v, and
// materializes the Edge row — or drops it with a warning if no in_v resolved
// (spec §4.4 load_edge, Errors).
func (c *Converter) loadEdge(ctx context.Context, docHint lsif.ID, e *lsif.Entry) (ids.Id[model.Edge], error) {
	if existing, ok := c.edges.Load(e.Id); ok {
		return existing.(*edgeSlot).id, nil
	}

	tentative := &edgeSlot{id: ids.New[model.Edge]()}
	actual, loaded := c.edges.LoadOrStore(e.Id, tentative)
	slot := actual.(*edgeSlot)
	if loaded {
		return slot.id, nil
	}

	outVID, err := c.loadVertex(ctx, docHint, e.OutV)
	if err != nil {
		return slot.id, errors.Wrapf(err, "lsifconvert: resolve out_v for edge %s", e.Id)
	}

	var resolved []ids.Id[model.Vertex]
	for _, inV := range e.AllInVs() {
		inVID, err := c.loadVertexAndEdges(ctx, docHint, inV)
		if err != nil {
			c.logger.Warn("lsifconvert: dropping unresolved in_v", log.String("edge", string(e.Id)), log.String("in_v", string(inV)))
			continue
		}
		resolved = append(resolved, inVID)
	}
	if len(resolved) == 0 {
		c.logger.Warn("lsifconvert: edge has no resolvable in_v, dropping", log.String("edge", string(e.Id)))
		slot.dropped.Store(true)
		return slot.id, nil
	}

	info := model.EdgeInfo{
		Kind: mapEdgeKind(e.Label),
		OutV: outVID,
		InVs: resolved,
	}
	if e.Label == "item" {
		if e.Document != "" {
			docVertexID, err := c.loadVertex(ctx, docHint, e.Document)
			if err == nil {
				info.Document = &docVertexID
			}
		}
		if e.Property != "" {
			prop := model.ItemProperty(e.Property)
			info.Property = &prop
		}
	}
	slot.info.Store(&info)
	return slot.id, nil
}

// loadVertex resolves vID to a fresh or already-claimed Vertex store id and,
// on first claim, converts the arena entry into VertexInfo (spec §4.4
// load_vertex).
func (c *Converter) loadVertex(ctx context.Context, docHint lsif.ID, vID lsif.ID) (ids.Id[model.Vertex], error) {
	if existing, ok := c.vertices.Load(vID); ok {
		return existing.(*vertexSlot).id, nil
	}

	entry, ok := c.graph.Vertex(vID)
	if !ok {
		return ids.Id[model.Vertex]{}, fmt.Errorf("lsifconvert: unresolved vertex reference %s", vID)
	}

	tentative := &vertexSlot{id: ids.New[model.Vertex]()}
	actual, loaded := c.vertices.LoadOrStore(vID, tentative)
	slot := actual.(*vertexSlot)
	if loaded {
		return slot.id, nil
	}

	info, drop, err := c.buildVertexInfo(ctx, docHint, entry)
	if err != nil {
		return slot.id, err
	}
	if !drop {
		slot.info.Store(&info)
	}
	return slot.id, nil
}

// buildVertexInfo converts one LSIF vertex entry into VertexInfo. Event
// vertices carry no queryable representation and are dropped, matching
// spec §4.4's "Event vertices are dropped as None".
func (c *Converter) buildVertexInfo(ctx context.Context, docHint lsif.ID, entry *lsif.Entry) (model.VertexInfo, bool, error) {
	switch entry.Label {
	case "event":
		return model.VertexInfo{}, true, nil
	case "metaData":
		return model.VertexInfo{Kind: model.VertexMetaData}, false, nil
	case "project":
		return model.VertexInfo{Kind: model.VertexProject}, false, nil
	case "document":
		return model.VertexInfo{Kind: model.VertexDocument}, false, nil
	case "range":
		rs, ok := c.rangesMu.Load(entry.Id)
		if !ok {
			return model.VertexInfo{}, false, fmt.Errorf("lsifconvert: range vertex %s was never materialized by its document", entry.Id)
		}
		var tag *model.RangeTag
		if entry.Tag != nil {
			tag = &model.RangeTag{Type: entry.Tag.Type, Text: entry.Tag.Text}
		}
		return model.VertexInfo{
			Kind:  model.VertexRange,
			Range: &model.RangeVertexData{Range: rs.(*rangeSlot).id, Tag: tag},
		}, false, nil
	case "resultSet":
		return model.VertexInfo{Kind: model.VertexResultSet}, false, nil
	case "moniker":
		return model.VertexInfo{
			Kind: model.VertexMoniker,
			Moniker: &model.MonikerData{
				Scheme:     entry.Scheme,
				Identifier: entry.Identifier,
				Kind:       entry.Kind,
				Unique:     entry.Unique,
			},
		}, false, nil
	case "packageInformation":
		return model.VertexInfo{
			Kind: model.VertexPackageInformation,
			PackageInformation: &model.PackageInformationData{
				Name:    entry.Name,
				Manager: entry.Manager,
				Version: entry.Version,
			},
		}, false, nil
	case "definitionResult":
		return model.VertexInfo{Kind: model.VertexDefinitionResult}, false, nil
	case "declarationResult":
		return model.VertexInfo{Kind: model.VertexDeclarationResult}, false, nil
	case "typeDefinitionResult":
		return model.VertexInfo{Kind: model.VertexTypeDefinitionResult}, false, nil
	case "referenceResult":
		return model.VertexInfo{Kind: model.VertexReferenceResult}, false, nil
	case "implementationResult":
		return model.VertexInfo{Kind: model.VertexImplementationResult}, false, nil
	case "foldingRangeResult":
		return model.VertexInfo{Kind: model.VertexFoldingRangeResult}, false, nil
	case "documentSymbolResult":
		return model.VertexInfo{Kind: model.VertexDocumentSymbolResult}, false, nil
	case "documentLinkResult":
		return model.VertexInfo{Kind: model.VertexDocumentLinkResult}, false, nil
	case "hoverResult":
		payload, err := entry.HoverPayload()
		if err != nil {
			return model.VertexInfo{}, false, err
		}
		contents, err := normalizeHoverContents(payload.Contents)
		if err != nil {
			return model.VertexInfo{}, false, err
		}
		return model.VertexInfo{Kind: model.VertexHoverResult, HoverResult: &model.HoverResultData{Contents: contents}}, false, nil
	case "diagnosticResult":
		return c.buildDiagnosticResult(ctx, docHint, entry)
	default:
		c.logger.Warn("lsifconvert: unrecognized vertex label, dropping", log.String("label", entry.Label))
		return model.VertexInfo{}, true, nil
	}
}

// buildDiagnosticResult materializes a Range row per diagnostic against the
// hinted document's file, best-effort: a diagnostic whose range cannot be
// resolved is skipped rather than failing the whole vertex, since diagnostics
// are supplemental to the core navigator operations.
func (c *Converter) buildDiagnosticResult(ctx context.Context, docHint lsif.ID, entry *lsif.Entry) (model.VertexInfo, bool, error) {
	payload, err := entry.DiagnosticResult()
	if err != nil {
		return model.VertexInfo{}, false, err
	}

	fe, ok := c.files.Load(docHint)
	if !ok {
		c.logger.Warn("lsifconvert: diagnosticResult outside any document context, dropping")
		return model.VertexInfo{}, true, nil
	}
	file := fe.(fileEntry)

	leaf, ok, err := c.nodes.Get(ctx, file.Node)
	if err != nil {
		return model.VertexInfo{}, false, err
	}
	if !ok || leaf.Content.Kind != model.NodeText {
		return model.VertexInfo{}, true, nil
	}

	var entries []model.DiagnosticEntry
	for _, d := range payload.Diagnostics {
		if int(d.Range.Start.Line) >= len(leaf.Content.Text.Lines) {
			c.logger.Warn("lsifconvert: diagnostic range out of bounds, skipping")
			continue
		}
		lineID := leaf.Content.Text.Lines[d.Range.Start.Line]
		end := d.Range.End.Character
		if d.Range.Start.Line != d.Range.End.Line {
			end = model.EndOfLine
		}
		row := model.Range{
			Id:     ids.New[model.Range](),
			LineId: lineID,
			Start:  d.Range.Start.Character,
			End:    end,
			Path:   file.Path,
		}
		slot := &rangeSlot{id: row.Id, row: row}
		c.rangesMu.Store(lsif.ID(fmt.Sprintf("%s#diag%d", entry.Id, len(entries))), slot)

		var code string
		if len(d.Code) > 0 {
			code = string(d.Code)
		}
		entries = append(entries, model.DiagnosticEntry{
			Range:    row.Id,
			Severity: d.Severity,
			Code:     code,
			Source:   d.Source,
			Message:  d.Message,
		})
	}

	return model.VertexInfo{Kind: model.VertexDiagnosticResult, DiagnosticResult: &model.DiagnosticResultData{Diagnostics: entries}}, false, nil
}

func mapEdgeKind(label string) model.EdgeKind {
	switch label {
	case "contains":
		return model.EdgeContains
	case "moniker":
		return model.EdgeMoniker
	case "nextMoniker":
		return model.EdgeNextMoniker
	case "next":
		return model.EdgeNext
	case "packageInformation":
		return model.EdgePackageInformation
	case "item":
		return model.EdgeItem
	case "textDocument/definition":
		return model.EdgeDefinition
	case "textDocument/declaration":
		return model.EdgeDeclaration
	case "textDocument/hover":
		return model.EdgeHover
	case "textDocument/references":
		return model.EdgeReferences
	case "textDocument/implementation":
		return model.EdgeImplementation
	case "textDocument/typeDefinition":
		return model.EdgeTypeDefinition
	case "textDocument/foldingRange":
		return model.EdgeFoldingRange
	case "textDocument/documentLink":
		return model.EdgeDocumentLink
	case "textDocument/documentSymbol":
		return model.EdgeDocumentSymbol
	case "textDocument/diagnostic":
		return model.EdgeDiagnostic
	default:
		return model.EdgeKind(label)
	}
}

func (c *Converter) saveRanges(ctx context.Context) error {
	var rows []model.Range
	c.rangesMu.Range(func(_, v any) bool {
		rows = append(rows, v.(*rangeSlot).row)
		return true
	})
	if len(rows) == 0 {
		return nil
	}
	return c.ranges.InsertMany(ctx, rows)
}

func (c *Converter) saveVertices(ctx context.Context) error {
	var rows []model.Vertex
	c.vertices.Range(func(_, v any) bool {
		slot := v.(*vertexSlot)
		if info := slot.info.Load(); info != nil {
			rows = append(rows, model.Vertex{Id: slot.id, Data: *info})
		}
		return true
	})
	if len(rows) == 0 {
		return nil
	}
	return c.vertex.InsertMany(ctx, rows)
}

func (c *Converter) saveEdges(ctx context.Context) error {
	var rows []model.Edge
	c.edges.Range(func(_, v any) bool {
		slot := v.(*edgeSlot)
		if slot.dropped.Load() {
			return true
		}
		if info := slot.info.Load(); info != nil {
			rows = append(rows, model.Edge{Id: slot.id, Data: *info})
		}
		return true
	})
	if len(rows) == 0 {
		return nil
	}
	return c.edge.InsertMany(ctx, rows)
}
