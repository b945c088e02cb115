package lsifconvert

import (
	"sync/atomic"

	"github.com/iliakonnov/shatterbird/internal/ids"
	"github.com/iliakonnov/shatterbird/internal/model"
)

// RootMapping anchors a URI path prefix to an already-ingested commit's root
// tree (spec §4.4's "list of root mappings"). Resolving a Git hash to a
// Commit id, if the caller supplied one, happens before New is called.
type RootMapping struct {
	Dir    string
	Commit ids.Id[model.Commit]
}

// fileEntry is the "files" map value: the Text Node a Document vertex
// resolved to, plus the Node-id chain from the commit root down to it, reused
// verbatim as every Range's Path.
type fileEntry struct {
	Node ids.Id[model.Node]
	Path []ids.Id[model.Node]
}

// rangeSlot is the "ranges" map value: the materialized Range row, keyed by
// the LSIF id of the Range vertex that declared it.
type rangeSlot struct {
	id  ids.Id[model.Range]
	row model.Range
}

// vertexSlot is the "vertices" map value. The id is assigned atomically the
// moment the slot is claimed (LoadOrStore), so any concurrent reader gets a
// stable id immediately; info is filled in once the owning goroutine finishes
// converting the LSIF vertex. A nil info after Phase B completes means the
// vertex was dropped (e.g. an Event vertex) and must not be persisted.
type vertexSlot struct {
	id   ids.Id[model.Vertex]
	info atomic.Pointer[model.VertexInfo]
}

// edgeSlot is the "edges" map value, same tentative-id contract as vertexSlot.
// dropped marks an edge whose in_vs never resolved (spec §4.4 Errors).
type edgeSlot struct {
	id      ids.Id[model.Edge]
	info    atomic.Pointer[model.EdgeInfo]
	dropped atomic.Bool
}
