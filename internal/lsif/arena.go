package lsif

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

// Arena is the append-only backing store built while parsing an NDJSON
// stream: every entry in discovery order, plus an id index. It is mutated
// only during Parse; once handed out as a Graph it is read-only and safe to
// share across goroutines (spec §4.3's "exclusive access during
// construction, shared read-only access afterwards").
type Arena struct {
	entries []Entry
	byID    map[ID]int
}

func newArena() *Arena {
	return &Arena{byID: make(map[ID]int)}
}

func (a *Arena) append(e Entry) {
	a.byID[e.Id] = len(a.entries)
	a.entries = append(a.entries, e)
}

// ArenaHolder owns the Arena filled by Parse and exposes no way to append to
// it; Build returns the read-only Graph view over the same entries.
type ArenaHolder struct {
	arena *Arena
}

// Parse reads newline-delimited LSIF JSON entries from r into a fresh
// ArenaHolder.
func Parse(r io.Reader) (*ArenaHolder, error) {
	arena := newArena()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytesTrim(raw)) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, errors.Wrapf(err, "lsif: parse error at line %d", line)
		}
		arena.append(entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "lsif: read NDJSON stream")
	}
	return &ArenaHolder{arena: arena}, nil
}

func bytesTrim(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// Build indexes the parsed entries into a Graph: an adjacency list keyed by
// out_v, and the discovery-ordered list of document vertices.
func (h *ArenaHolder) Build() *Graph {
	a := h.arena
	outgoing := make(map[ID][]int)
	var documents []int

	for i, e := range a.entries {
		switch e.Type {
		case TypeEdge:
			outgoing[e.OutV] = append(outgoing[e.OutV], i)
		case TypeVertex:
			if e.Label == "document" {
				documents = append(documents, i)
			}
		}
	}

	return &Graph{
		entries:   a.entries,
		byID:      a.byID,
		outgoing:  outgoing,
		documents: documents,
	}
}
