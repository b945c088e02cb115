// Package lsif parses an LSIF NDJSON stream into an in-memory arena and
// exposes it as a read-only graph (spec §4.3).
package lsif

import (
	"bytes"
	"encoding/json"
)

// ID is an LSIF vertex/edge identifier. LSIF permits ids to be written either
// as JSON numbers or as JSON strings; UnmarshalJSON normalizes both to the
// same decimal-string form so a Contains edge's numeric inVs match a vertex's
// quoted-string id and vice versa (spec §4.3).
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	*id = ID(data)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// EntryType discriminates the two top-level LSIF entry shapes.
type EntryType string

const (
	TypeVertex EntryType = "vertex"
	TypeEdge   EntryType = "edge"
)

// Position is an LSP-style zero-based line/character position.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// RangeTag is the optional LSIF range-vertex tag.
type RangeTag struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// HoverResultPayload is the "result" field of an LSIF hoverResult vertex.
type HoverResultPayload struct {
	Contents json.RawMessage `json:"contents"`
}

// DiagnosticPayload is one element of a diagnosticResult vertex's diagnostics.
type DiagnosticPayload struct {
	Range    DiagnosticRange `json:"range"`
	Severity int             `json:"severity"`
	Code     json.RawMessage `json:"code,omitempty"`
	Source   string          `json:"source,omitempty"`
	Message  string          `json:"message"`
}

type DiagnosticRange struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticResultPayload is the "result" field of a diagnosticResult vertex.
type DiagnosticResultPayload struct {
	Diagnostics []DiagnosticPayload `json:"diagnostics"`
}

// Entry is one parsed NDJSON line: a tagged union of every vertex/edge shape
// this implementation understands, flattened into one struct (Go has no
// algebraic-data-type sugar; unused fields for a given Label are simply
// zero-valued, mirroring the teacher's int-keyed-per-kind map idiom collapsed
// into one row).
type Entry struct {
	Id    ID        `json:"id"`
	Type  EntryType `json:"type"`
	Label string    `json:"label"`

	// vertex: document
	URI string `json:"uri"`

	// vertex: range
	Start Position  `json:"start"`
	End   Position  `json:"end"`
	Tag   *RangeTag `json:"tag,omitempty"`

	// vertex: moniker
	Scheme     string `json:"scheme,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Unique     string `json:"unique,omitempty"`

	// vertex: packageInformation
	Name    string `json:"name,omitempty"`
	Manager string `json:"manager,omitempty"`
	Version string `json:"version,omitempty"`

	// vertex: hoverResult / diagnosticResult payload, interpreted by Label.
	Result json.RawMessage `json:"result,omitempty"`

	// edge: common
	OutV     ID     `json:"outV,omitempty"`
	InV      ID     `json:"inV,omitempty"`
	InVs     []ID   `json:"inVs,omitempty"`
	Document ID     `json:"document,omitempty"`
	Property string `json:"property,omitempty"`
}

// AllInVs returns InV and InVs normalized into one slice, since LSIF edges use
// either field depending on whether they carry one or many targets (spec §3's
// EdgeData vs EdgeDataMultiIn).
func (e *Entry) AllInVs() []ID {
	if len(e.InVs) > 0 {
		return e.InVs
	}
	if e.InV != "" {
		return []ID{e.InV}
	}
	return nil
}

// HoverPayload decodes Result as a hoverResult vertex's contents.
func (e *Entry) HoverPayload() (HoverResultPayload, error) {
	var p HoverResultPayload
	if len(e.Result) == 0 {
		return p, nil
	}
	err := json.Unmarshal(e.Result, &p)
	return p, err
}

// DiagnosticResult decodes Result as a diagnosticResult vertex's diagnostics.
func (e *Entry) DiagnosticResult() (DiagnosticResultPayload, error) {
	var p DiagnosticResultPayload
	if len(e.Result) == 0 {
		return p, nil
	}
	err := json.Unmarshal(e.Result, &p)
	return p, err
}
