package model

import (
	"math"

	"github.com/iliakonnov/shatterbird/internal/ids"
)

// EndOfLine is the Range.End sentinel meaning "to the end of the starting line",
// used for LSIF ranges that span more than one line (I5).
const EndOfLine = math.MaxUint32

// Range is an [Start, End) byte span within Line, anchored to the repository tree
// that contains it via Path: the ordered chain of Node ids from the commit root
// down to the Text node holding LineId (I2).
type Range struct {
	Id     ids.Id[Range]  `bson:"_id"`
	LineId ids.Id[Line]   `bson:"line_id"`
	Start  uint32         `bson:"start"`
	End    uint32         `bson:"end"`
	Path   []ids.Id[Node] `bson:"path"`
}

func (Range) CollectionName() string { return "ranges" }

// IdValue implements storeapi.Entity.
func (r Range) IdValue() ids.Id[Range] { return r.Id }

// IsMultiLine reports whether End carries the EndOfLine sentinel (I5).
func (r Range) IsMultiLine() bool {
	return r.End == EndOfLine
}
