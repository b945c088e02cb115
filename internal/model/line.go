package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// Line is one line of source text, deduplicated across revisions (I4).
type Line struct {
	Id   ids.Id[Line] `bson:"_id"`
	Text string       `bson:"text"`
}

func (Line) CollectionName() string { return "lines" }

// IdValue implements storeapi.Entity.
func (l Line) IdValue() ids.Id[Line] { return l.Id }
