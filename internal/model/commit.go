package model

import "github.com/iliakonnov/shatterbird/internal/ids"

// Commit is a single ingested Git commit. Parents holds only commits already
// present in the store; unresolvable parents are dropped with a warning by the
// ingester rather than recorded here (spec §4.2).
type Commit struct {
	Id      ids.Id[Commit]   `bson:"_id"`
	OID     ids.OID          `bson:"oid"`
	Root    ids.Id[Node]     `bson:"root"`
	Parents []ids.Id[Commit] `bson:"parents"`
}

func (Commit) CollectionName() string { return "commits" }

// OIDValue implements storeapi.WithOID.
func (c Commit) OIDValue() ids.OID { return c.OID }

// IdValue implements storeapi.Entity.
func (c Commit) IdValue() ids.Id[Commit] { return c.Id }
