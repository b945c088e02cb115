// Package storeapi is the typed facade over the document store (spec §4.1, §6).
// It never assumes a concrete backend in its interfaces so the same ingesters and
// query engine run against either go.mongodb.org/mongo-driver (internal/storeapi
// /mongostore.go) or the in-memory fake used by the test suite.
package storeapi

import (
	"context"

	"github.com/iliakonnov/shatterbird/internal/ids"
)

// Entity is anything the Store can persist: it knows its own collection name and
// can report its own primary id.
type Entity[T any] interface {
	CollectionName() string
	IdValue() ids.Id[T]
}

// WithOID is implemented by entities that carry a Git object hash and therefore
// support GetByOID (Node, Commit — I1).
type WithOID interface {
	OIDValue() ids.OID
}

// Store is the typed CRUD facade described in spec §4.1. Filters are raw query
// documents (bson.M when backed by Mongo); the Filter DSL in storeapi/filter
// renders into that same shape.
type Store[T Entity[T]] interface {
	Get(ctx context.Context, id ids.Id[T]) (T, bool, error)
	GetByOID(ctx context.Context, oid ids.OID) (T, bool, error)
	FindOne(ctx context.Context, filter any) (T, bool, error)
	Find(ctx context.Context, filter any) ([]T, error)
	FindAll(ctx context.Context, filter any) (Cursor[T], error)
	InsertOne(ctx context.Context, row T) error
	InsertMany(ctx context.Context, rows []T) error
}

// Cursor streams results the same way mongo.Cursor does, so FindAll never has to
// materialize a whole collection scan in memory.
type Cursor[T any] interface {
	Next(ctx context.Context) bool
	Decode() (T, error)
	Err() error
	Close(ctx context.Context) error
}

// NotFoundError describes a lookup that had no Store-level error but found
// nothing. The Store methods themselves report a miss as found=false and do
// not return it; callers choose whether a miss is fatal (spec §4.1 "Failure
// model").
type NotFoundError struct {
	Collection string
}

func (e *NotFoundError) Error() string {
	return "storeapi: not found in " + e.Collection
}
