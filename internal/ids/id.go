// Package ids defines the opaque content-address identifiers shared by every
// entity in the store. Every persisted entity has exactly one; mixing ids across
// collections is a compile-time error because the collection is carried as a Go
// type parameter rather than a runtime tag.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Id is a 96-bit opaque identifier tagged with the entity type T it addresses.
// T never appears in the wire encoding; it only prevents an Id[Vertex] from being
// passed where an Id[Edge] is expected.
type Id[T any] [12]byte

// New generates a fresh random id. Collisions are not checked for; 96 bits of
// crypto/rand entropy makes that acceptable for a content-addressed store where
// ids are otherwise never guessed or compared across hosts.
func New[T any]() Id[T] {
	var id Id[T]
	if _, err := rand.Read(id[:]); err != nil {
		// crypto/rand.Read only fails if the system entropy source is broken,
		// which nothing downstream can recover from.
		panic(fmt.Sprintf("ids: failed to read random bytes: %v", err))
	}
	return id
}

// IsZero reports whether id is the zero value (never assigned by New).
func (id Id[T]) IsZero() bool {
	return id == Id[T]{}
}

func (id Id[T]) String() string {
	return hex.EncodeToString(id[:])
}

// ParseId decodes the hex form produced by String.
func ParseId[T any](s string) (Id[T], error) {
	var id Id[T]
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ids: invalid id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("ids: invalid id %q: expected %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MarshalBSONValue stores the id as raw binary so Mongo's own secondary indexes
// can be declared over it directly.
func (id Id[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(id[:])
}

func (id *Id[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var b []byte
	if err := bson.UnmarshalValue(t, data, &b); err != nil {
		return err
	}
	if len(b) != len(*id) {
		return fmt.Errorf("ids: unmarshal: expected %d bytes, got %d", len(*id), len(b))
	}
	copy(id[:], b)
	return nil
}

func (id Id[T]) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Id[T]) UnmarshalText(text []byte) error {
	parsed, err := ParseId[T](string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// OID is a 20-byte Git object hash (SHA-1), used as the dedup key for Node and
// Commit rows (I1).
type OID [20]byte

func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

func (o OID) IsZero() bool {
	return o == OID{}
}

func OIDFromBytes(b []byte) (OID, error) {
	var o OID
	if len(b) != len(o) {
		return o, fmt.Errorf("ids: invalid oid length %d", len(b))
	}
	copy(o[:], b)
	return o, nil
}

func OIDFromHex(s string) (OID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return OID{}, fmt.Errorf("ids: invalid oid %q: %w", s, err)
	}
	return OIDFromBytes(b)
}

func (o OID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(o[:])
}

func (o *OID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var b []byte
	if err := bson.UnmarshalValue(t, data, &b); err != nil {
		return err
	}
	parsed, err := OIDFromBytes(b)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
