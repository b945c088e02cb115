// Package filter is the compile-time-composed query-fragment builder of spec
// §4.6, implemented as the "type-safe query builder generated from a schema"
// fallback spec §9 sanctions for implementations without a macro facility: field
// names are supplied as plain strings (no per-model field constants are
// declared) and Filter.Build renders a bson.M query
// document. It adds no runtime capability beyond a raw bson.M — its only job is
// to catch duplicate-field-path mistakes at composition time.
package filter

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Fragment is one field constraint: Field "==" some value, Field "$in" a slice,
// and so on. Comparator "" means untagged equality.
type Fragment struct {
	Field      string
	Comparator string
	Value      any
}

func Eq(field string, value any) Fragment  { return Fragment{Field: field, Value: value} }
func Ne(field string, value any) Fragment  { return Fragment{Field: field, Comparator: "$ne", Value: value} }
func Lt(field string, value any) Fragment  { return Fragment{Field: field, Comparator: "$lt", Value: value} }
func Lte(field string, value any) Fragment { return Fragment{Field: field, Comparator: "$lte", Value: value} }
func Gt(field string, value any) Fragment  { return Fragment{Field: field, Comparator: "$gt", Value: value} }
func Gte(field string, value any) Fragment { return Fragment{Field: field, Comparator: "$gte", Value: value} }
func In(field string, values any) Fragment { return Fragment{Field: field, Comparator: "$in", Value: values} }
func NotIn(field string, values any) Fragment {
	return Fragment{Field: field, Comparator: "$nin", Value: values}
}
func ElemMatch(field string, cond Fragment) Fragment {
	return Fragment{Field: field, Comparator: "$elemMatch", Value: cond.render()}
}

// render returns the value to store under f.Field in the rendered document:
// the bare value for untagged equality, or a single-operator bson.M otherwise.
func (f Fragment) render() any {
	if f.Comparator == "" {
		return f.Value
	}
	return bson.M{f.Comparator: f.Value}
}

// Filter is a conjunction of Fragments: an implicit AND over distinct field
// paths. Composing two Fragments over the same Field is an error caught by
// Build, never failing silently on the duplicate-path mistake spec §4.6 calls
// out.
type Filter struct {
	fragments []Fragment
}

// And composes fragments into a single Filter.
func And(fragments ...Fragment) Filter {
	return Filter{fragments: fragments}
}

// Or renders a top-level $or of sub-filters.
func Or(filters ...Filter) Fragment {
	docs := make([]bson.M, len(filters))
	for i, f := range filters {
		doc, err := f.Build()
		if err != nil {
			// Or is used at composition time over already-validated filters;
			// a panic here means the caller built an invalid sub-filter, which
			// Build would otherwise have reported at the top level anyway.
			panic(err)
		}
		docs[i] = doc
	}
	return Fragment{Field: "$or", Comparator: "$or", Value: docs}
}

// Build renders the filter into its native bson.M query document, failing (not
// silently dropping a fragment) when two fragments name the same field path.
func (f Filter) Build() (bson.M, error) {
	out := bson.M{}
	seen := make(map[string]bool, len(f.fragments))
	for _, frag := range f.fragments {
		if seen[frag.Field] {
			return nil, fmt.Errorf("filter: duplicate field path %q", frag.Field)
		}
		seen[frag.Field] = true
		if frag.Comparator == "$or" {
			out["$or"] = frag.Value
			continue
		}
		out[frag.Field] = frag.render()
	}
	return out, nil
}

// MustBuild panics on a Build error; convenient for filters whose field set is
// fixed at the call site and known not to collide.
func (f Filter) MustBuild() bson.M {
	doc, err := f.Build()
	if err != nil {
		panic(err)
	}
	return doc
}
