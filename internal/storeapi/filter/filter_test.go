package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliakonnov/shatterbird/internal/storeapi/filter"
)

func TestBuild_RendersFragments(t *testing.T) {
	doc, err := filter.And(
		filter.Eq("kind", "range"),
		filter.In("out_v", []string{"a", "b"}),
		filter.Gte("start", 10),
	).Build()
	require.NoError(t, err)
	require.Equal(t, bson.M{
		"kind":  "range",
		"out_v": bson.M{"$in": []string{"a", "b"}},
		"start": bson.M{"$gte": 10},
	}, doc)
}

func TestBuild_DuplicateFieldIsAnError(t *testing.T) {
	_, err := filter.And(
		filter.Eq("data.out_v", "x"),
		filter.Ne("data.out_v", "y"),
	).Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), "data.out_v")
}

func TestMustBuild_PanicsOnDuplicateField(t *testing.T) {
	require.Panics(t, func() {
		filter.And(filter.Eq("id", 1), filter.Eq("id", 2)).MustBuild()
	})
}

func TestOr_RendersSubFilters(t *testing.T) {
	frag := filter.Or(
		filter.And(filter.Eq("kind", "range")),
		filter.And(filter.Eq("kind", "moniker")),
	)
	doc, err := filter.And(frag).Build()
	require.NoError(t, err)
	require.Equal(t, bson.M{
		"$or": []bson.M{
			{"kind": "range"},
			{"kind": "moniker"},
		},
	}, doc)
}

func TestOr_PanicsOnInvalidSubFilter(t *testing.T) {
	invalid := filter.And(filter.Eq("id", 1), filter.Eq("id", 2))
	require.Panics(t, func() {
		filter.Or(invalid)
	})
}

func TestElemMatch_RendersNestedCondition(t *testing.T) {
	// ElemMatch only keeps the operand's rendered condition, not its field name
	// (a scalar-array $elemMatch has no inner field to name) — so the inner
	// fragment is built with a comparator constructor like Gte, not Eq.
	doc, err := filter.And(
		filter.ElemMatch("scores", filter.Gte("", 90)),
	).Build()
	require.NoError(t, err)
	require.Equal(t, bson.M{
		"scores": bson.M{"$elemMatch": bson.M{"$gte": 90}},
	}, doc)
}
