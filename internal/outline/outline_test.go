package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResolvesPagesFromDestinations(t *testing.T) {
	raw := []RawNode{
		{
			Title: "Chapter 1",
			Dest:  []any{1, "XYZ"},
			Items: []RawNode{
				{Title: "Section 1.1", Dest: []any{2, "XYZ"}},
			},
		},
	}

	nodes, warning := Build(raw, 3)
	require.Empty(t, warning)
	require.Len(t, nodes, 1)

	// Destinations are 0-based; reported pages are 1-based.
	assert.Equal(t, "Chapter 1", nodes[0].Title)
	assert.Equal(t, 2, nodes[0].Page)
	require.Len(t, nodes[0].Items, 1)
	assert.Equal(t, "Section 1.1", nodes[0].Items[0].Title)
	assert.Equal(t, 3, nodes[0].Items[0].Page)
}

func TestBuildOmitsUnresolvablePages(t *testing.T) {
	raw := []RawNode{
		{Title: "Named destination", Dest: []any{"intro"}},
		{Title: "No destination"},
	}

	nodes, warning := Build(raw, 5)
	require.Empty(t, warning)
	require.Len(t, nodes, 2)
	assert.Zero(t, nodes[0].Page)
	assert.Zero(t, nodes[1].Page)
}

func TestBuildCapsDepth(t *testing.T) {
	raw := []RawNode{{
		Title: "1",
		Items: []RawNode{{
			Title: "1.1",
			Items: []RawNode{{
				Title: "1.1.1",
				Items: []RawNode{{Title: "1.1.1.1"}},
			}},
		}},
	}}

	nodes, _ := Build(raw, 2)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Items, 1)
	assert.Empty(t, nodes[0].Items[0].Items, "depth 3 must be pruned at maxDepth=2")
}

func TestBuildEmptyOutlineWarns(t *testing.T) {
	nodes, warning := Build(nil, 5)
	assert.Nil(t, nodes)
	assert.Equal(t, NoOutlineWarning, warning)
}

func TestClampDepth(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultMaxDepth},
		{in: -3, want: DefaultMaxDepth},
		{in: 1, want: 1},
		{in: 7, want: 7},
		{in: 25, want: MaxDepthLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDepth(tt.in))
	}
}

func TestBuildNumericDestinationKinds(t *testing.T) {
	raw := []RawNode{
		{Title: "int", Dest: []any{4}},
		{Title: "int64", Dest: []any{int64(4)}},
		{Title: "float64", Dest: []any{float64(4)}},
	}
	nodes, _ := Build(raw, 1)
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		assert.Equal(t, 5, n.Page, "destination kind %s", n.Title)
	}
}
