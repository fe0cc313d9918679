package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropsZeroAndFoldsDuplicates(t *testing.T) {
	items := []CartItem{
		{Product: Product{ID: "a"}, Quantity: 2},
		{Product: Product{ID: "b"}, Quantity: 0},
		{Product: Product{ID: "c"}, Quantity: 1},
		{Product: Product{ID: "a"}, Quantity: 3},
	}

	got := Normalize(items)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Product.ID)
	assert.Equal(t, 5, got[0].Quantity)
	assert.Equal(t, "c", got[1].Product.ID)
}

func TestCategorySlug_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		slug     string
	}{
		{"all", Category{}, "all"},
		{"plain", Category{ID: "1", Name: "lamps"}, "lamps"},
		{"spaces and slash", Category{ID: "2", Name: "Tables / Chairs"}, "Tables%20%2F%20Chairs"},
		{"unicode", Category{ID: "3", Name: "Диваны"}, "%D0%94%D0%B8%D0%B2%D0%B0%D0%BD%D1%8B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug := tt.category.Slug()
			assert.Equal(t, tt.slug, slug)

			name, err := NameFromSlug(slug)
			require.NoError(t, err)
			assert.Equal(t, tt.category.Name, name)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	s, err := ParseSortOrder("desc")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, s)

	s, err = ParseSortOrder("none")
	require.NoError(t, err)
	assert.Equal(t, SortNone, s)

	_, err = ParseSortOrder("sideways")
	assert.Error(t, err)
}

func TestPageRequest_SameFilter(t *testing.T) {
	a := PageRequest{Offset: 0, Limit: 8, Query: "lamp", Sort: SortAsc}
	b := a
	b.Offset = 16
	assert.True(t, a.SameFilter(b))

	b.Sort = SortDesc
	assert.False(t, a.SameFilter(b))
}
