package mutators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogNames(catalog []*Mutator) []string {
	names := make([]string, 0, len(catalog))
	for _, mu := range catalog {
		names = append(names, mu.Name())
	}

	return names
}

func TestBuildCatalog_Default(t *testing.T) {
	catalog := BuildCatalog(CatalogOptions{})

	require.Len(t, catalog, 2)
	assert.Equal(t, []string{"splitBlock", "normalizeBlock"}, catalogNames(catalog))
}

func TestBuildCatalog_FamilySizes(t *testing.T) {
	tests := []struct {
		name     string
		opts     CatalogOptions
		expected int
	}{
		{"default", CatalogOptions{}, 2},
		{"empty blocks", CatalogOptions{EmptyBlocks: true}, 4},
		{"struct stress", CatalogOptions{StructStress: true}, 5},
		{"eh stress", CatalogOptions{EHStress: true}, 30},
		{"everything", CatalogOptions{EHStress: true, StructStress: true, EmptyBlocks: true}, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, BuildCatalog(tt.opts), tt.expected)
		})
	}
}

func TestBuildCatalog_StableOrder(t *testing.T) {
	opts := CatalogOptions{EHStress: true, StructStress: true, EmptyBlocks: true}

	first := catalogNames(BuildCatalog(opts))
	second := catalogNames(BuildCatalog(opts))

	assert.Equal(t, first, second)
}

func TestBuildCatalog_UniqueNames(t *testing.T) {
	names := catalogNames(BuildCatalog(CatalogOptions{EHStress: true, StructStress: true, EmptyBlocks: true}))

	seen := make(map[string]bool)
	for _, name := range names {
		assert.False(t, seen[name], "duplicate catalog entry %q", name)
		seen[name] = true
	}
}

func TestBuildCatalog_EHStressCoversAllGuardedPrimitives(t *testing.T) {
	catalog := BuildCatalog(CatalogOptions{EHStress: true})

	covered := make(map[PrimitiveKind]bool)
	for _, mu := range catalog {
		for kind := range mu.Primitives() {
			covered[kind] = true
		}
	}

	for _, kind := range []PrimitiveKind{GuardedWrap, EmptyTryFinally, TryEmptyFinally, MoveIntoCatch} {
		assert.True(t, covered[kind], "primitive %s missing from the eh-stress catalog", kind)
	}
}
