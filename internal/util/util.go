// Package util contains small generic helpers shared by the gramq packages.
package util

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// OrderedKeys returns the keys of m, ordered a particular way. The order is
// guaranteed to be the same on every run.
//
// As of this writing, the order is ascending, but this function does not
// guarantee this will always be the case.
func OrderedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	return keys
}

// SortBy returns a copy of items sorted with the given less function. The sort
// is stable.
func SortBy[T any](items []T, less func(left, right T) bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	return sorted
}
