package domain

import (
	"fmt"
	"slices"
	"sort"
)

// SortedInsert inserts add into items, kept sorted ascending by cmp and
// bounded by maxSize. Equal elements keep insertion order. When items is
// full, the largest element is dropped and returned as evicted; add itself
// is returned when it ranks no better than the current tail.
func SortedInsert[T any](items []T, add T, maxSize int, cmp func(a, b T) int) (result []T, evicted *T, err error) {
	if maxSize <= 0 {
		return items, nil, ErrMaxResults
	}
	if len(items) > maxSize {
		return items, nil, fmt.Errorf("%w: %d > %d", ErrItemsSize, len(items), maxSize)
	}

	full := len(items) == maxSize
	if full && cmp(items[len(items)-1], add) <= 0 {
		return items, &add, nil
	}

	i := sort.Search(len(items), func(i int) bool { return cmp(items[i], add) > 0 })
	items = slices.Insert(items, i, add)
	if full {
		last := items[len(items)-1]
		return items[:len(items)-1], &last, nil
	}
	return items, nil, nil
}
