package canonical

import (
	"cmp"
	"sort"
)

// StableSortByKey returns a new slice with values sorted ascending by the
// ordered key that keyFn extracts, using a stable sort so equal keys keep
// their relative input order. Used wherever shards, rows, or catalog
// entries are combined deterministically.
func StableSortByKey[T any, K cmp.Ordered](values []T, keyFn func(T) K) []T {
	out := make([]T, len(values))
	copy(out, values)
	sort.SliceStable(out, func(i, j int) bool {
		return keyFn(out[i]) < keyFn(out[j])
	})
	return out
}
