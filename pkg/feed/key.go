package feed

import "strings"

// QueryKey identifies one cached page collection. It is an ordered tuple of
// string elements, typically the feed identity followed by filter parameters,
// e.g. ["feed", "popular", "period:7d"].
//
// Two keys are equal iff all elements compare equal. Prefix matching is used
// to decide whether a mutation committed against one key is relevant to a
// view bound to another.
type QueryKey []string

func NewQueryKey(elems ...string) QueryKey {
	k := make(QueryKey, len(elems))
	copy(k, elems)
	return k
}

func (k QueryKey) Equal(other QueryKey) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading subsequence of k.
// Every key has the empty key as a prefix.
func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// String renders the key in a stable, collision-free form usable as a map key.
// Elements never contain the separator by convention; callers that cannot
// guarantee that should encode elements first.
func (k QueryKey) String() string {
	return strings.Join(k, "/")
}
