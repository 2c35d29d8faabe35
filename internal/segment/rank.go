package segment

import "slices"

// Ranked is a value with its frequency.
type Ranked[K comparable] struct {
	Value K   `json:"value"`
	Count int `json:"count"`
}

// GroupCount counts records per key.
func GroupCount[T any, K comparable](records []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, r := range records {
		counts[key(r)]++
	}
	return counts
}

// Rank returns every distinct key ordered by descending count. Ties keep the
// order in which the key was first encountered.
func Rank[T any, K comparable](records []T, key func(T) K) []Ranked[K] {
	idx := make(map[K]int)
	var out []Ranked[K]
	for _, r := range records {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Ranked[K]{Value: k})
		}
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b Ranked[K]) int {
		return b.Count - a.Count
	})
	return out
}

// TopNByFrequency returns at most n of the most frequent keys. n <= 0 yields
// an empty result.
func TopNByFrequency[T any, K comparable](records []T, key func(T) K, n int) []Ranked[K] {
	if n <= 0 {
		return []Ranked[K]{}
	}
	ranked := Rank(records, key)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		return []Ranked[K]{}
	}
	return ranked
}

// Values extracts the keys of a ranking.
func Values[K comparable](ranked []Ranked[K]) []K {
	out := make([]K, len(ranked))
	for i, r := range ranked {
		out[i] = r.Value
	}
	return out
}
