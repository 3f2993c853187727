package collection

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FieldsFunc returns the searchable fields of an item.
type FieldsFunc[T any] func(T) []string

// Contains matches items whose composite string (fields joined by spaces)
// contains query, ignoring case. An empty query matches everything.
func Contains[T any](query string, fields FieldsFunc[T]) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return matchAll[T]
	}
	return func(item T) bool {
		return strings.Contains(strings.ToLower(composite(fields(item))), needle)
	}
}

// Fuzzy matches items whose composite string contains the query's characters
// in order, ignoring case and diacritics.
func Fuzzy[T any](query string, fields FieldsFunc[T]) Predicate[T] {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return matchAll[T]
	}
	return func(item T) bool {
		return fuzzy.MatchNormalizedFold(needle, composite(fields(item)))
	}
}

// MemberOf matches items whose key is in set. An empty set matches everything.
func MemberOf[T any, K comparable](set map[K]struct{}, key func(T) K) Predicate[T] {
	if len(set) == 0 {
		return matchAll[T]
	}
	return func(item T) bool {
		_, ok := set[key(item)]
		return ok
	}
}

func matchAll[T any](T) bool {
	return true
}

func composite(fields []string) string {
	return strings.Join(fields, " ")
}
