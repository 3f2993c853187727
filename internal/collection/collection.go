// Package collection keeps a master list and its filtered, order-preserving view.
package collection

import "sort"

// Predicate returns true when an item should stay visible.
type Predicate[T any] func(T) bool

// Collection holds a master list plus keyed predicates and the derived
// visible subset. Filtering only removes items; it never reorders.
type Collection[T any] struct {
	idOf       func(T) int64
	master     []T
	predicates map[string]Predicate[T]
	visible    []T
}

// New returns an empty collection that identifies items with idOf.
func New[T any](idOf func(T) int64) *Collection[T] {
	return &Collection[T]{
		idOf:       idOf,
		predicates: map[string]Predicate[T]{},
	}
}

// SetMaster replaces the master list and recomputes the visible subset.
// It does not touch any selection kept by callers.
func (c *Collection[T]) SetMaster(items []T) {
	c.master = append([]T(nil), items...)
	c.recompute()
}

// SetPredicate installs or replaces the predicate under key.
func (c *Collection[T]) SetPredicate(key string, pred Predicate[T]) {
	if pred == nil {
		c.ClearPredicate(key)
		return
	}
	c.predicates[key] = pred
	c.recompute()
}

// ClearPredicate removes the predicate under key, if any.
func (c *Collection[T]) ClearPredicate(key string) {
	if _, ok := c.predicates[key]; !ok {
		return
	}
	delete(c.predicates, key)
	c.recompute()
}

// HasPredicate reports whether a predicate is installed under key.
func (c *Collection[T]) HasPredicate(key string) bool {
	_, ok := c.predicates[key]
	return ok
}

// Master returns a copy of the master list.
func (c *Collection[T]) Master() []T {
	return append([]T(nil), c.master...)
}

// Visible returns a copy of the visible subset in master order.
func (c *Collection[T]) Visible() []T {
	return append([]T(nil), c.visible...)
}

// VisibleIDs returns the ids of the visible subset in display order.
func (c *Collection[T]) VisibleIDs() []int64 {
	ids := make([]int64, len(c.visible))
	for i, item := range c.visible {
		ids[i] = c.idOf(item)
	}
	return ids
}

// At returns the visible item at a display index.
func (c *Collection[T]) At(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(c.visible) {
		return zero, false
	}
	return c.visible[index], true
}

// Len returns the number of visible items.
func (c *Collection[T]) Len() int {
	return len(c.visible)
}

// MasterLen returns the number of items in the master list.
func (c *Collection[T]) MasterLen() int {
	return len(c.master)
}

func (c *Collection[T]) recompute() {
	keys := make([]string, 0, len(c.predicates))
	for key := range c.predicates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	visible := make([]T, 0, len(c.master))
	for _, item := range c.master {
		if c.matches(item, keys) {
			visible = append(visible, item)
		}
	}
	c.visible = visible
}

func (c *Collection[T]) matches(item T, keys []string) bool {
	for _, key := range keys {
		if !c.predicates[key](item) {
			return false
		}
	}
	return true
}
