// Package selection implements toggle, range and bulk selection over a
// displayed ordering of entity ids.
package selection

import "sort"

const noAnchor = -1

// Controller tracks selected ids and the anchor of the last click.
//
// Selection is keyed by id, so ids stay selected when they are filtered
// out of view. The anchor is a raw display position: when the ordering
// changes between clicks without a Reset, the next range is resolved
// against the new ordering at the same position.
type Controller struct {
	selected map[int64]struct{}
	anchor   int
}

// New returns an empty controller.
func New() *Controller {
	return &Controller{
		selected: map[int64]struct{}{},
		anchor:   noAnchor,
	}
}

// Toggle flips membership of id and moves the anchor to index.
func (c *Controller) Toggle(id int64, index int) {
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
	c.anchor = index
}

// ExtendRange adds every visible id between the anchor and index,
// inclusive, and moves the anchor to index. It never deselects. Without
// an anchor only id is added.
func (c *Controller) ExtendRange(id int64, index int, visible []int64) {
	if c.anchor == noAnchor {
		c.selected[id] = struct{}{}
		c.anchor = index
		return
	}
	lo, hi := c.rangeBounds(index, len(visible))
	for i := lo; i <= hi; i++ {
		c.selected[visible[i]] = struct{}{}
	}
	c.anchor = index
}

// rangeBounds resolves the anchor against the current ordering by position.
// Re-resolving the anchor by id would change only this function.
func (c *Controller) rangeBounds(index, n int) (int, int) {
	lo, hi := c.anchor, index
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// SelectAllVisible adds every visible id.
func (c *Controller) SelectAllVisible(visible []int64) {
	for _, id := range visible {
		c.selected[id] = struct{}{}
	}
}

// SelectNoneVisible removes every visible id; hidden ids stay selected.
func (c *Controller) SelectNoneVisible(visible []int64) {
	for _, id := range visible {
		delete(c.selected, id)
	}
}

// Reset clears the selection and the anchor. Call it when the backing list
// is reloaded, not when it is only refiltered.
func (c *Controller) Reset() {
	c.selected = map[int64]struct{}{}
	c.anchor = noAnchor
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id int64) bool {
	_, ok := c.selected[id]
	return ok
}

// Len returns the number of selected ids.
func (c *Controller) Len() int {
	return len(c.selected)
}

// IDs returns the selected ids in ascending order.
func (c *Controller) IDs() []int64 {
	ids := make([]int64, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Anchor returns the anchor index and whether one is set.
func (c *Controller) Anchor() (int, bool) {
	return c.anchor, c.anchor != noAnchor
}

// CountVisible returns how many of the visible ids are selected.
func (c *Controller) CountVisible(visible []int64) int {
	n := 0
	for _, id := range visible {
		if _, ok := c.selected[id]; ok {
			n++
		}
	}
	return n
}
