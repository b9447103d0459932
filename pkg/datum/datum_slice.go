package datum

// Slice wraps Datum[[]T] with convenience methods for list state.
//
// Append and RemoveAt produce a new slice value, so the normal deep
// comparison sees the change. SetAt edits the backing array in place and
// publishes through the force path, because comparing a slice against its
// own backing array would always report equal.
type Slice[T any] struct {
	*Datum[[]T]
}

// NewSlice creates a Slice container with the given initial elements.
func NewSlice[T any](initial []T, opts ...Option) *Slice[T] {
	return &Slice[T]{New(initial, opts...)}
}

// Append adds v to the end of the list.
func (d *Slice[T]) Append(v T) {
	d.Update(func(items []T) []T {
		out := make([]T, len(items), len(items)+1)
		copy(out, items)
		return append(out, v)
	})
}

// SetAt replaces the element at index i in place. Out-of-range indices are
// ignored.
func (d *Slice[T]) SetAt(i int, v T) {
	if i < 0 || i >= d.Len() {
		return
	}
	d.ForceUpdate(func(items []T) []T {
		items[i] = v
		return items
	})
}

// RemoveAt deletes the element at index i. Out-of-range indices are ignored.
func (d *Slice[T]) RemoveAt(i int) {
	d.Update(func(items []T) []T {
		if i < 0 || i >= len(items) {
			return items
		}
		out := make([]T, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...)
	})
}

// Clear empties the list.
func (d *Slice[T]) Clear() {
	d.Set(nil)
}

// Len returns the current number of elements.
func (d *Slice[T]) Len() int {
	return len(d.Get())
}
