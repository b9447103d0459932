package datum

// Map wraps Datum[map[K]V] with convenience methods for keyed state.
//
// SetKey and DeleteKey mutate the map in place and publish through the force
// path: the stored map and the mutated map are the same reference, so both
// comparison modes would report the edit as a no-op.
type Map[K comparable, V any] struct {
	*Datum[map[K]V]
}

// NewMap creates a Map container. If initial is nil, an empty map is used.
func NewMap[K comparable, V any](initial map[K]V, opts ...Option) *Map[K, V] {
	if initial == nil {
		initial = make(map[K]V)
	}
	return &Map[K, V]{New(initial, opts...)}
}

// SetKey stores value under key.
func (d *Map[K, V]) SetKey(key K, value V) {
	d.ForceUpdate(func(m map[K]V) map[K]V {
		if m == nil {
			m = make(map[K]V)
		}
		m[key] = value
		return m
	})
}

// DeleteKey removes key. Absent keys are ignored.
func (d *Map[K, V]) DeleteKey(key K) {
	if !d.HasKey(key) {
		return
	}
	d.ForceUpdate(func(m map[K]V) map[K]V {
		delete(m, key)
		return m
	})
}

// GetKey returns the value for key and whether it was present.
func (d *Map[K, V]) GetKey(key K) (V, bool) {
	v, ok := d.Get()[key]
	return v, ok
}

// HasKey reports whether key is present.
func (d *Map[K, V]) HasKey(key K) bool {
	_, ok := d.GetKey(key)
	return ok
}

// Len returns the current number of keys.
func (d *Map[K, V]) Len() int {
	return len(d.Get())
}
