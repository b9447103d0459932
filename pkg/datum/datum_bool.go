package datum

// Bool wraps Datum[bool] with convenience methods for flag state.
type Bool struct {
	*Datum[bool]
}

// NewBool creates a Bool container with the given initial value.
func NewBool(initial bool, opts ...Option) *Bool {
	return &Bool{New(initial, opts...)}
}

// Toggle inverts the value.
func (d *Bool) Toggle() {
	d.Update(func(b bool) bool { return !b })
}

// SetTrue sets the value to true.
func (d *Bool) SetTrue() {
	d.Set(true)
}

// SetFalse sets the value to false.
func (d *Bool) SetFalse() {
	d.Set(false)
}
