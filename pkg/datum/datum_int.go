package datum

// Int wraps Datum[int] with convenience methods for counter state.
type Int struct {
	*Datum[int]
}

// NewInt creates an Int container with the given initial value.
func NewInt(initial int, opts ...Option) *Int {
	return &Int{New(initial, opts...)}
}

// Inc increments the value by 1.
func (d *Int) Inc() {
	d.Update(func(n int) int { return n + 1 })
}

// Dec decrements the value by 1.
func (d *Int) Dec() {
	d.Update(func(n int) int { return n - 1 })
}

// Add adds the given value.
func (d *Int) Add(n int) {
	d.Update(func(v int) int { return v + n })
}

// Float64 wraps Datum[float64] with convenience methods for numeric state.
type Float64 struct {
	*Datum[float64]
}

// NewFloat64 creates a Float64 container with the given initial value.
func NewFloat64(initial float64, opts ...Option) *Float64 {
	return &Float64{New(initial, opts...)}
}

// Add adds the given value.
func (d *Float64) Add(n float64) {
	d.Update(func(v float64) float64 { return v + n })
}

// Scale multiplies by the given factor.
func (d *Float64) Scale(n float64) {
	d.Update(func(v float64) float64 { return v * n })
}
