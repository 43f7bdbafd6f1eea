package forecast

// LagWindow is a fixed-size ring buffer holding the most recent nlags values,
// observed or predicted. Its length never changes after construction.
type LagWindow struct {
	buf  []float64
	head int // index of the oldest value
}

// NewLagWindow creates a window holding the last len(initial) values in order.
func NewLagWindow(initial []float64) *LagWindow {
	buf := make([]float64, len(initial))
	copy(buf, initial)
	return &LagWindow{buf: buf}
}

// Len returns the window size
func (w *LagWindow) Len() int {
	return len(w.buf)
}

// Push drops the oldest value and appends v as the newest.
func (w *LagWindow) Push(v float64) {
	if len(w.buf) == 0 {
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

// Values copies the window into dst oldest-first and returns it. dst is grown when
// its capacity is too small.
func (w *LagWindow) Values(dst []float64) []float64 {
	if cap(dst) < len(w.buf) {
		dst = make([]float64, len(w.buf))
	}
	dst = dst[:len(w.buf)]
	n := copy(dst, w.buf[w.head:])
	copy(dst[n:], w.buf[:w.head])
	return dst
}
