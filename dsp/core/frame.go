package core

// EnsureLen returns buf resliced to n, reallocating only when its capacity
// is too small. Contents are not preserved across a reallocation.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) < n {
		return make([]float64, n)
	}

	return buf[:n]
}

// ZeroPad copies src into the head of dst and zeroes the rest. It returns
// the number of samples copied.
func ZeroPad(dst, src []float64) int {
	n := copy(dst, src)
	clear(dst[n:])

	return n
}

// SlideOverlap refreshes an overlap-add state after one hop: state[i]
// takes frame[hop+i] while that index is inside frame, and 0 after it.
// Denormals are flushed on the way in.
func SlideOverlap(state, frame []float64, hop int) {
	n := 0
	if hop < len(frame) {
		n = copy(state, frame[hop:])
	}

	for i := range n {
		state[i] = FlushDenormals(state[i])
	}

	clear(state[n:])
}
