package pulseox

// history is a fixed-length window of the most recent samples.
type history struct {
	buffer []float64
	idx    int
	n      int
}

func newHistory(size int) *history {
	return &history{
		buffer: make([]float64, size),
	}
}

func (h *history) add(entries ...float64) {
	for _, e := range entries {
		h.buffer[h.idx] = e
		h.idx++
		h.idx %= len(h.buffer)

		if h.n < len(h.buffer) {
			h.n++
		}
	}
}

func (h *history) full() bool {
	return h.n == len(h.buffer)
}

func (h *history) mean() float64 {
	if h.n == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.buffer[:h.n] {
		sum += v
	}
	return sum / float64(h.n)
}

// deviation returns the summed absolute deviation of the window from its
// mean.
func (h *history) deviation() float64 {
	mean := h.mean()

	sum := 0.0
	for _, v := range h.buffer[:h.n] {
		if v < mean {
			sum += mean - v
		} else {
			sum += v - mean
		}
	}
	return sum
}

func (h *history) reset() {
	h.idx = 0
	h.n = 0
}
