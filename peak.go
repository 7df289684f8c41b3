package pulseox

type event int

const (
	none event = iota
	peak
	valley
)

func (e event) String() string {
	switch e {
	case peak:
		return "peak"
	case valley:
		return "valley"
	}
	return "none"
}

// detector alternates between finding a peak and a valley in a deviation
// signal. Each state first watches settle values to set a provisional
// extremum, then fires on the first value beyond it.
type detector struct {
	settle  int
	ceiling float64

	findingValley bool
	watched       int
	peak          float64
	valley        float64

	peaks   int
	valleys int
}

func newDetector(settle int, ceiling float64) *detector {
	p := &detector{
		settle:  settle,
		ceiling: ceiling,
	}
	p.reset()
	return p
}

func (p *detector) check(dev float64) event {
	if !p.findingValley {
		if p.watched < p.settle {
			p.peak = max(p.peak, dev)
			p.watched++
			return none
		}
		if dev > p.peak {
			p.peaks++
			p.findingValley = true
			p.peak = 0
			p.watched = 0
			return peak
		}
		return none
	}

	if p.watched < p.settle {
		p.valley = min(p.valley, dev)
		p.watched++
		return none
	}
	if dev < p.valley {
		p.valleys++
		p.findingValley = false
		p.valley = p.ceiling
		p.watched = 0
		return valley
	}
	return none
}

func (p *detector) reset() {
	p.findingValley = false
	p.watched = 0
	p.peak = 0
	p.valley = p.ceiling
	p.peaks = 0
	p.valleys = 0
}
