package pulseox

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestDetectorEvents(t *testing.T) {
	p := newDetector(20, 300000)

	var peaks, valleys []int
	for i, dev := range pulseDeviations(3) {
		switch p.check(dev) {
		case peak:
			peaks = append(peaks, i)
		case valley:
			valleys = append(valleys, i)
		}
	}

	if want := []int{20, 62, 104}; !reflect.DeepEqual(peaks, want) {
		t.Errorf("peaks at %v, want %v", peaks, want)
	}
	if want := []int{41, 83, 125}; !reflect.DeepEqual(valleys, want) {
		t.Errorf("valleys at %v, want %v", valleys, want)
	}
	if p.peaks != 3 || p.valleys != 3 {
		t.Errorf("counts = %d/%d, want 3/3", p.peaks, p.valleys)
	}
}

func TestDetectorSettle(t *testing.T) {
	p := newDetector(3, 300000)

	// A rise inside the settle window only raises the provisional peak.
	for i, dev := range []float64{1, 9, 2} {
		if e := p.check(dev); e != none {
			t.Fatalf("check(%v) at %d = %v, want none", dev, i, e)
		}
	}
	if e := p.check(9); e != none {
		t.Errorf("check(9) = %v, want none", e)
	}
	if e := p.check(10); e != peak {
		t.Errorf("check(10) = %v, want peak", e)
	}
}

func TestDetectorIdempotent(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	devs := make([]float64, 2000)
	for i := range devs {
		devs[i] = float64(rnd.Intn(5000))
	}

	run := func(p *detector) []event {
		var events []event
		for _, dev := range devs {
			events = append(events, p.check(dev))
		}
		return events
	}

	p := newDetector(20, 300000)
	first := run(p)
	peaks := p.peaks

	p.reset()
	second := run(p)

	if !reflect.DeepEqual(first, second) {
		t.Error("event sequences differ after reset")
	}
	if p.peaks != peaks {
		t.Errorf("peaks = %d, then %d", peaks, p.peaks)
	}
	if peaks == 0 {
		t.Error("no peaks in noise")
	}
}

func TestDetectorValleyCeiling(t *testing.T) {
	p := newDetector(1, 10)
	p.check(0)
	if e := p.check(1); e != peak {
		t.Fatalf("check(1) = %v, want peak", e)
	}

	// Deviations above the ceiling never set a lower provisional valley.
	p.check(50)
	if e := p.check(20); e != none {
		t.Errorf("check(20) = %v, want none", e)
	}
	if e := p.check(9); e != valley {
		t.Errorf("check(9) = %v, want valley", e)
	}
}
