package pulseox

import (
	"context"
	"fmt"

	"github.com/darkmoon/pulseox/max30102"
)

// rateCounter counts pulse peaks from the first confirmed one and turns
// the sample span into beats per minute.
type rateCounter struct {
	cal   Calibration
	peaks int
	start int
}

// observe records an event at sample index i and reports whether enough
// peaks were seen.
func (r *rateCounter) observe(e event, i int) bool {
	if e != peak {
		return false
	}
	r.peaks++
	if r.peaks == 1 {
		r.start = i
	}
	return r.peaks >= r.cal.TargetPeaks
}

// rate returns the heart rate when the search ended at sample index i.
func (r *rateCounter) rate(i int) (bpm int, stable bool) {
	elapsed := i - r.start
	if r.peaks == 0 || r.peaks < r.cal.MinPeaks || elapsed <= 0 {
		return 0, false
	}
	return heartRate(r.cal, elapsed), true
}

// heartRate converts the span of TargetPeaks peaks into beats per minute.
func heartRate(c Calibration, elapsed int) int {
	return int(float64(c.TargetPeaks) * c.SampleRate / float64(elapsed) * 60 / c.Divisor)
}

// HeartRate estimates the heart rate, assuming a finger is already on the
// sensor. It reads until TargetPeaks pulse peaks are confirmed or
// MaxSamples samples were read. SpO2 is left at 0.
func (d *Device) HeartRate(ctx context.Context) (Result, error) {
	var res Result

	l, err := d.start(&res)
	if err != nil {
		return res, err
	}
	err = d.heartRate(ctx, l, &res)

	return res, err
}

func (d *Device) heartRate(ctx context.Context, l max30102.Layout, res *Result) error {
	h := newHistory(d.cal.Window)
	p := newDetector(d.cal.SettleCount, d.cal.ValleyCeiling)
	r := rateCounter{cal: d.cal}

	i := 0
	for i < d.cal.MaxSamples {
		s, err := d.next(ctx, l)
		if err != nil {
			return fmt.Errorf("pulseox: could not get heart rate: %w", err)
		}
		h.add(float64(s.Red))
		if i < d.cal.Window {
			i++
			continue
		}

		e := p.check(h.deviation())
		if r.observe(e, i) {
			break
		}
		if e == peak && r.peaks == 1 {
			d.log.Info().Int("sample", i).Msg("measuring")
		}
		i++
	}

	res.Peaks = r.peaks
	res.HeartRate, res.Stable = r.rate(i)
	if !res.Stable {
		d.log.Warn().
			Int("peaks", r.peaks).
			Int("samples", i).
			Msg("unstable signal")
	}

	return nil
}
