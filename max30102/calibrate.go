package max30102

import (
	"fmt"
	"time"
)

const (
	calStep   = 0.5
	calMax    = 5.0
	calSettle = 40 * time.Millisecond
)

// Calibrate auto-calibrates the current of each LED. The IR LED, then the
// red LED, is raised in 0.5 mA steps up to 5 mA until the mean of a FIFO
// batch reaches target (0.0 - 1.0) of the full scale. The IR LED is skipped
// in heart-rate mode.
func (d *Device) Calibrate(target float64) (irAmp, redAmp float64, err error) {
	if _, err = d.Options(
		IRPulseAmp(irAmp),
		RedPulseAmp(redAmp),
	); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
	}
	l, err := d.Layout()
	if err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
	}
	full := float64(uint32(maxADC) >> l.Shift)

	var batch []Sample
	ir := func(s Sample) uint32 { return s.IR }
	red := func(s Sample) uint32 { return s.Red }

	for l.HasIR() && mean(batch, ir)/full < target {
		if irAmp >= calMax {
			break
		}
		irAmp += calStep

		if batch, err = d.calibrationBatch(IRPulseAmp(irAmp)); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
	}

	batch = nil
	for mean(batch, red)/full < target {
		if redAmp >= calMax {
			break
		}
		redAmp += calStep

		if batch, err = d.calibrationBatch(RedPulseAmp(redAmp)); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
	}

	d.log.Info().
		Float64("ir_mA", irAmp).
		Float64("red_mA", redAmp).
		Msg("calibration")

	return irAmp, redAmp, nil
}

func (d *Device) calibrationBatch(opt Option) ([]Sample, error) {
	if _, err := d.Options(opt); err != nil {
		return nil, err
	}
	if err := d.Drain(); err != nil {
		return nil, err
	}
	d.delay(calSettle)

	batch, _, err := d.ReadSamples(FIFODepth)
	return batch, err
}

func mean(a []Sample, ch func(Sample) uint32) float64 {
	if len(a) == 0 {
		return 0
	}

	r := 0.0
	for _, v := range a {
		r += float64(ch(v))
	}

	return r / float64(len(a))
}
