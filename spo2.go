package pulseox

import (
	"context"
	"fmt"

	"github.com/darkmoon/pulseox/max30102"
)

// ratioOfRatios estimates the SpO2 from the peak and mean of both
// channels over a window. ok is false when either channel has no mean or
// the IR channel has no pulsatile component.
func ratioOfRatios(meanRed, maxRed, meanIR, maxIR float64) (spo2 float64, ok bool) {
	if meanRed == 0 || meanIR == 0 {
		return 0, false
	}
	ir := (maxIR - meanIR) / meanIR
	if ir == 0 {
		return 0, false
	}

	spo2 = 110 - 25*((maxRed-meanRed)/meanRed)/ir
	if spo2 > 100 {
		spo2 = 100
	}
	return spo2, true
}

// SpO2 estimates the blood oxygen saturation in percent, assuming a finger
// is already on the sensor. It returns 0 in heart-rate mode, where there
// is no IR channel.
func (d *Device) SpO2(ctx context.Context) (int, error) {
	l, err := d.sensor.Layout()
	if err != nil {
		return 0, fmt.Errorf("pulseox: could not read sensor: %w", err)
	}
	return d.spo2(ctx, l)
}

func (d *Device) spo2(ctx context.Context, l max30102.Layout) (int, error) {
	if !l.HasIR() {
		d.log.Debug().Stringer("mode", l.Mode).Msg("no IR channel, skipping SpO2")
		return 0, nil
	}

	best := 0.0
	for k := 0; k < d.cal.SpO2Repeats; k++ {
		var sumRed, sumIR, maxRed, maxIR float64
		for i := 0; i < d.cal.SpO2Window; i++ {
			s, err := d.next(ctx, l)
			if err != nil {
				return 0, fmt.Errorf("pulseox: could not get SpO2: %w", err)
			}
			red, ir := float64(s.Red), float64(s.IR)
			sumRed += red
			sumIR += ir
			maxRed = max(maxRed, red)
			maxIR = max(maxIR, ir)
		}

		n := float64(d.cal.SpO2Window)
		spo2, ok := ratioOfRatios(sumRed/n, maxRed, sumIR/n, maxIR)
		if !ok {
			d.log.Debug().Int("repeat", k).Msg("flat signal")
			continue
		}
		best = max(best, spo2)
	}

	return int(best), nil
}
