package pulseox

import (
	"context"
	"fmt"

	"github.com/darkmoon/pulseox/max30102"
)

// DetectFinger blocks until a finger is placed on the sensor and the
// signal had time to settle. It only gives up, with ErrNotDetected, when
// ctx is done.
func (d *Device) DetectFinger(ctx context.Context) error {
	l, err := d.sensor.Layout()
	if err != nil {
		return fmt.Errorf("pulseox: could not read sensor: %w", err)
	}
	return d.detectFinger(ctx, l)
}

func (d *Device) detectFinger(ctx context.Context, l max30102.Layout) error {
	d.log.Info().Msg("place finger")

	for {
		s, err := d.next(ctx, l)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrNotDetected, err)
			}
			return err
		}
		if err := d.sleep(ctx, d.cal.FingerPoll); err != nil {
			return fmt.Errorf("%w: %w", ErrNotDetected, err)
		}
		if s.Red > d.cal.FingerThreshold {
			break
		}
	}

	d.log.Info().Dur("settle", d.cal.Settle).Msg("finger detected")
	if err := d.sleep(ctx, d.cal.Settle); err != nil {
		return fmt.Errorf("%w: %w", ErrNotDetected, err)
	}

	return nil
}
