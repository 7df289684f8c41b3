package pulseox

import "github.com/rs/zerolog"

// An Option configures a device.
type Option func(d *Device) Option

// WithCalibration replaces the engine constants. By default,
// DefaultCalibration is used.
func WithCalibration(c Calibration) Option {
	return func(d *Device) Option {
		old := d.cal
		d.cal = c
		return WithCalibration(old)
	}
}

// WithLogger sets the logger for measurement diagnostics. By default,
// nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) Option {
		old := d.log
		d.log = l
		return WithLogger(old)
	}
}
