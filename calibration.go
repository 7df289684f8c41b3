package pulseox

import (
	"fmt"
	"time"
)

// Calibration holds the empirically tuned constants of the estimation
// engine. They are calibration points for a particular sensor, sample rate
// and mounting and need hardware-specific tuning.
type Calibration struct {
	// FingerThreshold is the red intensity a sample must exceed for a
	// finger to be considered present.
	FingerThreshold uint32 `yaml:"finger_threshold"`
	// FingerPoll is the delay between finger detection reads.
	FingerPoll time.Duration `yaml:"finger_poll"`
	// Settle is how long the signal is left to stabilize once a finger is
	// detected.
	Settle time.Duration `yaml:"settle"`

	// Window is the length of the red sample history.
	Window int `yaml:"window"`
	// SettleCount is how many deviations each detector state watches
	// before it can declare an event.
	SettleCount int `yaml:"settle_count"`
	// ValleyCeiling is the provisional valley a valley search starts from.
	ValleyCeiling float64 `yaml:"valley_ceiling"`
	// MaxSamples bounds the heart-rate search.
	MaxSamples int `yaml:"max_samples"`
	// TargetPeaks ends the heart-rate search.
	TargetPeaks int `yaml:"target_peaks"`
	// MinPeaks is the least number of peaks for a stable measurement.
	MinPeaks int `yaml:"min_peaks"`
	// SampleRate and Divisor convert a sample span into beats per minute.
	SampleRate float64 `yaml:"sample_rate"`
	Divisor    float64 `yaml:"divisor"`

	// SpO2Window is the number of samples per SpO2 estimate.
	SpO2Window int `yaml:"spo2_window"`
	// SpO2Repeats is the number of SpO2 estimates, the highest one wins.
	SpO2Repeats int `yaml:"spo2_repeats"`
}

// DefaultCalibration returns the constants tuned for a MAX30102 at 100
// samples/s with 18-bit resolution.
func DefaultCalibration() Calibration {
	return Calibration{
		FingerThreshold: 180000,
		FingerPoll:      200 * time.Millisecond,
		Settle:          8 * time.Second,

		Window:        30,
		SettleCount:   20,
		ValleyCeiling: 300000,
		MaxSamples:    3000,
		TargetPeaks:   15,
		MinPeaks:      12,
		SampleRate:    3000,
		Divisor:       22,

		SpO2Window:  50,
		SpO2Repeats: 3,
	}
}

// Validate checks that the calibration can drive a measurement.
func (c Calibration) Validate() error {
	switch {
	case c.Window < 1:
		return fmt.Errorf("%w: window %d", ErrCalibration, c.Window)
	case c.SettleCount < 0:
		return fmt.Errorf("%w: settle count %d", ErrCalibration, c.SettleCount)
	case c.MaxSamples <= c.Window:
		return fmt.Errorf("%w: max samples %d not above window %d", ErrCalibration, c.MaxSamples, c.Window)
	case c.TargetPeaks < 1 || c.MinPeaks < 1 || c.MinPeaks > c.TargetPeaks:
		return fmt.Errorf("%w: peaks %d/%d", ErrCalibration, c.MinPeaks, c.TargetPeaks)
	case c.SampleRate <= 0 || c.Divisor <= 0:
		return fmt.Errorf("%w: rate %v/%v", ErrCalibration, c.SampleRate, c.Divisor)
	case c.SpO2Window < 1 || c.SpO2Repeats < 1:
		return fmt.Errorf("%w: spo2 %dx%d", ErrCalibration, c.SpO2Repeats, c.SpO2Window)
	case c.FingerPoll < 0 || c.Settle < 0:
		return fmt.Errorf("%w: negative delay", ErrCalibration)
	}
	return nil
}
