package pulseox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darkmoon/pulseox/max30102"
	"github.com/rs/zerolog"
)

var (
	// ErrNotDetected is thrown when finger detection is given up before a
	// finger is placed on the sensor.
	ErrNotDetected = errors.New("pulseox: nothing detected on the sensor")
	// ErrCalibration is thrown when a Calibration cannot drive a
	// measurement.
	ErrCalibration = errors.New("pulseox: invalid calibration")
	// ErrWrongDevice is thrown when trying to convert the sensor to a
	// *max30102.Device and it is something else.
	ErrWrongDevice = errors.New("pulseox: wrong device")
)

// Sensor is the sample source of a Device. *max30102.Device implements
// it.
type Sensor interface {
	PendingCount() (n int, overrun bool, err error)
	Layout() (max30102.Layout, error)
	ReadSample(l max30102.Layout) (max30102.Sample, error)
	Temperature() (float64, error)
}

// Result is the outcome of a measurement.
type Result struct {
	// HeartRate in beats per minute, 0 if the signal was unstable.
	HeartRate int
	// SpO2 in percent, 0 if it could not be estimated.
	SpO2 int
	// Peaks is the number of confirmed pulse peaks.
	Peaks int
	// Stable is false when too few peaks were confirmed for a heart rate.
	Stable bool
	// Overrun is true if the sensor FIFO dropped samples before the
	// measurement started.
	Overrun bool
}

// Device estimates heart rate and SpO2 from a sensor.
type Device struct {
	sensor Sensor
	cal    Calibration
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New returns a new estimation engine reading from sensor.
func New(sensor Sensor, opts ...Option) (*Device, error) {
	d := &Device{
		sensor: sensor,
		cal:    DefaultCalibration(),
		log:    zerolog.Nop(),
		sleep:  sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.cal.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Options set different configuration options and returns the previous
// value of the last option passed. If the resulting calibration is invalid,
// every option is rolled back.
func (d *Device) Options(options ...Option) (Option, error) {
	undos := make([]Option, len(options))
	for i, opt := range options {
		undos[i] = opt(d)
	}
	if err := d.cal.Validate(); err != nil {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i](d)
		}
		return nil, err
	}
	if len(undos) == 0 {
		return nil, nil
	}

	return undos[len(undos)-1], nil
}

// Calibration returns the constants in use.
func (d *Device) Calibration() Calibration {
	return d.cal
}

// Measure waits for a finger, estimates the heart rate and then the SpO2.
// A cancelled ctx stops the measurement between two samples. An unstable
// heart-rate signal is not an error; it is reported by Result.Stable.
func (d *Device) Measure(ctx context.Context) (Result, error) {
	var res Result

	l, err := d.start(&res)
	if err != nil {
		return res, err
	}
	if err := d.detectFinger(ctx, l); err != nil {
		return res, err
	}
	if err := d.heartRate(ctx, l, &res); err != nil {
		return res, err
	}
	if res.SpO2, err = d.spo2(ctx, l); err != nil {
		return res, err
	}

	d.log.Info().
		Int("heart_rate", res.HeartRate).
		Int("spo2", res.SpO2).
		Int("peaks", res.Peaks).
		Bool("stable", res.Stable).
		Bool("overrun", res.Overrun).
		Msg("measurement")

	return res, nil
}

// start reads the sample layout and the FIFO overrun flag.
func (d *Device) start(res *Result) (max30102.Layout, error) {
	_, overrun, err := d.sensor.PendingCount()
	if err != nil {
		return max30102.Layout{}, fmt.Errorf("pulseox: could not read sensor: %w", err)
	}
	res.Overrun = overrun

	l, err := d.sensor.Layout()
	if err != nil {
		return max30102.Layout{}, fmt.Errorf("pulseox: could not read sensor: %w", err)
	}
	return l, nil
}

// next reads the next sample unless ctx is done.
func (d *Device) next(ctx context.Context, l max30102.Layout) (max30102.Sample, error) {
	if err := ctx.Err(); err != nil {
		return max30102.Sample{}, err
	}
	s, err := d.sensor.ReadSample(l)
	if err != nil {
		return max30102.Sample{}, fmt.Errorf("pulseox: could not read sample: %w", err)
	}
	return s, nil
}

// Temperature returns the die temperature of the sensor in °C.
func (d *Device) Temperature() (float64, error) {
	c, err := d.sensor.Temperature()
	if err != nil {
		return 0, fmt.Errorf("pulseox: could not get temperature: %w", err)
	}
	return c, nil
}

// ToMax30102 returns the underlying MAX30102 to access low level
// functions. Check the package pulseox/max30102 for detailed behavior.
func (d *Device) ToMax30102() (*max30102.Device, error) {
	device, ok := d.sensor.(*max30102.Device)
	if !ok {
		return nil, ErrWrongDevice
	}

	return device, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
