package pulseox

import (
	"errors"

	"github.com/darkmoon/pulseox/max30102"
)

// Compile-time check.
var _ Sensor = (*max30102.Device)(nil)

var errSensor = errors.New("sensor error")

var (
	spo2Layout = max30102.Layout{Mode: max30102.ModeSpO2, Stride: 6}
	hrLayout   = max30102.Layout{Mode: max30102.ModeHR, Stride: 3}
)

// fakeSensor serves sample(i) on the i-th read.
type fakeSensor struct {
	layout  max30102.Layout
	sample  func(i int) max30102.Sample
	reads   int
	overrun bool
	failAt  int
	temp    float64
	tempErr error
}

func newFakeSensor(l max30102.Layout, sample func(i int) max30102.Sample) *fakeSensor {
	return &fakeSensor{
		layout: l,
		sample: sample,
		failAt: -1,
	}
}

func (f *fakeSensor) PendingCount() (int, bool, error) {
	return 0, f.overrun, nil
}

func (f *fakeSensor) Layout() (max30102.Layout, error) {
	return f.layout, nil
}

func (f *fakeSensor) ReadSample(l max30102.Layout) (max30102.Sample, error) {
	i := f.reads
	f.reads++
	if i == f.failAt {
		return max30102.Sample{}, errSensor
	}
	s := f.sample(i)
	if !l.HasIR() {
		s.IR = 0
	}
	return s, nil
}

func (f *fakeSensor) Temperature() (float64, error) {
	return f.temp, f.tempErr
}

func constant(v uint32) func(int) max30102.Sample {
	return func(int) max30102.Sample {
		return max30102.Sample{Red: v, IR: v}
	}
}

// testCalibration is the default calibration without delays.
func testCalibration() Calibration {
	c := DefaultCalibration()
	c.FingerPoll = 0
	c.Settle = 0
	return c
}

// pulseDeviations returns cycles of a deviation signal with one peak at
// index 20 and one valley at index 41 of every 42 values.
func pulseDeviations(cycles int) []float64 {
	var d []float64
	for k := 0; k < cycles; k++ {
		for i := 0; i < 20; i++ {
			d = append(d, 1)
		}
		d = append(d, 2)
		for i := 0; i < 20; i++ {
			d = append(d, 5)
		}
		d = append(d, 4)
	}
	return d
}

// pulseStream returns red samples around base whose deviation over a
// window of two follows devs from the third sample on.
func pulseStream(base uint32, devs []float64) []uint32 {
	r := []uint32{base, base}
	v := int64(base)
	for t, d := range devs {
		if t%2 == 0 {
			v += int64(d)
		} else {
			v -= int64(d)
		}
		r = append(r, uint32(v))
	}
	return r
}

func fromSlice(reds []uint32) func(int) max30102.Sample {
	return func(i int) max30102.Sample {
		if i >= len(reds) {
			i = len(reds) - 1
		}
		return max30102.Sample{Red: reds[i], IR: reds[i]}
	}
}
