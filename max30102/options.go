package max30102

import "fmt"

// Option defines a functional option for the device.
type Option func(d *Device) (Option, error)

// Options set different configuration options and returns the previous value
// of the last option passed.
func (d *Device) Options(options ...Option) (Option, error) {
	var old Option
	var err error
	for _, opt := range options {
		old, err = opt(d)
		if err != nil {
			return nil, err
		}
	}

	return old, nil
}

// field is a bit-field of a register. mask is right-justified.
type field struct {
	reg   byte
	shift uint
	mask  byte
}

var (
	fieldAveraging  = field{FIFOCfg, 5, 0b111}
	fieldRollover   = field{FIFOCfg, 4, 0b1}
	fieldAlmostFull = field{FIFOCfg, 0, 0xF}
	fieldShutdown   = field{ModeCfg, 7, 0b1}
	fieldReset      = field{ModeCfg, 6, 0b1}
	fieldMode       = field{ModeCfg, 0, 0b111}
	fieldADCRange   = field{SpO2Cfg, 5, 0b11}
	fieldSampleRate = field{SpO2Cfg, 2, 0b111}
	fieldResolution = field{SpO2Cfg, 0, 0b11}
	fieldWrPtr      = field{FIFOWrPtr, 0, 0x1F}
	fieldOvfCount   = field{OvfCount, 0, 0x1F}
	fieldRdPtr      = field{FIFORdPtr, 0, 0x1F}
	fieldRedPA      = field{Led1PA, 0, 0xFF}
	fieldIRPA       = field{Led2PA, 0, 0xFF}
	fieldTempEnable = field{TempCfg, 0, 0b1}
)

func (i Interrupt) field() field {
	return field{i.enableReg(), uint(i), 0b1}
}

func (s Slot) field() (field, error) {
	switch s {
	case Slot1:
		return field{MultiLedModeS2S1, 0, 0b111}, nil
	case Slot2:
		return field{MultiLedModeS2S1, 4, 0b111}, nil
	case Slot3:
		return field{MultiLedModeS4S3, 0, 0b111}, nil
	case Slot4:
		return field{MultiLedModeS4S3, 4, 0b111}, nil
	}
	return field{}, fmt.Errorf("%w: slot %d", ErrOutOfRange, s)
}

// config replaces a field with v and returns the value it held before.
// Values wider than the field are rejected before the bus is touched.
func (d *Device) config(f field, v byte) (byte, error) {
	if v > f.mask {
		return 0, fmt.Errorf("%w: %#x does not fit in %#b", ErrOutOfRange, v, f.mask)
	}
	cfg, err := d.Read(f.reg)
	if err != nil {
		return 0, fmt.Errorf("could not get %#b from %#x: %w", f.mask<<f.shift, f.reg, err)
	}
	old := (cfg >> f.shift) & f.mask
	cfg &^= f.mask << f.shift
	cfg |= v << f.shift
	if err := d.Write(f.reg, cfg); err != nil {
		return 0, fmt.Errorf("could not set %#x in %#x: %w", v, f.reg, err)
	}

	return old, nil
}

func (d *Device) fieldValue(f field) (byte, error) {
	cfg, err := d.Read(f.reg)
	if err != nil {
		return 0, fmt.Errorf("could not get %#b from %#x: %w", f.mask<<f.shift, f.reg, err)
	}
	return (cfg >> f.shift) & f.mask, nil
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Mode sets the operation mode of the device and clears the FIFO.
func Mode(mode OpMode) Option {
	return func(d *Device) (Option, error) {
		if _, err := mode.Stride(); err != nil {
			return nil, fmt.Errorf("max30102: could not configure mode %#b: %w", byte(mode), err)
		}
		old, err := d.config(fieldMode, byte(mode))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure mode: %w", err)
		}

		if err := d.ClearFIFO(); err != nil {
			return nil, fmt.Errorf("max30102: could not configure mode: %w", err)
		}

		return Mode(OpMode(old)), nil
	}
}

// RedPulseAmp sets the pulse amplitude of the red LED. It accepts values
// from 0.0 to 51.0 mA and the value is rounded down to the nearest multiple of 0.2.
func RedPulseAmp(current float64) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldRedPA, ampByte(current))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure red LED pulse amplitude: %w", err)
		}

		return RedPulseAmp(float64(old) / 5), nil
	}
}

// IRPulseAmp sets the pulse amplitude of the IR LED. It accepts values
// from 0.0 to 51.0 mA and the value is rounded down to the nearest multiple of 0.2.
func IRPulseAmp(current float64) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldIRPA, ampByte(current))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure IR LED pulse amplitude: %w", err)
		}

		return IRPulseAmp(float64(old) / 5), nil
	}
}

func ampByte(current float64) byte {
	if current > 51 {
		current = 51
	}
	if current < 0 {
		current = 0
	}
	return byte(current * 5)
}

// PulseWidth sets the LED pulse width, which also sets the ADC resolution.
func PulseWidth(pw Resolution) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldResolution, byte(pw))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure pulse width: %w", err)
		}

		return PulseWidth(Resolution(old)), nil
	}
}

// SampleRate sets the SpO2 sample rate control of the device.
func SampleRate(sr SampleRateControl) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldSampleRate, byte(sr))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure sample rate: %w", err)
		}

		return SampleRate(SampleRateControl(old)), nil
	}
}

// Range sets the SpO2 ADC full-scale range.
func Range(r ADCRange) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldADCRange, byte(r))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure ADC range: %w", err)
		}

		return Range(ADCRange(old)), nil
	}
}

// SampleAveraging sets how many samples are averaged into one FIFO sample.
func SampleAveraging(a Averaging) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldAveraging, byte(a))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure sample averaging: %w", err)
		}

		return SampleAveraging(Averaging(old)), nil
	}
}

// Rollover lets the FIFO overwrite old samples when full.
func Rollover(enable bool) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldRollover, b2u(enable))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure FIFO roll-over: %w", err)
		}

		return Rollover(old == 1), nil
	}
}

// InterruptEnable enables or disables interrupt sources.
func InterruptEnable(enable bool, sources ...Interrupt) Option {
	return func(d *Device) (Option, error) {
		var was []Interrupt
		for _, i := range sources {
			old, err := d.config(i.field(), b2u(enable))
			if err != nil {
				return nil, fmt.Errorf("max30102: could not configure interrupt %v: %w", i, err)
			}
			if old == 1 {
				was = append(was, i)
			}
		}

		return restoreInterrupts(sources, was), nil
	}
}

func restoreInterrupts(sources, enabled []Interrupt) Option {
	return func(d *Device) (Option, error) {
		if _, err := InterruptEnable(false, sources...)(d); err != nil {
			return nil, err
		}
		return InterruptEnable(true, enabled...)(d)
	}
}

// AlmostFullValue sets when the AlmostFull interrupt should be triggered. It
// can take values from 0 to 15.
func AlmostFullValue(left byte) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldAlmostFull, left)
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure almost full value to %d: %w", left, err)
		}

		return AlmostFullValue(old), nil
	}
}

// WritePointer sets the FIFO write pointer (0 to 31).
func WritePointer(p byte) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldWrPtr, p)
		if err != nil {
			return nil, fmt.Errorf("max30102: could not set write pointer to %d: %w", p, err)
		}

		return WritePointer(old), nil
	}
}

// ReadPointer sets the FIFO read pointer (0 to 31).
func ReadPointer(p byte) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldRdPtr, p)
		if err != nil {
			return nil, fmt.Errorf("max30102: could not set read pointer to %d: %w", p, err)
		}

		return ReadPointer(old), nil
	}
}

// OverflowCounter sets the FIFO overflow counter (0 to 31).
func OverflowCounter(n byte) Option {
	return func(d *Device) (Option, error) {
		old, err := d.config(fieldOvfCount, n)
		if err != nil {
			return nil, fmt.Errorf("max30102: could not set overflow counter to %d: %w", n, err)
		}

		return OverflowCounter(old), nil
	}
}

// SlotLED assigns an LED to a multi-LED time slot.
func SlotLED(s Slot, led LED) Option {
	return func(d *Device) (Option, error) {
		f, err := s.field()
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure slot: %w", err)
		}
		old, err := d.config(f, byte(led))
		if err != nil {
			return nil, fmt.Errorf("max30102: could not configure slot %d: %w", s, err)
		}

		return SlotLED(s, LED(old)), nil
	}
}

// ClearFIFO zeroes the FIFO pointers and the overflow counter.
func (d *Device) ClearFIFO() error {
	for _, reg := range []byte{FIFOWrPtr, OvfCount, FIFORdPtr} {
		if err := d.Write(reg, 0); err != nil {
			return err
		}
	}
	return nil
}

// Mode returns the operating mode.
func (d *Device) Mode() (OpMode, error) {
	v, err := d.fieldValue(fieldMode)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get mode: %w", err)
	}
	return OpMode(v), nil
}

// Resolution returns the ADC resolution (pulse width).
func (d *Device) Resolution() (Resolution, error) {
	v, err := d.fieldValue(fieldResolution)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get resolution: %w", err)
	}
	return Resolution(v), nil
}

// SampleRate returns the SpO2 sample rate control.
func (d *Device) SampleRate() (SampleRateControl, error) {
	v, err := d.fieldValue(fieldSampleRate)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get sample rate: %w", err)
	}
	return SampleRateControl(v), nil
}

// Range returns the SpO2 ADC range.
func (d *Device) Range() (ADCRange, error) {
	v, err := d.fieldValue(fieldADCRange)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get ADC range: %w", err)
	}
	return ADCRange(v), nil
}

// SampleAveraging returns the FIFO sample averaging.
func (d *Device) SampleAveraging() (Averaging, error) {
	v, err := d.fieldValue(fieldAveraging)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get sample averaging: %w", err)
	}
	return Averaging(v), nil
}

// Rollover reports whether FIFO roll-over is enabled.
func (d *Device) Rollover() (bool, error) {
	v, err := d.fieldValue(fieldRollover)
	if err != nil {
		return false, fmt.Errorf("max30102: could not get FIFO roll-over: %w", err)
	}
	return v == 1, nil
}

// AlmostFullValue returns the almost-full threshold.
func (d *Device) AlmostFullValue() (byte, error) {
	v, err := d.fieldValue(fieldAlmostFull)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get almost full value: %w", err)
	}
	return v, nil
}

// WritePointer returns the FIFO write pointer.
func (d *Device) WritePointer() (byte, error) {
	v, err := d.fieldValue(fieldWrPtr)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get write pointer: %w", err)
	}
	return v, nil
}

// ReadPointer returns the FIFO read pointer.
func (d *Device) ReadPointer() (byte, error) {
	v, err := d.fieldValue(fieldRdPtr)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get read pointer: %w", err)
	}
	return v, nil
}

// OverflowCounter returns the FIFO overflow counter.
func (d *Device) OverflowCounter() (byte, error) {
	v, err := d.fieldValue(fieldOvfCount)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get overflow counter: %w", err)
	}
	return v, nil
}

// RedPulseAmp returns the red LED pulse amplitude in mA.
func (d *Device) RedPulseAmp() (float64, error) {
	v, err := d.fieldValue(fieldRedPA)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get red LED pulse amplitude: %w", err)
	}
	return float64(v) / 5, nil
}

// IRPulseAmp returns the IR LED pulse amplitude in mA.
func (d *Device) IRPulseAmp() (float64, error) {
	v, err := d.fieldValue(fieldIRPA)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get IR LED pulse amplitude: %w", err)
	}
	return float64(v) / 5, nil
}

// InterruptEnabled reports whether an interrupt source is enabled.
func (d *Device) InterruptEnabled(i Interrupt) (bool, error) {
	v, err := d.fieldValue(i.field())
	if err != nil {
		return false, fmt.Errorf("max30102: could not get interrupt %v: %w", i, err)
	}
	return v == 1, nil
}

// SlotLED returns the LED assigned to a multi-LED time slot.
func (d *Device) SlotLED(s Slot) (LED, error) {
	f, err := s.field()
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get slot: %w", err)
	}
	v, err := d.fieldValue(f)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get slot %d: %w", s, err)
	}
	return LED(v), nil
}
