package max30102

import "fmt"

// Sample is one FIFO entry. IR is zero in heart-rate mode.
type Sample struct {
	Red uint32
	IR  uint32
}

// Layout describes how samples are packed in the FIFO for the current
// configuration. Mode and Shift are read together so decoded magnitudes
// always match the configured resolution.
type Layout struct {
	Mode   OpMode
	Stride int
	Shift  uint
}

// HasIR reports whether samples carry an IR channel.
func (l Layout) HasIR() bool {
	return l.Stride == 6
}

// Pending returns the number of unread samples between the read and write
// pointers of the FIFO.
func Pending(wr, rd byte) int {
	wr &= FIFODepth - 1
	rd &= FIFODepth - 1
	if wr >= rd {
		return int(wr - rd)
	}
	return FIFODepth + int(wr) - int(rd)
}

// DecodeChannel decodes a 3-byte big-endian FIFO channel value, keeping the
// 18 data bits and dropping the bits unused at the configured resolution.
func DecodeChannel(b []byte, shift uint) uint32 {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	return (v & maxADC) >> shift
}

func (l Layout) decode(b []byte) Sample {
	s := Sample{Red: DecodeChannel(b[0:3], l.Shift)}
	if l.HasIR() {
		s.IR = DecodeChannel(b[3:6], l.Shift)
	}
	return s
}

// PendingCount returns the number of unread samples in the FIFO. overrun
// is true if the FIFO filled up and dropped samples since it was last
// cleared; the unread samples are still valid.
func (d *Device) PendingCount() (n int, overrun bool, err error) {
	if err := d.ready(); err != nil {
		return 0, false, err
	}
	ovf, err := d.Read(OvfCount)
	if err != nil {
		return 0, false, fmt.Errorf("max30102: could not read overflow counter: %w", err)
	}
	if ovf&0x1F != 0 {
		overrun = true
		d.log.Warn().Uint8("overflow", ovf&0x1F).Msg("fifo overrun")
	}
	wr, err := d.Read(FIFOWrPtr)
	if err != nil {
		return 0, false, fmt.Errorf("max30102: could not read write pointer: %w", err)
	}
	rd, err := d.Read(FIFORdPtr)
	if err != nil {
		return 0, false, fmt.Errorf("max30102: could not read read pointer: %w", err)
	}

	return Pending(wr, rd), overrun, nil
}

// Layout reads the mode and resolution and returns the FIFO sample layout.
func (d *Device) Layout() (Layout, error) {
	if err := d.ready(); err != nil {
		return Layout{}, err
	}
	mode, err := d.Mode()
	if err != nil {
		return Layout{}, err
	}
	stride, err := mode.Stride()
	if err != nil {
		return Layout{}, fmt.Errorf("max30102: %#b: %w", byte(mode), err)
	}
	res, err := d.Resolution()
	if err != nil {
		return Layout{}, err
	}

	return Layout{Mode: mode, Stride: stride, Shift: res.Shift()}, nil
}

// ReadSamples reads up to limit pending samples from the FIFO in a single
// burst. overrun reports a FIFO overflow as PendingCount does.
func (d *Device) ReadSamples(limit int) (samples []Sample, overrun bool, err error) {
	n, overrun, err := d.PendingCount()
	if err != nil {
		return nil, false, err
	}
	if limit < n {
		n = limit
	}
	l, err := d.Layout()
	if err != nil {
		return nil, overrun, err
	}
	if n <= 0 {
		return nil, overrun, nil
	}

	b := d.buf[:n*l.Stride]
	if err := d.ReadInto(FIFOData, b); err != nil {
		return nil, overrun, fmt.Errorf("max30102: could not read FIFO: %w", err)
	}
	samples = make([]Sample, n)
	for i := range samples {
		samples[i] = l.decode(b[i*l.Stride:])
	}

	return samples, overrun, nil
}

// ReadSample reads the sample at the head of the FIFO without checking the
// pointers first.
func (d *Device) ReadSample(l Layout) (Sample, error) {
	if err := d.ready(); err != nil {
		return Sample{}, err
	}
	if l.Stride != 3 && l.Stride != 6 {
		return Sample{}, ErrInvalidMode
	}
	b := d.buf[:l.Stride]
	if err := d.ReadInto(FIFOData, b); err != nil {
		return Sample{}, fmt.Errorf("max30102: could not read FIFO: %w", err)
	}

	return l.decode(b), nil
}

// Drain discards every pending sample.
func (d *Device) Drain() error {
	_, _, err := d.ReadSamples(FIFODepth)
	return err
}
