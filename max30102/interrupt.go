package max30102

import "fmt"

// HandleInterrupt reads both interrupt status registers and calls the
// OnInterrupt callback once for every asserted source. A finished die
// temperature conversion is read and stored before its callback runs.
//
// It may run on a different goroutine than the rest of the driver; it only
// shares the finished flag and the last temperature with it.
func (d *Device) HandleInterrupt() error {
	st, err := d.Read(IntStat1)
	if err != nil {
		return fmt.Errorf("max30102: could not read interrupt status 1: %w", err)
	}
	for _, i := range status1 {
		if st&i.Mask() != 0 {
			d.notify(i)
		}
	}

	st, err = d.Read(IntStat2)
	if err != nil {
		return fmt.Errorf("max30102: could not read interrupt status 2: %w", err)
	}
	if st&DieTempReady.Mask() != 0 {
		i, err := d.Read(TempInt)
		if err != nil {
			return fmt.Errorf("max30102: could not read integer part of temperature: %w", err)
		}
		f, err := d.Read(TempFrac)
		if err != nil {
			return fmt.Errorf("max30102: could not read fractional part of temperature: %w", err)
		}
		d.temp.Store(uint32(tempRaw(i, f)))
		d.finished.Store(true)
		d.notify(DieTempReady)
	}

	return nil
}

func (d *Device) notify(i Interrupt) {
	if d.onInterrupt != nil {
		d.onInterrupt(i)
	}
}

// InterruptStatus reports whether a single interrupt source is asserted.
// Reading a status register clears all of its flags.
func (d *Device) InterruptStatus(i Interrupt) (bool, error) {
	st, err := d.Read(i.statusReg())
	if err != nil {
		return false, fmt.Errorf("max30102: could not read interrupt status: %w", err)
	}
	return st&i.Mask() != 0, nil
}
