package max30102

import (
	"fmt"
	"time"
)

// tempTimeout is how many 1 ms polls a die temperature conversion gets.
const tempTimeout = 5000

// tempRaw packs the integer and fractional registers into 1/16 °C units.
func tempRaw(i, f byte) uint16 {
	return uint16(i)<<4 | uint16(f&0x0F)
}

// Celsius converts a raw die temperature to degrees Celsius.
func Celsius(raw uint16) float64 {
	return float64(int8(raw>>4)) + float64(raw&0x0F)*0.0625
}

// Temperature starts a die temperature conversion and waits for it to
// finish. Completion is signalled by HandleInterrupt; unless the device is
// interrupt driven, the wait polls the status registers itself.
func (d *Device) Temperature() (float64, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	on, err := d.InterruptEnabled(DieTempReady)
	if err != nil {
		return 0, err
	}
	if !on {
		if _, err := InterruptEnable(true, DieTempReady)(d); err != nil {
			return 0, err
		}
	}

	d.finished.Store(false)
	if _, err := d.config(fieldTempEnable, 1); err != nil {
		return 0, fmt.Errorf("max30102: could not enable temperature: %w", err)
	}

	if err := d.poll(tempTimeout, time.Millisecond, d.finished.Load); err != nil {
		d.log.Debug().Err(err).Msg("temperature conversion")
		return 0, err
	}
	_, c := d.LastTemperature()

	return c, nil
}

// poll waits until done reports true, giving up after tries delays.
func (d *Device) poll(tries int, every time.Duration, done func() bool) error {
	for ; tries > 0; tries-- {
		d.delay(every)
		if !d.interruptDriven {
			if err := d.HandleInterrupt(); err != nil {
				return err
			}
		}
		if done() {
			return nil
		}
	}
	return ErrTimeout
}

// LastTemperature returns the last die temperature read by HandleInterrupt,
// raw in 1/16 °C and converted to °C.
func (d *Device) LastTemperature() (raw uint16, celsius float64) {
	raw = uint16(d.temp.Load())
	return raw, Celsius(raw)
}
