//go:build !tinygo

package max30102

import (
	"errors"
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

var errBusClosed = errors.New("max30102: bus is not open")

// HostBus returns a Conn on a host I²C bus opened through periph.io.
//
// Argument "name" can be used to specify the exact bus to use ("/dev/i2c-2", "I2C2", "2").
// If "name" is an empty string "" the first available bus will be used.
// A zero speed leaves the bus clock untouched.
func HostBus(name string, speed physic.Frequency) Conn {
	return &hostBus{name: name, speed: speed}
}

type hostBus struct {
	name  string
	speed physic.Frequency
	bus   i2c.BusCloser
}

func (h *hostBus) Open() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("max30102: could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(h.name)
	if err != nil {
		return fmt.Errorf("max30102: could not open I2C bus: %w", err)
	}
	if h.speed > 0 {
		if err := bus.SetSpeed(h.speed); err != nil {
			bus.Close()
			return fmt.Errorf("max30102: could not set bus speed to %s: %w", h.speed, err)
		}
	}
	h.bus = bus

	return nil
}

func (h *hostBus) Tx(addr uint16, w, r []byte) error {
	if h.bus == nil {
		return errBusClosed
	}
	return h.bus.Tx(addr, w, r)
}

func (h *hostBus) Close() error {
	if h.bus == nil {
		return nil
	}
	err := h.bus.Close()
	h.bus = nil
	return err
}

func (h *hostBus) String() string {
	if h.bus == nil {
		return fmt.Sprintf("%q (closed)", h.name)
	}
	return h.bus.String()
}

// OpenHost returns an initialized MAX30102 device on a host I²C bus. By
// default, this sets the LED pulse amplitude to 2.8mA, with a pulse width
// of 411us and a sample rate of 100 samples/s in SpO2 mode.
func OpenHost(name string, speed physic.Frequency, cfg Config) (*Device, error) {
	d := New(HostBus(name, speed), cfg)
	if err := d.Init(); err != nil {
		return nil, err
	}

	if _, err := d.Options(
		RedPulseAmp(2.8),
		IRPulseAmp(2.8),
		PulseWidth(PW411),
		SampleRate(SR100),
		AlmostFullValue(0),
		Mode(ModeSpO2),
	); err != nil {
		d.Close()
		return nil, fmt.Errorf("max30102: could not initialize device: %w", err)
	}

	return d, nil
}
