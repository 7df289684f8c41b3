package max30102

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
)

var (
	// ErrNotDevice throws an error when the device part ID does not match a
	// MAX30102 signature (0x15).
	ErrNotDevice = errors.New("max30102: part ID does not match (0x15)")
	// ErrBusInit is returned when the bus cannot be opened.
	ErrBusInit = errors.New("max30102: bus init failed")
	// ErrReset is returned when the reset bit does not self-clear.
	ErrReset = errors.New("max30102: reset did not complete")
	// ErrQueueClear is returned when the FIFO pointers cannot be zeroed
	// during initialization.
	ErrQueueClear = errors.New("max30102: queue clear failed")
	// ErrOutOfRange is returned, before touching the bus, when a value does
	// not fit its register field.
	ErrOutOfRange = errors.New("max30102: value out of range")
	// ErrInvalidMode is returned when the mode register holds a value that
	// is not a known operating mode.
	ErrInvalidMode = errors.New("max30102: mode is invalid")
	// ErrTimeout is returned when a temperature conversion does not finish.
	ErrTimeout = errors.New("max30102: read timeout")
	// ErrNotInitialized is returned when the device is used before Init.
	ErrNotInitialized = errors.New("max30102: device not initialized")
)

// Conn is the two-wire bus a Device talks through. Open and Close bring the
// transport up and down; Tx is the transaction primitive shared with
// tinygo.org/x/drivers and periph.io.
type Conn interface {
	drivers.I2C
	Open() error
	Close() error
}

// Wrap adapts a bus that needs no setup, such as an already configured
// machine.I2C, to a Conn.
func Wrap(bus drivers.I2C) Conn {
	return wrapped{bus}
}

type wrapped struct {
	drivers.I2C
}

func (wrapped) Open() error  { return nil }
func (wrapped) Close() error { return nil }

// Config holds the handle settings of a Device. The zero value uses the
// default address, time.Sleep and a disabled logger.
type Config struct {
	// Addr is the 7-bit bus address, 0x57 if zero.
	Addr uint16
	// Delay blocks for the given duration.
	Delay func(time.Duration)
	// Logger receives diagnostics.
	Logger *zerolog.Logger
	// OnInterrupt is called once per asserted interrupt source by
	// HandleInterrupt.
	OnInterrupt func(Interrupt)
	// InterruptDriven means HandleInterrupt is called from an interrupt
	// pin handler. Otherwise, waits poll the status registers themselves.
	InterruptDriven bool
}

// State is a position in the initialization sequence.
type State int

const (
	Uninitialized State = iota
	BusReady
	Identified
	ResetPending
	ResetConfirmed
	QueueCleared
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case BusReady:
		return "bus-ready"
	case Identified:
		return "identified"
	case ResetPending:
		return "reset-pending"
	case ResetConfirmed:
		return "reset-confirmed"
	case QueueCleared:
		return "queue-cleared"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// resetSettle is how long the device gets to finish a reset.
const resetSettle = 10 * time.Millisecond

// Device defines a MAX30102 device.
type Device struct {
	conn  Conn
	addr  uint16
	delay func(time.Duration)
	log   zerolog.Logger

	onInterrupt     func(Interrupt)
	interruptDriven bool

	buf   [FIFODepth * 6]byte
	state State

	// written by HandleInterrupt, possibly from another goroutine.
	finished atomic.Bool
	temp     atomic.Uint32
}

// New returns a new MAX30102 device on conn. It does not touch the bus;
// call Init before using the device.
func New(conn Conn, cfg Config) *Device {
	d := &Device{
		conn:            conn,
		addr:            cfg.Addr,
		delay:           cfg.Delay,
		log:             zerolog.Nop(),
		onInterrupt:     cfg.OnInterrupt,
		interruptDriven: cfg.InterruptDriven,
	}
	if d.addr == 0 {
		d.addr = Addr
	}
	if d.delay == nil {
		d.delay = time.Sleep
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("dev", "max30102").Logger()
	}
	return d
}

// State returns how far initialization got.
func (d *Device) State() State {
	return d.state
}

// Init opens the bus, checks the part ID, resets the device and clears the
// FIFO. On any failure after the bus is open, the bus is closed again.
func (d *Device) Init() error {
	d.state = Uninitialized
	if err := d.conn.Open(); err != nil {
		d.log.Debug().Err(err).Msg("bus init failed")
		return fmt.Errorf("%w: %w", ErrBusInit, err)
	}
	d.state = BusReady

	if err := d.init(); err != nil {
		d.log.Debug().Err(err).Stringer("state", d.state).Msg("init failed")
		if cerr := d.conn.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		d.state = Uninitialized
		return err
	}
	d.state = Ready

	return nil
}

func (d *Device) init() error {
	part, err := d.Read(RegPartID)
	if err != nil {
		return fmt.Errorf("max30102: could not get part ID: %w", err)
	}
	if part != PartID {
		return fmt.Errorf("%w: got %#x", ErrNotDevice, part)
	}
	d.state = Identified

	mode, err := d.Read(ModeCfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReset, err)
	}
	if err := d.Write(ModeCfg, mode|ResetControl); err != nil {
		return fmt.Errorf("%w: %w", ErrReset, err)
	}
	d.state = ResetPending

	d.delay(resetSettle)
	if mode, err = d.Read(ModeCfg); err != nil {
		return fmt.Errorf("%w: %w", ErrReset, err)
	}
	if mode&ResetControl != 0 {
		return ErrReset
	}
	d.state = ResetConfirmed

	for _, reg := range []byte{FIFORdPtr, FIFOWrPtr, OvfCount} {
		if err := d.Write(reg, 0); err != nil {
			return fmt.Errorf("%w: %w", ErrQueueClear, err)
		}
	}
	d.state = QueueCleared

	return nil
}

// Close puts the device into shutdown and closes the bus. The device is
// marked uninitialized once the bus is closed, even if shutdown failed.
func (d *Device) Close() error {
	if d.state != Ready {
		return ErrNotInitialized
	}

	var errs []error
	if err := d.Shutdown(); err != nil {
		d.log.Debug().Err(err).Msg("shutdown failed")
		errs = append(errs, err)
	}
	if err := d.conn.Close(); err != nil {
		d.log.Debug().Err(err).Msg("bus deinit failed")
		errs = append(errs, fmt.Errorf("max30102: could not close bus: %w", err))
	} else {
		d.state = Uninitialized
	}

	return errors.Join(errs...)
}

func (d *Device) ready() error {
	if d.state != Ready {
		return ErrNotInitialized
	}
	return nil
}

// RevID returns the revision ID of the device.
func (d *Device) RevID() (byte, error) {
	rev, err := d.Read(RegRevID)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get revision ID: %w", err)
	}
	return rev, nil
}

// IDs returns the revision and part IDs of the device.
func (d *Device) IDs() (rev, part byte, err error) {
	if rev, err = d.RevID(); err != nil {
		return 0, 0, err
	}
	if part, err = d.Read(RegPartID); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not get part ID: %w", err)
	}
	return rev, part, nil
}

// Read reads a single byte from a register.
func (d *Device) Read(reg byte) (byte, error) {
	b := make([]byte, 1)
	if err := d.conn.Tx(d.addr, []byte{reg}, b); err != nil {
		return 0, fmt.Errorf("max30102: could not read byte: %w", err)
	}

	return b[0], nil
}

// ReadBytes read n bytes from a register.
func (d *Device) ReadBytes(reg byte, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := d.ReadInto(reg, b); err != nil {
		return nil, err
	}

	return b, nil
}

// ReadInto fills b with a burst read starting at a register.
func (d *Device) ReadInto(reg byte, b []byte) error {
	if err := d.conn.Tx(d.addr, []byte{reg}, b); err != nil {
		return fmt.Errorf("max30102: could not read %d bytes: %w", len(b), err)
	}
	return nil
}

// Write writes one or more bytes starting at a register.
func (d *Device) Write(reg byte, data ...byte) error {
	if len(data) == 0 {
		return fmt.Errorf("max30102: write to %#x: nothing to write", reg)
	}
	w := make([]byte, 0, len(data)+1)
	w = append(w, reg)
	w = append(w, data...)
	if err := d.conn.Tx(d.addr, w, nil); err != nil {
		return fmt.Errorf("max30102: could not write %#x: %w", reg, err)
	}

	return nil
}

// Reset resets the device. All configurations, thresholds, and data registers
// are reset to their power-on state.
func (d *Device) Reset() error {
	if _, err := d.config(fieldReset, 1); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}
	d.delay(resetSettle)
	mode, err := d.Read(ModeCfg)
	if err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}
	if mode&ResetControl != 0 {
		return ErrReset
	}

	return nil
}

// Shutdown sets the device into power-save mode.
func (d *Device) Shutdown() error {
	if _, err := d.config(fieldShutdown, 1); err != nil {
		return fmt.Errorf("max30102: could not shut down: %w", err)
	}
	return nil
}

// Startup wakes the device from power-save mode.
func (d *Device) Startup() error {
	if _, err := d.config(fieldShutdown, 0); err != nil {
		return fmt.Errorf("max30102: could not start up: %w", err)
	}
	return nil
}

// IsShutdown reports whether the device is in power-save mode.
func (d *Device) IsShutdown() (bool, error) {
	v, err := d.fieldValue(fieldShutdown)
	return v == 1, err
}
