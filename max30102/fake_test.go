package max30102

import (
	"errors"
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// Compile-time check.
var _ drivers.I2C = (*fakeBus)(nil)

var errBus = errors.New("bus error")

type regWrite struct {
	reg  byte
	data byte
}

// fakeBus is a MAX30102-like register file. Reading a status register
// clears it, the reset bit self-clears and a temperature conversion
// completes as soon as it is started.
type fakeBus struct {
	mu   sync.Mutex
	regs [256]byte

	// fifo returns the next FIFO burst of n bytes.
	fifo func(f *fakeBus, n int) []byte

	opens, closes int
	reads         int
	writes        []regWrite
	openErr       error
	failRead      map[byte]error
	failWrite     map[byte]error
	stickyReset   bool
	slowTemp      bool
	tempInt       byte
	tempFrac      byte
}

func newFakeBus() *fakeBus {
	f := &fakeBus{}
	f.regs[RegPartID] = PartID
	f.regs[RegRevID] = 0x03
	return f
}

func (f *fakeBus) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return f.openErr
}

func (f *fakeBus) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if addr != Addr || len(w) == 0 {
		return errBus
	}
	reg := w[0]

	if len(w) == 1 {
		f.reads++
		if err := f.failRead[reg]; err != nil {
			return err
		}
		if reg == FIFOData {
			var b []byte
			if f.fifo != nil {
				b = f.fifo(f, len(r))
			}
			copy(r, b)
			return nil
		}
		for i := range r {
			r[i] = f.regs[int(reg)+i]
		}
		if reg == IntStat1 || reg == IntStat2 {
			f.regs[reg] = 0
		}
		return nil
	}

	if err := f.failWrite[reg]; err != nil {
		return err
	}
	for i, b := range w[1:] {
		f.writes = append(f.writes, regWrite{reg + byte(i), b})
		f.regs[int(reg)+i] = b
	}
	switch {
	case reg == ModeCfg && !f.stickyReset:
		f.regs[ModeCfg] &^= ResetControl
	case reg == TempCfg && w[1]&TempEna != 0 && !f.slowTemp:
		f.regs[TempInt] = f.tempInt
		f.regs[TempFrac] = f.tempFrac
		f.regs[TempCfg] &^= TempEna
		f.regs[IntStat2] |= DieTempReady.Mask()
	}
	return nil
}

func (f *fakeBus) wrote(reg byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.writes {
		if w.reg == reg {
			return true
		}
	}
	return false
}

func (f *fakeBus) set(reg, v byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[reg] = v
}

func (f *fakeBus) get(reg byte) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[reg]
}

// newReady returns an initialized device on a fresh fake bus.
func newReady(cfg Config) (*Device, *fakeBus) {
	bus := newFakeBus()
	if cfg.Delay == nil {
		cfg.Delay = func(time.Duration) {}
	}
	d := New(bus, cfg)
	if err := d.Init(); err != nil {
		panic(err)
	}
	bus.writes = nil
	bus.reads = 0
	return d, bus
}
