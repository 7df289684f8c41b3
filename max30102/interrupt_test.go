package max30102

import (
	"errors"
	"reflect"
	"testing"
)

func TestHandleInterrupt(t *testing.T) {
	var calls []Interrupt
	d, bus := newReady(Config{OnInterrupt: func(i Interrupt) { calls = append(calls, i) }})
	bus.set(IntStat1, AlmostFull.Mask()|PowerReady.Mask())
	bus.set(IntStat2, DieTempReady.Mask())
	bus.set(TempInt, 30)
	bus.set(TempFrac, 1)

	if err := d.HandleInterrupt(); err != nil {
		t.Fatal(err)
	}
	want := []Interrupt{AlmostFull, PowerReady, DieTempReady}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("callbacks = %v, want %v", calls, want)
	}
	if _, c := d.LastTemperature(); c != 30.0625 {
		t.Errorf("LastTemperature() = %v, want 30.0625", c)
	}
	if !d.finished.Load() {
		t.Error("finished flag not set")
	}

	// Status registers clear on read.
	calls = nil
	if err := d.HandleInterrupt(); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Errorf("callbacks after clear = %v", calls)
	}
}

func TestHandleInterruptAll(t *testing.T) {
	var calls []Interrupt
	d, bus := newReady(Config{OnInterrupt: func(i Interrupt) { calls = append(calls, i) }})
	bus.set(IntStat1, 0xFF)

	if err := d.HandleInterrupt(); err != nil {
		t.Fatal(err)
	}
	want := []Interrupt{AlmostFull, NewFIFOData, AmbientLightCancelOvf, PowerReady}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("callbacks = %v, want %v", calls, want)
	}
}

func TestHandleInterruptNoCallback(t *testing.T) {
	d, bus := newReady(Config{})
	bus.set(IntStat1, NewFIFOData.Mask())
	bus.set(IntStat2, DieTempReady.Mask())
	bus.set(TempInt, 21)

	if err := d.HandleInterrupt(); err != nil {
		t.Fatal(err)
	}
	if _, c := d.LastTemperature(); c != 21 {
		t.Errorf("LastTemperature() = %v, want 21", c)
	}
}

func TestHandleInterruptReadFails(t *testing.T) {
	var calls []Interrupt
	d, bus := newReady(Config{OnInterrupt: func(i Interrupt) { calls = append(calls, i) }})
	bus.set(IntStat1, AlmostFull.Mask())
	bus.set(IntStat2, DieTempReady.Mask())
	bus.failRead = map[byte]error{TempFrac: errBus}

	if err := d.HandleInterrupt(); !errors.Is(err, errBus) {
		t.Fatalf("HandleInterrupt() = %v, want %v", err, errBus)
	}
	if !reflect.DeepEqual(calls, []Interrupt{AlmostFull}) {
		t.Errorf("callbacks = %v, want [%v]", calls, AlmostFull)
	}
	if d.finished.Load() {
		t.Error("finished flag set after failed read")
	}
}

func TestInterruptStatus(t *testing.T) {
	d, bus := newReady(Config{})
	bus.set(IntStat1, NewFIFOData.Mask())

	on, err := d.InterruptStatus(NewFIFOData)
	if err != nil || !on {
		t.Errorf("InterruptStatus(NewFIFOData) = %v, %v, want true", on, err)
	}
	on, err = d.InterruptStatus(NewFIFOData)
	if err != nil || on {
		t.Errorf("second InterruptStatus(NewFIFOData) = %v, %v, want false", on, err)
	}
	on, err = d.InterruptStatus(DieTempReady)
	if err != nil || on {
		t.Errorf("InterruptStatus(DieTempReady) = %v, %v, want false", on, err)
	}
}
