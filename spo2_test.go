package pulseox

import (
	"context"
	"testing"

	"github.com/darkmoon/pulseox/max30102"
)

func TestRatioOfRatios(t *testing.T) {
	tests := []struct {
		name                           string
		meanRed, maxRed, meanIR, maxIR float64
		want                           float64
		ok                             bool
	}{
		{"textbook", 100, 150, 100, 120, 47.5, true},
		{"equal channels", 200, 210, 200, 210, 85, true},
		{"clamped", 100, 100, 100, 120, 100, true},
		{"negative", 100, 400, 100, 150, -40, true},
		{"flat IR", 100, 150, 100, 100, 0, false},
		{"no red", 0, 0, 100, 120, 0, false},
		{"no IR", 100, 150, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ratioOfRatios(tt.meanRed, tt.maxRed, tt.meanIR, tt.maxIR)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ratioOfRatios() = %v, %v, want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

// windows serves one SpO2 window per repeat, each a single pulse of the
// given red and IR height above a baseline of 100.
func windows(heights [][2]uint32) func(int) max30102.Sample {
	return func(i int) max30102.Sample {
		w := heights[(i/50)%len(heights)]
		if i%50 == 0 {
			return max30102.Sample{Red: 100 + w[0], IR: 100 + w[1]}
		}
		return max30102.Sample{Red: 100, IR: 100}
	}
}

func TestSpO2(t *testing.T) {
	tests := []struct {
		name    string
		heights [][2]uint32
		want    int
	}{
		{"best of three", [][2]uint32{{50, 10}, {50, 50}, {50, 25}}, 85},
		{"clamped", [][2]uint32{{0, 10}, {50, 50}, {50, 50}}, 100},
		{"all negative", [][2]uint32{{500, 10}, {500, 10}, {500, 10}}, 0},
		{"flat", [][2]uint32{{0, 0}, {0, 0}, {0, 0}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSensor(spo2Layout, windows(tt.heights))
			d, err := New(s, WithCalibration(testCalibration()))
			if err != nil {
				t.Fatal(err)
			}

			got, err := d.SpO2(context.Background())
			if err != nil {
				t.Fatalf("SpO2() = %v", err)
			}
			if got != tt.want {
				t.Errorf("SpO2() = %d, want %d", got, tt.want)
			}
			if s.reads != 150 {
				t.Errorf("reads = %d, want 150", s.reads)
			}
		})
	}
}

func TestSpO2HeartRateMode(t *testing.T) {
	s := newFakeSensor(hrLayout, constant(200000))
	d, err := New(s, WithCalibration(testCalibration()))
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.SpO2(context.Background())
	if err != nil || got != 0 {
		t.Errorf("SpO2() = %d, %v, want 0", got, err)
	}
	if s.reads != 0 {
		t.Errorf("reads = %d, want 0", s.reads)
	}
}
