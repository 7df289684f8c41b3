package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/darkmoon/pulseox"
	"github.com/darkmoon/pulseox/max30102"
	"gopkg.in/yaml.v3"
	"periph.io/x/periph/conn/physic"
)

// Config is the command configuration file.
type Config struct {
	Bus         BusConfig           `yaml:"bus"`
	LogLevel    string              `yaml:"log_level"`
	Interval    time.Duration       `yaml:"interval"`
	Sensor      SensorConfig        `yaml:"sensor"`
	Calibration pulseox.Calibration `yaml:"calibration"`
}

// BusConfig selects the I²C bus and device address.
type BusConfig struct {
	// Name is the bus name ("/dev/i2c-1", "I2C1", "1"); empty selects the
	// first available bus.
	Name     string `yaml:"name"`
	SpeedKHz int    `yaml:"speed_khz"`
	Addr     uint16 `yaml:"addr"`
}

func (b BusConfig) speed() physic.Frequency {
	return physic.Frequency(b.SpeedKHz) * physic.KiloHertz
}

// SensorConfig holds the register settings applied after initialization.
type SensorConfig struct {
	Mode       string  `yaml:"mode"`
	SampleRate int     `yaml:"sample_rate"`
	PulseWidth int     `yaml:"pulse_width"`
	ADCRange   int     `yaml:"adc_range"`
	Averaging  int     `yaml:"averaging"`
	RedCurrent float64 `yaml:"red_current"`
	IRCurrent  float64 `yaml:"ir_current"`
}

func defaultConfig() Config {
	return Config{
		Bus: BusConfig{
			SpeedKHz: 400,
			Addr:     max30102.Addr,
		},
		LogLevel: "info",
		Interval: time.Second,
		Sensor: SensorConfig{
			Mode:       "spo2",
			SampleRate: 100,
			PulseWidth: 411,
			ADCRange:   4096,
			Averaging:  1,
			RedCurrent: 7,
			IRCurrent:  7,
		},
		Calibration: pulseox.DefaultCalibration(),
	}
}

// Load reads the configuration at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.Calibration.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

var (
	modes = map[string]max30102.OpMode{
		"hr":        max30102.ModeHR,
		"spo2":      max30102.ModeSpO2,
		"multi-led": max30102.ModeMultiLed,
	}
	sampleRates = map[int]max30102.SampleRateControl{
		50:   max30102.SR50,
		100:  max30102.SR100,
		200:  max30102.SR200,
		400:  max30102.SR400,
		800:  max30102.SR800,
		1000: max30102.SR1000,
		1600: max30102.SR1600,
		3200: max30102.SR3200,
	}
	pulseWidths = map[int]max30102.Resolution{
		69:  max30102.PW69,
		118: max30102.PW118,
		215: max30102.PW215,
		411: max30102.PW411,
	}
	ranges = map[int]max30102.ADCRange{
		2048:  max30102.Range2048,
		4096:  max30102.Range4096,
		8192:  max30102.Range8192,
		16384: max30102.Range16384,
	}
	averages = map[int]max30102.Averaging{
		1:  max30102.Avg1,
		2:  max30102.Avg2,
		4:  max30102.Avg4,
		8:  max30102.Avg8,
		16: max30102.Avg16,
		32: max30102.Avg32,
	}
)

// options converts the sensor settings to device options. The mode goes
// last since changing it clears the FIFO.
func (s SensorConfig) options() ([]max30102.Option, error) {
	mode, ok := modes[s.Mode]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", s.Mode)
	}
	sr, ok := sampleRates[s.SampleRate]
	if !ok {
		return nil, fmt.Errorf("unsupported sample rate %d", s.SampleRate)
	}
	pw, ok := pulseWidths[s.PulseWidth]
	if !ok {
		return nil, fmt.Errorf("unsupported pulse width %dus", s.PulseWidth)
	}
	rng, ok := ranges[s.ADCRange]
	if !ok {
		return nil, fmt.Errorf("unsupported ADC range %dnA", s.ADCRange)
	}
	avg, ok := averages[s.Averaging]
	if !ok {
		return nil, fmt.Errorf("unsupported averaging %d", s.Averaging)
	}

	return []max30102.Option{
		max30102.RedPulseAmp(s.RedCurrent),
		max30102.IRPulseAmp(s.IRCurrent),
		max30102.SampleAveraging(avg),
		max30102.Range(rng),
		max30102.PulseWidth(pw),
		max30102.SampleRate(sr),
		max30102.Mode(mode),
	}, nil
}
