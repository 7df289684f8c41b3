// Command pulseox reads heart rate, SpO2 and die temperature from a
// MAX30102 on a host I²C bus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darkmoon/pulseox"
	"github.com/darkmoon/pulseox/max30102"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := flag.String("config", "", "YAML configuration `file`")
	mode := flag.String("mode", "measure", "measure, temp, calibrate or regs")
	count := flag.Int("n", 1, "number of readings, 0 to keep reading")
	timeout := flag.Duration("timeout", 0, "give up waiting for a finger after this long, settle included (0 waits forever)")
	target := flag.Float64("target", 0.25, "calibration target, fraction of full scale")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := Load(*cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	opts, err := cfg.Sensor.options()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid sensor configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, opts, *mode, *count, *timeout, *target); err != nil {
		logger.Error().Err(err).Msg("Failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger zerolog.Logger, cfg Config, opts []max30102.Option, mode string, count int, timeout time.Duration, target float64) error {
	dev, err := max30102.OpenHost(cfg.Bus.Name, cfg.Bus.speed(), max30102.Config{
		Addr:   cfg.Bus.Addr,
		Logger: &logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close sensor")
		}
	}()

	if _, err := dev.Options(opts...); err != nil {
		return err
	}
	rev, _, err := dev.IDs()
	if err != nil {
		return err
	}
	logger.Info().Uint8("rev", rev).Str("bus", cfg.Bus.Name).Msg("MAX30102 detected")

	engine, err := pulseox.New(dev,
		pulseox.WithCalibration(cfg.Calibration),
		pulseox.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	lim := rate.NewLimiter(rate.Every(cfg.Interval), 1)
	for i := 0; count == 0 || i < count; i++ {
		if err := lim.Wait(ctx); err != nil {
			return nil
		}

		switch mode {
		case "measure":
			res, err := measure(ctx, engine, timeout)
			if errors.Is(err, pulseox.ErrNotDetected) {
				logger.Warn().Msg("No finger detected")
				continue
			}
			if err != nil {
				return err
			}
			if !res.Stable {
				fmt.Println("unstable signal, please try again")
				continue
			}
			fmt.Printf("heart rate = %d bpm, SpO2 = %d%%\n", res.HeartRate, res.SpO2)

		case "temp":
			c, err := engine.Temperature()
			if err != nil {
				return err
			}
			fmt.Printf("temp = %02.2f\n", c)

		case "calibrate":
			ir, red, err := dev.Calibrate(target)
			if err != nil {
				return err
			}
			fmt.Printf("ir = %.1f mA, red = %.1f mA\n", ir, red)

		case "regs":
			if err := dumpRegisters(dev); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown mode %q", mode)
		}
	}

	return nil
}

// measure runs a full measurement, giving up finger detection after
// timeout if it is positive.
func measure(ctx context.Context, e *pulseox.Device, timeout time.Duration) (pulseox.Result, error) {
	if timeout <= 0 {
		return e.Measure(ctx)
	}

	fctx, cancel := context.WithTimeout(ctx, timeout)
	err := e.DetectFinger(fctx)
	cancel()
	if err != nil {
		return pulseox.Result{}, err
	}

	res, err := e.HeartRate(ctx)
	if err != nil {
		return res, err
	}
	res.SpO2, err = e.SpO2(ctx)

	return res, err
}

func dumpRegisters(dev *max30102.Device) error {
	mode, err := dev.Mode()
	if err != nil {
		return err
	}
	sr, err := dev.SampleRate()
	if err != nil {
		return err
	}
	res, err := dev.Resolution()
	if err != nil {
		return err
	}
	red, err := dev.RedPulseAmp()
	if err != nil {
		return err
	}
	ir, err := dev.IRPulseAmp()
	if err != nil {
		return err
	}
	n, overrun, err := dev.PendingCount()
	if err != nil {
		return err
	}

	hz := 0
	for k, v := range sampleRates {
		if v == sr {
			hz = k
		}
	}

	fmt.Printf("mode = %v, sample rate = %d/s, resolution = %d bits\n", mode, hz, res.Bits())
	fmt.Printf("red = %.1f mA, ir = %.1f mA\n", red, ir)
	fmt.Printf("pending = %d, overrun = %v\n", n, overrun)

	return nil
}
