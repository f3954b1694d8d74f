// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/perfmon/lib/config"
	"github.com/bureau-foundation/perfmon/lib/hwinfo"
	"github.com/bureau-foundation/perfmon/lib/msr"
	"github.com/bureau-foundation/perfmon/lib/perfmon"
	"github.com/bureau-foundation/perfmon/lib/record"
	"github.com/bureau-foundation/perfmon/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds command-line flags. Flags that are set override the
// matching config file values.
type options struct {
	configPath  string
	dryRun      bool
	duration    time.Duration
	cpus        string
	logLevel    string
	output      string
	showVersion bool
}

func parseOptions(args []string) (*options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("bureau-perfmon", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to perfmon.yaml (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "use simulated registers instead of /dev/cpu/N/msr")
	flagSet.DurationVar(&opts.duration, "duration", 0, "stop after this long (default: run until interrupted)")
	flagSet.StringVar(&opts.cpus, "cpus", "", "CPU list to sample, e.g. 0-3,8 (overrides config)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, or error (overrides config)")
	flagSet.StringVarP(&opts.output, "output", "o", "", "sample stream path, - for stdout (overrides config)")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return nil, flagSet, err
	}
	if flagSet.NArg() > 0 {
		return nil, flagSet, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return &opts, flagSet, nil
}

func run() error {
	opts, _, err := parseOptions(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Printf("bureau-perfmon %s\n", version.Full())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := newLogger(level)

	processor := hwinfo.ProbeProcessor()
	if !opts.dryRun && !processor.IsZen() {
		return fmt.Errorf("unsupported processor %q (vendor %s, family %#x); use --dry-run to simulate",
			processor.Name, processor.Vendor, processor.Family)
	}

	current, err := buildSession(cfg, hwinfo.ProbeTopologyAt(cfg.SysRoot), version.Stamp(), logger)
	if err != nil {
		return err
	}

	var access perfmon.RegisterAccess
	if opts.dryRun {
		access = newDryRunAccess(current.table)
	} else {
		device := msr.NewDevice(cfg.MSRRoot, logger)
		defer device.Close()
		access = device
	}

	interval, err := cfg.IntervalDuration()
	if err != nil {
		return err
	}
	compression, err := record.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	defer output.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	return sample(ctx, current, access, output, compression, interval, cfg.RotateAfter, logger)
}

// sample runs the measurement loop until ctx is done and flushes the
// sample stream.
func sample(ctx context.Context, current *session, access perfmon.RegisterAccess, output io.Writer,
	compression record.Compression, interval time.Duration, rotateAfter int, logger *slog.Logger) error {
	arena, err := perfmon.NewUnitArena(current.placements)
	if err != nil {
		return err
	}
	driver := perfmon.NewDriver(access, arena, perfmon.NewOwnershipTable(arena.Sockets(), arena.Tiles()), logger)

	current.header.Started = time.Now().UnixNano()
	writer, err := record.NewWriter(output, compression, current.header)
	if err != nil {
		return err
	}

	logger.Info("sampling",
		"cpus", arena.Len(),
		"sockets", arena.Sockets(),
		"tiles", arena.Tiles(),
		"groups", len(current.groups),
		"interval", interval,
		"rotate_after", rotateAfter,
		"compression", compression.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runner := &Runner{
		Driver:      driver,
		Groups:      current.groups,
		RotateAfter: rotateAfter,
		Writer:      writer,
		Logger:      logger,
	}
	runErr := runner.Run(ctx, ticker.C)
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("flushing sample stream: %w", err)
	}
	logger.Info("stopped")
	return runErr
}

// loadConfig loads the config file named by --config or the
// environment, applies flag overrides, and validates the result.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.cpus != "" {
		cfg.CPUs, err = hwinfo.ParseCPUList(opts.cpus)
		if err != nil {
			return nil, fmt.Errorf("--cpus: %w", err)
		}
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens the sample stream destination. "-" is stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return file, nil
}
