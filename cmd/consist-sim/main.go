// Command consist-sim runs consist scenarios.
//
// A scenario file describes the cars of a consist, the coupling lines and
// switch control units attached to them, and a list of steps with
// expected outcomes.
//
// Usage:
//
//	consist-sim [flags] <scenario.yaml|dir>
//
// Flags:
//
//	-protocol-log string  File path for protocol event capture (CBOR format)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-interactive          Set up the scenario's consist and open a console instead of running steps
//	-max-deliveries int   Messages delivered per operation before it is reported unsettled
//	-timeout duration     Overall run timeout (default 1m)
//	-v                    Verbose result output
//
// Examples:
//
//	# Run every scenario under a directory
//	consist-sim ./scenarios
//
//	# Capture protocol events and inspect them with consist-log
//	consist-sim -protocol-log run.clog ./scenarios/indicator.yaml
//
//	# Drive a consist by hand
//	consist-sim -interactive ./scenarios/indicator.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/consist-sim/consist-go/cmd/consist-sim/interactive"
	"github.com/consist-sim/consist-go/internal/scenario"
	"github.com/consist-sim/consist-go/pkg/log"
)

var (
	protocolLog   = flag.String("protocol-log", "", "File path for protocol event capture (CBOR format)")
	logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	interact      = flag.Bool("interactive", false, "Set up the scenario's consist and open a console instead of running steps")
	maxDeliveries = flag.Int("max-deliveries", 0, "Messages delivered per operation before it is reported unsettled (0 = default)")
	timeout       = flag.Duration("timeout", time.Minute, "Overall run timeout")
	verbose       = flag.Bool("v", false, "Verbose result output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: scenario file or directory required")
		flag.Usage()
		os.Exit(1)
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scenarios, err := scenario.LoadPath(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *interact {
		os.Exit(runInteractive(ctx, scenarios, level))
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()
	os.Exit(runScenarios(ctx, scenarios, level))
}

func runScenarios(ctx context.Context, scenarios []*scenario.Scenario, level slog.Level) int {
	logger := newLogger(os.Stderr, level)

	opts, closeCapture, err := options(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeCapture()

	results := scenario.NewRunner(opts).RunAll(ctx, scenarios)
	if failed := scenario.NewTextReporter(os.Stdout, *verbose).Report(results); failed > 0 {
		return 1
	}
	return 0
}

func runInteractive(ctx context.Context, scenarios []*scenario.Scenario, level slog.Level) int {
	if len(scenarios) != 1 {
		fmt.Fprintf(os.Stderr, "Error: interactive mode needs exactly one scenario, got %d\n", len(scenarios))
		return 1
	}

	console, err := interactive.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger := newLogger(console.Stderr(), level)

	opts, closeCapture, err := options(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeCapture()

	env, err := scenario.Setup(scenarios[0], opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info("consist ready", "scenario", scenarios[0].ID, "session", env.Consist.SessionID())

	console.Run(ctx, env)
	return 0
}

// options builds the runner options. At debug level protocol events are
// also mirrored to the operational log.
func options(logger *slog.Logger) (scenario.Options, func(), error) {
	opts := scenario.Options{Logger: logger, MaxDeliveries: *maxDeliveries}
	closeCapture := func() {}

	var loggers []log.Logger
	if *protocolLog != "" {
		fl, err := log.NewFileLogger(*protocolLog)
		if err != nil {
			return opts, closeCapture, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		logger.Info("protocol capture", "path", *protocolLog)
		loggers = append(loggers, fl)
		closeCapture = func() {
			if err := fl.Close(); err != nil {
				logger.Warn("closing protocol capture", "error", err)
			}
			logger.Info("protocol capture closed", "events", fl.Written())
		}
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	// Only set the logger when non-nil to avoid a typed-nil interface.
	switch len(loggers) {
	case 0:
	case 1:
		opts.ProtocolLogger = loggers[0]
	default:
		opts.ProtocolLogger = log.NewMultiLogger(loggers...)
	}
	return opts, closeCapture, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
