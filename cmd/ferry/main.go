package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/platform"
	"github.com/bamsammich/ferry/internal/ui"
	"github.com/bamsammich/ferry/internal/units"
)

var version = "dev"

const (
	exitOK        = 0
	exitFailed    = 1
	exitUsage     = 2
	exitCancelled = 130
)

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	platform.CleanupTmpFiles()
	os.Exit(code)
}

type cliOptions struct {
	move              bool
	continueOnFailure bool
	contents          bool
	restartable       bool
	writeThrough      bool
	interval          time.Duration
	unitsStr          string
	decimals          int
	bwLimitStr        string
	logFile           string
	verbose           bool
	quiet             bool
	showVersion       bool
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
			}
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts cliOptions

	rootCmd := &cobra.Command{
		Use:   "ferry [flags] <source> <destination>",
		Short: "Copy or move files and directory trees with live progress",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(stdout, "ferry %s\n", version)
				return nil
			}
			return runTransfer(cmd, &opts, args[0], args[1], stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	f := rootCmd.Flags()
	f.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	f.BoolVar(&opts.move, "move", false, "move instead of copy (rename, or copy+delete across devices)")
	f.BoolVar(&opts.continueOnFailure, "continue-on-failure", false, "keep copying the rest of a tree after a file fails")
	f.BoolVar(&opts.contents, "contents", false, "copy the contents of a source directory, not the directory itself")
	f.DurationVar(&opts.interval, "interval", 100*time.Millisecond, "minimum time between progress updates (0 = every chunk)")
	f.StringVar(&opts.unitsStr, "units", "windows", "size units: windows, binary or metric")
	f.IntVar(&opts.decimals, "decimals", 1, "decimal places in sizes")
	f.BoolVar(&opts.restartable, "restartable", false, "keep partial files on failure and resume them next time")
	f.BoolVar(&opts.writeThrough, "write-through", false, "fsync each file before reporting it complete")
	f.StringVar(&opts.bwLimitStr, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	f.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

//nolint:revive // cognitive-complexity: CLI entry point wires every flag
func runTransfer(cmd *cobra.Command, opts *cliOptions, src, dst string, stderr io.Writer) error {
	// Load optional config file.
	cfg, cfgErr := config.Load()

	// Apply config defaults for flags not explicitly set on CLI.
	if cfgErr == nil {
		applyConfigDefaults(cmd.Flags(), cfg.Defaults, opts)
	}

	// Configure logging.
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	} else if !opts.quiet {
		logLevel = slog.LevelInfo
	}
	var logHandler slog.Handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})
	if opts.logFile != "" {
		lf, err := os.Create(opts.logFile)
		if err != nil {
			return &exitError{code: exitUsage, err: fmt.Errorf("open log file: %w", err)}
		}
		defer lf.Close()
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(logHandler, jsonHandler)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Warn("failed to load config", "path", config.Path(), "error", cfgErr)
	}

	style, err := units.ParseStyle(opts.unitsStr)
	if err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("invalid --units: %w", err)}
	}
	if opts.decimals < 0 {
		return &exitError{code: exitUsage, err: fmt.Errorf("invalid --decimals: %d", opts.decimals)}
	}
	var bwLimit int64
	if opts.bwLimitStr != "" {
		if bwLimit, err = units.ParseSize(opts.bwLimitStr); err != nil {
			return &exitError{code: exitUsage, err: fmt.Errorf("invalid --bwlimit: %w", err)}
		}
	}

	// Set up context with signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tty := isTerminal(stderr)
	printer := ui.NewPrinter(ui.PrinterConfig{
		Writer:   stderr,
		Style:    style,
		Decimals: opts.decimals,
		TTY:      tty,
		Width:    termWidth(stderr),
	})
	onProgress := printer.Update
	if opts.quiet {
		onProgress = nil
	}

	eng := engine.New(engine.Config{Logger: logger})

	if opts.move {
		err := eng.MoveFile(src, dst, onProgress)
		printer.Finish()
		if err != nil {
			code := exitFailed
			if errors.Is(err, engine.ErrInvalidArgument) {
				code = exitUsage
			}
			return &exitError{code: code, err: err}
		}
		logger.Info("moved", "src", src, "dst", dst)
		return nil
	}

	interval := opts.interval
	if interval <= 0 {
		interval = engine.NoThrottle
	}
	res, err := eng.Transfer(ctx, src, dst, onProgress, engine.Options{
		ContinueOnFailure:  opts.continueOnFailure,
		CopyFolderContents: opts.contents,
		ProgressInterval:   interval,
		Restartable:        opts.restartable,
		WriteThrough:       opts.writeThrough,
		BandwidthLimit:     bwLimit,
	})
	printer.Finish()
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	if !opts.quiet {
		for _, line := range ui.FailureLines(res) {
			fmt.Fprintln(stderr, line)
		}
		fmt.Fprintln(stderr, ui.Summary(res, ui.SummaryConfig{
			Style:    style,
			Decimals: opts.decimals,
			Color:    tty,
			Theme:    ui.ThemeFrom(cfg.Theme),
		}))
	}

	switch res.Status {
	case engine.Cancelled:
		logger.Warn("transfer cancelled", "stats", res.Stats.String())
		return &exitError{code: exitCancelled}
	case engine.Failed:
		return &exitError{code: exitFailed, err: res.Err}
	}
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(flags *pflag.FlagSet, defaults config.DefaultsConfig, opts *cliOptions) {
	setBool := func(name string, dst *bool, v *bool) {
		if !flags.Changed(name) && v != nil {
			*dst = *v
		}
	}
	setBool("continue-on-failure", &opts.continueOnFailure, defaults.ContinueOnFailure)
	setBool("contents", &opts.contents, defaults.Contents)
	setBool("restartable", &opts.restartable, defaults.Restartable)
	setBool("write-through", &opts.writeThrough, defaults.WriteThrough)

	if !flags.Changed("interval") && defaults.Interval != nil {
		if d, err := time.ParseDuration(*defaults.Interval); err == nil {
			opts.interval = d
		}
	}
	if !flags.Changed("units") && defaults.Units != nil {
		opts.unitsStr = *defaults.Units
	}
	if !flags.Changed("decimals") && defaults.Decimals != nil {
		opts.decimals = *defaults.Decimals
	}
	if !flags.Changed("bwlimit") && defaults.BWLimit != nil {
		opts.bwLimitStr = *defaults.BWLimit
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return ui.TermWidth(f.Fd())
	}
	return 80
}

type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }
