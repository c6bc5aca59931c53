// Command ffconvert converts a media library to H.265 + AAC in MP4/MKV,
// re-encoding only the streams that need it. It also has an info mode that
// prints codecs and bitrates, and a subtitle-only mode that re-encodes
// legacy .srt sidecars to UTF-8.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/ffconvert/internal/check"
	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/display"
	"github.com/backmassage/ffconvert/internal/logging"
	"github.com/backmassage/ffconvert/internal/pipeline"
	"github.com/backmassage/ffconvert/internal/probe"
	"github.com/backmassage/ffconvert/internal/subtitle"
	"github.com/backmassage/ffconvert/internal/workers"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "1.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args and executes the selected mode. It returns the process
// exit status: 0 on success, 1 on runtime failure, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	var flags config.Flags
	code := 0

	cmd := &cobra.Command{
		Use:           "ffconvert [flags] <file|directory>",
		Short:         "Convert media files to H.265 + AAC, copying streams that are already compatible",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ShowVersion {
				fmt.Fprintf(stdout, "ffconvert %s\n", version)
				return nil
			}
			if len(args) == 0 && !flags.CheckOnly {
				return cmd.Help()
			}
			cfg, err := flags.Resolve(cmd.Flags(), args)
			if err != nil {
				return err
			}
			code = execute(&cfg, stdout)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	flags.Define(cmd.Flags())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrUsage, err)
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "ffconvert: %v\n", err)
		if errors.Is(err, config.ErrUsage) {
			fmt.Fprintln(stderr)
			fmt.Fprint(stderr, cmd.UsageString())
			return 2
		}
		return 1
	}
	return code
}

// execute runs one mode against a validated config.
func execute(cfg *config.Config, stdout io.Writer) int {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ffconvert: %v\n", err)
		return 1
	}
	defer log.Close()

	if cfg.LogFile == "" {
		display.PrintBanner(stdout, version)
	}
	if cfg.ConfigFile != "" {
		log.Debug("Config file: %s", cfg.ConfigFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tools := check.LookupTools(cfg)
	if cfg.CheckOnly {
		check.RunCheck(ctx, cfg, tools, log)
		return 0
	}
	if err := check.CheckDeps(ctx, cfg, tools); err != nil {
		log.Error("%v", err)
		log.Error("Run with --check for details")
		return 1
	}

	switch {
	case cfg.InfoOnly:
		return runInfo(ctx, cfg, tools, stdout, log)
	case cfg.SubsOnly:
		return runSubs(ctx, cfg, tools, log)
	}
	return runConvert(ctx, cfg, tools, log)
}

func runInfo(ctx context.Context, cfg *config.Config, tools check.Tools, stdout io.Writer, log *logging.Logger) int {
	table := stdout
	if cfg.LogFile != "" {
		table = log.InfoWriter()
	}
	jobs := workers.Jobs(cfg.Jobs, config.MaxJobs)
	stats, err := pipeline.Info(ctx, cfg, probe.Prober{Bin: tools.FFprobe}, jobs, table, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if stats.Failed > 0 {
		return 1
	}
	return 0
}

func runSubs(ctx context.Context, cfg *config.Config, tools check.Tools, log *logging.Logger) int {
	stats, err := pipeline.Subtitles(ctx, cfg, subtitle.NewProcessor(cfg, tools, log), log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if stats.Failed > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}

func runConvert(ctx context.Context, cfg *config.Config, tools check.Tools, log *logging.Logger) int {
	runner := pipeline.NewRunner(cfg, log, tools)
	if cfg.DryRun {
		log.Warn("DRY RUN: nothing will be written")
	}

	stats, err := runner.Run(ctx)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	pipeline.LogSummary(log, stats)

	if cfg.MetricsFile != "" {
		if err := pipeline.WriteMetrics(cfg.MetricsFile, stats); err != nil {
			log.Warn("Could not write metrics: %v", err)
		} else {
			log.Debug("Metrics written to %s", cfg.MetricsFile)
		}
	}

	if stats.Failed() > 0 || ctx.Err() != nil {
		return 1
	}
	return 0
}
