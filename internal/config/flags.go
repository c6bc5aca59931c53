package config

// This file registers CLI flags on a pflag.FlagSet and resolves the final
// Config. Flags are captured into a Flags value first and only applied when
// the user actually set them, so precedence is flags > YAML file > defaults.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ErrUsage marks configuration and argument errors (exit status 2).
var ErrUsage = errors.New("usage error")

// Flags holds raw CLI flag values until they are applied to a Config.
type Flags struct {
	InfoOnly        bool
	SubsOnly        bool
	LogFile         string
	DryRun          bool
	OutputMP4       bool
	MaxVideoBitrate int
	CRF             int
	Force           bool
	CopyAll         bool
	Jobs            int
	ConfigFile      string
	MetricsFile     string
	UnknownCodec    string
	Verbose         bool
	ForceColor      bool
	NoColor         bool
	CheckOnly       bool
	ShowVersion     bool
}

// Define registers every flag on fs. Flags may appear before or after the
// positional input path.
func (f *Flags) Define(fs *pflag.FlagSet) {
	def := DefaultConfig()

	// Modes
	fs.BoolVarP(&f.InfoOnly, "info", "i", false, "Print video/audio codec and video bitrate only")
	fs.BoolVarP(&f.SubsOnly, "subs-only", "s", false, "Only convert sidecar .srt subtitles to UTF-8")
	fs.BoolVarP(&f.DryRun, "dry-run", "d", false, "Show what would be done without converting")

	// Conversion
	fs.BoolVar(&f.OutputMP4, "output-mp4", false, "Force MP4 output (disables --copy-all)")
	fs.IntVar(&f.MaxVideoBitrate, "max-video-bitrate", 0, "Re-encode video above this bitrate in kbps (0 = no limit)")
	fs.IntVar(&f.CRF, "crf", def.CRF, "Constant rate factor for video re-encoding (0-51)")
	fs.BoolVarP(&f.Force, "force", "f", false, "Transcode the first video and audio stream regardless of rules")
	fs.BoolVar(&f.CopyAll, "copy-all", false, "Keep all video and audio streams (MKV output only)")
	fs.StringVar(&f.UnknownCodec, "unknown-codec", string(def.UnknownCodec), "Streams with no codec name: copy | transcode")
	fs.IntVarP(&f.Jobs, "jobs", "j", 0, "Files converted in parallel (0 = CPU count, max 16)")

	// Files
	fs.StringVar(&f.ConfigFile, "config", "", "YAML config file (default: ./ffconvert.yaml, ~/.config/ffconvert/config.yaml)")
	fs.StringVar(&f.LogFile, "log", "", "Write logs to this file instead of the console")
	fs.StringVar(&f.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")

	// Display
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&f.ForceColor, "color", false, "Force colored logs")
	fs.BoolVar(&f.NoColor, "no-color", false, "Disable colored logs")
	fs.BoolVarP(&f.CheckOnly, "check", "c", false, "Run system diagnostics and exit")
	fs.BoolVarP(&f.ShowVersion, "version", "V", false, "Print version and exit")
}

// Resolve builds the final Config: defaults, then the YAML file, then every
// flag the user set on fs, then the positional args. The result is
// validated; errors wrap ErrUsage.
func (f *Flags) Resolve(fs *pflag.FlagSet, args []string) (Config, error) {
	cfg := DefaultConfig()

	path, err := LoadFile(&cfg, f.ConfigFile)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	cfg.ConfigFile = path

	f.apply(&cfg, fs)

	if len(args) > 1 {
		return cfg, fmt.Errorf("%w: expected one input path, got %d (%s)", ErrUsage, len(args), strings.Join(args, ", "))
	}
	if len(args) == 1 {
		cfg.InputPath = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return cfg, nil
}

// apply copies set flags into cfg. Mode flags are CLI-only and always copied.
func (f *Flags) apply(cfg *Config, fs *pflag.FlagSet) {
	cfg.InfoOnly = f.InfoOnly
	cfg.SubsOnly = f.SubsOnly
	cfg.DryRun = f.DryRun
	cfg.Force = f.Force
	cfg.OutputMP4 = f.OutputMP4
	cfg.CheckOnly = f.CheckOnly

	if fs.Changed("max-video-bitrate") {
		cfg.MaxVideoBitrate = f.MaxVideoBitrate
	}
	if fs.Changed("crf") {
		cfg.CRF = f.CRF
		cfg.CRFOverride = true
	}
	if fs.Changed("copy-all") {
		cfg.CopyAllStreams = f.CopyAll
	}
	if fs.Changed("unknown-codec") {
		cfg.UnknownCodec = UnknownCodecPolicy(strings.ToLower(f.UnknownCodec))
	}
	if fs.Changed("jobs") {
		cfg.Jobs = f.Jobs
	}
	if fs.Changed("log") {
		cfg.LogFile = f.LogFile
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = f.MetricsFile
	}
	if f.Verbose {
		cfg.Verbose = true
	}
	if f.NoColor {
		cfg.ColorMode = ColorNever
	} else if f.ForceColor {
		cfg.ColorMode = ColorAlways
	}
	if cfg.OutputMP4 {
		cfg.CopyAllStreams = false
	}
}
