// Package config holds runtime configuration: defaults, the optional YAML
// overlay, CLI flag parsing, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// --- Enum types for validated string fields ---

// Container is the output container format.
type Container string

const (
	ContainerMKV Container = "mkv" // Matroska (any subtitle codec can be copied).
	ContainerMP4 Container = "mp4" // MP4 family (mov_text subtitles only).
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// UnknownCodecPolicy decides what happens to a stream whose codec name the
// prober could not report.
type UnknownCodecPolicy string

const (
	UnknownCopy      UnknownCodecPolicy = "copy"      // Pass through untouched (default, logged).
	UnknownTranscode UnknownCodecPolicy = "transcode" // Treat as not allowed.
)

// AudioTier is one step of the channel → bitrate table. A tier applies to
// sources with at most Channels channels that did not match a smaller tier.
type AudioTier struct {
	Channels int    `yaml:"channels"`
	Bitrate  string `yaml:"bitrate"`
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// overlaid with the YAML file (if any), then with CLI flags, and finally
// checked by [Config.Validate]. Fields tagged yaml:"-" are CLI-only.
type Config struct {
	// Input (positional argument).
	InputPath string `yaml:"-"`

	// Run modes.
	InfoOnly  bool `yaml:"-"` // -i: print codec info only.
	SubsOnly  bool `yaml:"-"` // -s: convert sidecar subtitles only.
	DryRun    bool `yaml:"-"`
	Force     bool `yaml:"-"` // Transcode first video+audio regardless of rules.
	CheckOnly bool `yaml:"-"` // --check: system diagnostics, no input needed.

	// Output format.
	OutputMP4      bool   `yaml:"-"`                // --output-mp4.
	CopyAllStreams bool   `yaml:"copy_all_streams"` // Forced off for MP4 targets.
	OutputPrefix   string `yaml:"output_prefix"`    // Default: "conv-".

	// Video encoding.
	VideoEncoder      string   `yaml:"video_encoder"`       // Default: "libx265".
	Preset            string   `yaml:"preset"`              // Default: "fast".
	CRF               int      `yaml:"crf"`                 // Default: 20.
	MaxVideoBitrate   int      `yaml:"max_video_bitrate"`   // kbps; 0 disables the ceiling.
	ForcedVideoCodecs []string `yaml:"forced_video_codecs"` // Default: MPEG4-XVID.

	// Audio encoding.
	AudioEncoder        string      `yaml:"audio_encoder"`         // Default: "aac".
	ForcedAudioCodecs   []string    `yaml:"forced_audio_codecs"`   // Default: DTS, TRUEHD.
	AudioBitrates       []AudioTier `yaml:"audio_bitrates"`        // Channel step table.
	DefaultAudioBitrate string      `yaml:"default_audio_bitrate"` // Unknown channel count. Default: "768k".
	AudioSampleRate     int         `yaml:"audio_sample_rate"`     // Fixed: 48000 Hz.

	// Policy for streams without a codec name.
	UnknownCodec UnknownCodecPolicy `yaml:"unknown_codec"`

	// Inputs.
	SupportedExtensions []string `yaml:"supported_extensions"`

	// Subtitles.
	SubtitleCharset string   `yaml:"subtitle_charset"` // Source charset of legacy .srt files.
	LegacyEncodings []string `yaml:"legacy_encodings"` // `file --mime-encoding` values that need conversion.

	// Concurrency.
	Jobs    int `yaml:"jobs"`    // Parallel files; 0 = available CPUs capped at MaxJobs.
	Threads int `yaml:"threads"` // Total encoder threads; 0 = available CPUs capped at MaxJobs.

	// External tools.
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Display and logging.
	Verbose          bool      `yaml:"verbose"`
	ColorMode        ColorMode `yaml:"color"`
	LogFile          string    `yaml:"log_file"`
	MetricsFile      string    `yaml:"metrics_file"`
	ProgressInterval int       `yaml:"progress_interval"` // Seconds between progress lines. Default: 10.

	// Set by the flag layer for display only.
	ConfigFile  string `yaml:"-"`
	CRFOverride bool   `yaml:"-"`
}

// MaxJobs caps the worker pool and the encoder thread count.
const MaxJobs = 16

// DefaultConfig returns the built-in settings: libx265 at CRF 20, AAC audio,
// conv- prefixed outputs. Used as the base before the YAML file and CLI
// flags are applied.
func DefaultConfig() Config {
	return Config{
		OutputPrefix:      "conv-",
		VideoEncoder:      "libx265",
		Preset:            "fast",
		CRF:               20,
		ForcedVideoCodecs: []string{"MPEG4-XVID"},
		AudioEncoder:      "aac",
		ForcedAudioCodecs: []string{"DTS", "TRUEHD"},
		AudioBitrates: []AudioTier{
			{Channels: 2, Bitrate: "384k"},
			{Channels: 3, Bitrate: "448k"},
			{Channels: 6, Bitrate: "768k"},
			{Channels: 7, Bitrate: "1024k"},
			{Channels: 8, Bitrate: "1536k"},
		},
		DefaultAudioBitrate: "768k",
		AudioSampleRate:     48000,
		UnknownCodec:        UnknownCopy,
		SupportedExtensions: []string{".avi", ".mkv", ".mp4", ".mpg", ".mpeg", ".mov", ".wmv"},
		SubtitleCharset:     "windows-1250",
		LegacyEncodings:     []string{"unknown-8bit", "windows-1250", "iso-8859-1", "iso-8859-2"},
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		ColorMode:           ColorAuto,
		ProgressInterval:    10,
	}
}

// Validate checks enum fields and numeric ranges, and canonicalizes codec
// lists, extensions and bitrates. A positional input path is required
// unless CheckOnly is set.
func (c *Config) Validate() error {
	if c.InputPath == "" && !c.CheckOnly {
		return errors.New("missing input path (file or directory)")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	switch c.UnknownCodec {
	case UnknownCopy, UnknownTranscode:
		// valid
	default:
		return fmt.Errorf("invalid unknown_codec policy %q (use 'copy' or 'transcode')", c.UnknownCodec)
	}

	if c.CRF < 0 || c.CRF > 51 {
		return fmt.Errorf("CRF must be between 0 and 51 (got %d)", c.CRF)
	}
	if c.MaxVideoBitrate < 0 {
		return fmt.Errorf("max video bitrate must not be negative (got %d)", c.MaxVideoBitrate)
	}
	if c.Jobs < 0 || c.Threads < 0 {
		return errors.New("jobs and threads must not be negative")
	}
	if strings.TrimSpace(c.VideoEncoder) == "" || strings.TrimSpace(c.AudioEncoder) == "" {
		return errors.New("video and audio encoders must be set")
	}
	if c.OutputPrefix == "" {
		return errors.New("output prefix must not be empty")
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 10
	}

	c.ForcedVideoCodecs = upperAll(c.ForcedVideoCodecs)
	c.ForcedAudioCodecs = upperAll(c.ForcedAudioCodecs)
	c.SupportedExtensions = normalizeExtensions(c.SupportedExtensions)
	if len(c.SupportedExtensions) == 0 {
		return errors.New("supported extensions must not be empty")
	}

	def, err := normalizeAudioBitrate(c.DefaultAudioBitrate)
	if err != nil {
		return err
	}
	c.DefaultAudioBitrate = def
	return c.validateAudioTiers()
}

// validateAudioTiers requires a non-empty table with strictly increasing
// channel bounds and non-decreasing bitrates, so more channels never get a
// smaller budget.
func (c *Config) validateAudioTiers() error {
	if len(c.AudioBitrates) == 0 {
		return errors.New("audio bitrate table must not be empty")
	}
	prevCh, prevKbps := 0, 0
	for i, t := range c.AudioBitrates {
		br, err := normalizeAudioBitrate(t.Bitrate)
		if err != nil {
			return fmt.Errorf("audio bitrate tier %d: %w", i, err)
		}
		c.AudioBitrates[i].Bitrate = br
		kbps := KbpsOf(br)
		if t.Channels <= prevCh {
			return fmt.Errorf("audio bitrate tier %d: channels must increase (got %d after %d)", i, t.Channels, prevCh)
		}
		if kbps < prevKbps {
			return fmt.Errorf("audio bitrate tier %d: bitrate %s is lower than the previous tier", i, br)
		}
		prevCh, prevKbps = t.Channels, kbps
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "256", "256k", "256K", "256kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 384k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

// KbpsOf returns the numeric value of a canonical "<n>k" bitrate, or 0.
func KbpsOf(bitrate string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(bitrate, "k"))
	if err != nil {
		return 0
	}
	return n
}

// IsSupported reports whether path has one of the supported extensions.
func (c *Config) IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
