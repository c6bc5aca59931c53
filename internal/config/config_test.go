package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.InputPath = "/media/in"
	return cfg
}

func TestValidate_RequiresInputPath(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when the input path is empty")
	}

	cfg.InputPath = "/media/in"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_CheckOnlySkipsInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckOnly = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() should pass without input when CheckOnly is true, got: %v", err)
	}
}

func TestValidate_ColorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    ColorMode
		wantErr bool
	}{
		{"auto is valid", ColorAuto, false},
		{"always is valid", ColorAlways, false},
		{"never is valid", ColorNever, false},
		{"empty is invalid", "", true},
		{"unknown is invalid", "rainbow", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ColorMode = tt.mode
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"crf lower bound", func(c *Config) { c.CRF = 0 }, false},
		{"crf upper bound", func(c *Config) { c.CRF = 51 }, false},
		{"crf too high", func(c *Config) { c.CRF = 52 }, true},
		{"crf negative", func(c *Config) { c.CRF = -1 }, true},
		{"negative bitrate ceiling", func(c *Config) { c.MaxVideoBitrate = -5 }, true},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, true},
		{"empty video encoder", func(c *Config) { c.VideoEncoder = " " }, true},
		{"empty prefix", func(c *Config) { c.OutputPrefix = "" }, true},
		{"bad unknown-codec policy", func(c *Config) { c.UnknownCodec = "drop" }, true},
		{"bad default audio bitrate", func(c *Config) { c.DefaultAudioBitrate = "loud" }, true},
		{"no extensions", func(c *Config) { c.SupportedExtensions = []string{" "} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AudioTiers(t *testing.T) {
	tests := []struct {
		name    string
		tiers   []AudioTier
		wantErr bool
	}{
		{"default table", DefaultConfig().AudioBitrates, false},
		{"single tier", []AudioTier{{Channels: 8, Bitrate: "640"}}, false},
		{"empty table", nil, true},
		{"channels not increasing", []AudioTier{{2, "384k"}, {2, "448k"}}, true},
		{"bitrate decreasing", []AudioTier{{2, "384k"}, {6, "256k"}}, true},
		{"equal bitrates allowed", []AudioTier{{2, "384k"}, {6, "384k"}}, false},
		{"invalid bitrate", []AudioTier{{2, "abc"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.AudioBitrates = tt.tiers
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Canonicalizes(t *testing.T) {
	cfg := validConfig()
	cfg.ForcedVideoCodecs = []string{" mpeg4-xvid ", "", "msmpeg4v3"}
	cfg.ForcedAudioCodecs = []string{"dts"}
	cfg.SupportedExtensions = []string{"MKV", ".Avi"}
	cfg.AudioBitrates = []AudioTier{{Channels: 2, Bitrate: "384kbps"}, {Channels: 6, Bitrate: "768K"}}
	cfg.DefaultAudioBitrate = "640"

	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"MPEG4-XVID", "MSMPEG4V3"}, cfg.ForcedVideoCodecs)
	assert.Equal(t, []string{"DTS"}, cfg.ForcedAudioCodecs)
	assert.Equal(t, []string{".mkv", ".avi"}, cfg.SupportedExtensions)
	assert.Equal(t, "384k", cfg.AudioBitrates[0].Bitrate)
	assert.Equal(t, "768k", cfg.AudioBitrates[1].Bitrate)
	assert.Equal(t, "640k", cfg.DefaultAudioBitrate)
}

func TestNormalizeAudioBitrate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"384", "384k", false},
		{"384k", "384k", false},
		{"384K", "384k", false},
		{"384kbps", "384k", false},
		{" 448 k ", "448k", false},
		{"", "", true},
		{"0", "", true},
		{"-1k", "", true},
		{"fast", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeAudioBitrate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeAudioBitrate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizeAudioBitrate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsSupported(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.IsSupported("/a/movie.AVI"))
	assert.True(t, cfg.IsSupported("clip.mpeg"))
	assert.False(t, cfg.IsSupported("notes.srt"))
	assert.False(t, cfg.IsSupported("noext"))
}

func TestDefaultConfig_SaneDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "libx265", cfg.VideoEncoder)
	assert.Equal(t, "aac", cfg.AudioEncoder)
	assert.Equal(t, "fast", cfg.Preset)
	assert.Equal(t, 20, cfg.CRF)
	assert.Equal(t, 48000, cfg.AudioSampleRate)
	assert.Equal(t, []string{"MPEG4-XVID"}, cfg.ForcedVideoCodecs)
	assert.Equal(t, []string{"DTS", "TRUEHD"}, cfg.ForcedAudioCodecs)
	assert.Equal(t, UnknownCopy, cfg.UnknownCodec)
	assert.False(t, cfg.CopyAllStreams)
	assert.False(t, cfg.DryRun)
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffconvert.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile_Overlay(t *testing.T) {
	path := writeYAML(t, `
crf: 24
max_video_bitrate: 8000
forced_audio_codecs: [dts, truehd, flac]
audio_bitrates:
  - {channels: 2, bitrate: 256k}
  - {channels: 8, bitrate: 640k}
`)
	cfg := DefaultConfig()
	got, err := LoadFile(&cfg, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, 24, cfg.CRF)
	assert.Equal(t, 8000, cfg.MaxVideoBitrate)
	assert.Equal(t, []string{"dts", "truehd", "flac"}, cfg.ForcedAudioCodecs)
	assert.Len(t, cfg.AudioBitrates, 2)
	// Untouched keys keep their defaults.
	assert.Equal(t, "libx265", cfg.VideoEncoder)
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	path := writeYAML(t, "crf_value: 10\n")
	cfg := DefaultConfig()
	_, err := LoadFile(&cfg, path)
	assert.Error(t, err)
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	cfg := DefaultConfig()
	_, err := LoadFile(&cfg, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func parseFlags(t *testing.T, args ...string) (*Flags, *pflag.FlagSet) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var f Flags
	fs := pflag.NewFlagSet("ffconvert", pflag.ContinueOnError)
	f.Define(fs)
	require.NoError(t, fs.Parse(args))
	return &f, fs
}

func TestResolve_FlagsAfterPositional(t *testing.T) {
	f, fs := parseFlags(t, "/media/in", "--dry-run", "--max-video-bitrate", "5000", "-j", "3")
	cfg, err := f.Resolve(fs, fs.Args())
	require.NoError(t, err)

	assert.Equal(t, "/media/in", cfg.InputPath)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 5000, cfg.MaxVideoBitrate)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestResolve_Precedence(t *testing.T) {
	path := writeYAML(t, "crf: 26\nmax_video_bitrate: 4000\ncopy_all_streams: true\n")

	t.Run("yaml over defaults", func(t *testing.T) {
		f, fs := parseFlags(t, "--config", path, "in.mkv")
		cfg, err := f.Resolve(fs, fs.Args())
		require.NoError(t, err)
		assert.Equal(t, 26, cfg.CRF)
		assert.Equal(t, 4000, cfg.MaxVideoBitrate)
		assert.True(t, cfg.CopyAllStreams)
		assert.False(t, cfg.CRFOverride)
	})

	t.Run("flags over yaml", func(t *testing.T) {
		f, fs := parseFlags(t, "--config", path, "in.mkv", "--crf", "18")
		cfg, err := f.Resolve(fs, fs.Args())
		require.NoError(t, err)
		assert.Equal(t, 18, cfg.CRF)
		assert.True(t, cfg.CRFOverride)
		assert.Equal(t, 4000, cfg.MaxVideoBitrate)
	})

	t.Run("output-mp4 resets copy-all", func(t *testing.T) {
		f, fs := parseFlags(t, "--config", path, "in.mkv", "--output-mp4")
		cfg, err := f.Resolve(fs, fs.Args())
		require.NoError(t, err)
		assert.True(t, cfg.OutputMP4)
		assert.False(t, cfg.CopyAllStreams)
	})
}

func TestResolve_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"--dry-run"}},
		{"two inputs", []string{"a", "b"}},
		{"crf out of range", []string{"in", "--crf", "70"}},
		{"bad unknown-codec", []string{"in", "--unknown-codec", "drop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, fs := parseFlags(t, tt.args...)
			_, err := f.Resolve(fs, fs.Args())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUsage), "error %v should wrap ErrUsage", err)
		})
	}
}

func TestResolve_ColorFlags(t *testing.T) {
	f, fs := parseFlags(t, "in", "--color", "--no-color")
	cfg, err := f.Resolve(fs, fs.Args())
	require.NoError(t, err)
	assert.Equal(t, ColorNever, cfg.ColorMode, "--no-color wins over --color")
}
