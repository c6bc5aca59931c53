// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) for ffmpeg, ffprobe, the configured
// encoders, and the optional subtitle helpers file and iconv.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrEncoderMissing  = errors.New("encoder not available in ffmpeg")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Tools holds resolved executable paths; an empty field means not found.
type Tools struct {
	FFmpeg  string
	FFprobe string
	File    string
	Iconv   string
}

// LookupTools resolves every external tool once.
func LookupTools(cfg *config.Config) Tools {
	return Tools{
		FFmpeg:  lookPath(cfg.FFmpegPath),
		FFprobe: lookPath(cfg.FFprobePath),
		File:    lookPath("file"),
		Iconv:   lookPath("iconv"),
	}
}

func lookPath(name string) string {
	if name == "" {
		return ""
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return p
}

// CheckDeps is the pre-run validation. Info mode needs only ffprobe,
// subtitle-only mode needs nothing, conversion needs both tools, and a real
// (non dry-run) conversion also needs the configured encoders.
func CheckDeps(ctx context.Context, cfg *config.Config, tools Tools) error {
	if cfg.SubsOnly && !cfg.InfoOnly {
		return nil
	}
	if tools.FFprobe == "" {
		return ErrFfprobeNotFound
	}
	if cfg.InfoOnly {
		return nil
	}
	if tools.FFmpeg == "" {
		return ErrFfmpegNotFound
	}
	if cfg.DryRun {
		return nil
	}

	encoders, err := Encoders(ctx, tools.FFmpeg)
	if err != nil {
		return err
	}
	for _, enc := range []string{cfg.VideoEncoder, cfg.AudioEncoder} {
		if !encoders[enc] {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, enc)
		}
	}
	return nil
}

// Encoders lists the encoder names reported by `ffmpeg -encoders`.
func Encoders(ctx context.Context, ffmpeg string) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, ffmpeg, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list ffmpeg encoders: %w", err)
	}
	return parseEncoders(string(out)), nil
}

// parseEncoders reads lines like " V....D libx265    libx265 H.265 / HEVC".
// The legend above the "------" separator is skipped.
func parseEncoders(out string) map[string]bool {
	encoders := make(map[string]bool)
	started := false
	for _, line := range strings.Split(out, "\n") {
		if !started {
			started = strings.HasPrefix(strings.TrimSpace(line), "---")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders
}

// RunCheck runs the interactive --check flow: prints availability of
// ffmpeg, ffprobe, the configured encoders, and the subtitle helpers.
// This is informational only and does not stop on failure.
func RunCheck(ctx context.Context, cfg *config.Config, tools Tools, log Logger) {
	log.Info("=== System Check ===")

	if tools.FFmpeg == "" {
		log.Error("ffmpeg not found (%s)", cfg.FFmpegPath)
	} else {
		log.Success("ffmpeg: %s", toolVersion(ctx, tools.FFmpeg))
	}
	if tools.FFprobe == "" {
		log.Error("ffprobe not found (%s)", cfg.FFprobePath)
	} else {
		log.Success("ffprobe: %s", toolVersion(ctx, tools.FFprobe))
	}

	if tools.FFmpeg != "" {
		encoders, err := Encoders(ctx, tools.FFmpeg)
		if err != nil {
			log.Warn("Could not list encoders: %v", err)
		} else {
			for _, enc := range []string{cfg.VideoEncoder, cfg.AudioEncoder} {
				if encoders[enc] {
					log.Success("encoder %s available", enc)
				} else {
					log.Error("encoder %s missing", enc)
				}
			}
		}
	}

	if tools.File == "" {
		log.Warn("file not found; subtitle charsets detected natively")
	} else {
		log.Success("file: %s", tools.File)
	}
	if tools.Iconv == "" {
		log.Warn("iconv not found; subtitles converted natively")
	} else {
		log.Success("iconv: %s", tools.Iconv)
	}
}

// toolVersion returns the first line of `<bin> -version`.
func toolVersion(ctx context.Context, bin string) string {
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return "found, but -version failed"
	}
	first := strings.TrimSpace(string(out))
	if idx := strings.Index(first, "\n"); idx > 0 {
		first = first[:idx]
	}
	return first
}
