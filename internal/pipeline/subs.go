package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/logging"
	"github.com/backmassage/ffconvert/internal/naming"
	"github.com/backmassage/ffconvert/internal/subtitle"
)

// SubStats counts the subtitle-only pass.
type SubStats struct {
	Checked int
	Created int
	Failed  int
}

// SubtitleConverter is the part of subtitle.Processor the pass needs.
type SubtitleConverter interface {
	ConvertFile(ctx context.Context, srt string) (subtitle.Outcome, error)
}

// Subtitles converts every legacy-encoded .srt under cfg.InputPath to a
// "<stem>.utf8.srt" sibling. A video file input is mapped to its sidecar.
func Subtitles(ctx context.Context, cfg *config.Config, conv SubtitleConverter, log *logging.Logger) (SubStats, error) {
	files, err := discover(cfg.InputPath, func(path string) bool {
		return isSRT(path) && !subtitle.IsConverted(path) && !naming.IsOutput(path, cfg.OutputPrefix)
	})
	if err != nil {
		return SubStats{}, err
	}

	var stats SubStats
	for _, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		if !isSRT(path) {
			path, _ = subtitle.SidecarPaths(path)
		}
		stats.Checked++
		outcome, err := conv.ConvertFile(ctx, path)
		if err != nil {
			log.Error("%v", err)
			stats.Failed++
			continue
		}
		switch outcome {
		case subtitle.OutcomeConverted:
			stats.Created++
		case subtitle.OutcomeNone:
			log.Warn("No subtitle found: %s", filepath.Base(path))
		}
	}

	log.Info("Subtitles summary:")
	log.Info("  Files checked: %d", stats.Checked)
	log.Info("  Subtitles created: %d", stats.Created)
	if stats.Failed > 0 {
		log.Error("  Failed: %d", stats.Failed)
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no subtitles were actually written")
	}
	return stats, nil
}

func isSRT(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".srt")
}
