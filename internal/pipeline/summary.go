package pipeline

import (
	"github.com/backmassage/ffconvert/internal/display"
	"github.com/backmassage/ffconvert/internal/logging"
)

// LogSummary prints converted and failed files, the counters, the pool
// size and the elapsed time.
func LogSummary(log *logging.Logger, s *RunStats) {
	if files := s.ConvertedFiles(); len(files) > 0 {
		log.Info("Converted files:")
		for _, f := range files {
			log.Info("  %s (video was: %s, audio was: %s, bitrate was: %s)",
				f.Path, f.Video, f.Audio, display.FormatBitrate(f.BitrateKbps))
		}
	}
	if failed := s.FailedFiles(); len(failed) > 0 {
		log.Error("Failed files:")
		for _, f := range failed {
			log.Error("  %s", f)
		}
	}

	log.Info("==============================")
	log.Info("Summary:")
	log.Info("  Total files checked: %d", s.Total)
	log.Info("  Converted: %d", s.Converted())
	log.Info("  Skipped: %d", s.Skipped())
	if s.Failed() > 0 {
		log.Error("  Failed: %d", s.Failed())
	} else {
		log.Info("  Failed: 0")
	}
	log.Info("  Using %d job(s) with %d encoder thread(s) each", s.Jobs, s.Threads)
	log.Info("  Total elapsed time (dd:hh:mm:ss): %s", display.FormatElapsed(s.Elapsed))

	if s.DryRun {
		log.Warn("DRY RUN: no files were actually converted")
		return
	}
	if s.Converted() == 0 {
		return
	}
	saved := s.SpaceSaved()
	if saved >= 0 {
		log.Success("  Space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(s.InputBytes()),
			display.FormatBytes(s.OutputBytes()))
	} else {
		log.Warn("  Output is %s larger than the input", display.FormatBytes(-saved))
	}
}
