package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/ffconvert/internal/check"
	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/display"
	"github.com/backmassage/ffconvert/internal/ffmpeg"
	"github.com/backmassage/ffconvert/internal/logging"
	"github.com/backmassage/ffconvert/internal/naming"
	"github.com/backmassage/ffconvert/internal/planner"
	"github.com/backmassage/ffconvert/internal/probe"
	"github.com/backmassage/ffconvert/internal/subtitle"
	"github.com/backmassage/ffconvert/internal/workers"
)

// Prober reports the streams of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Result, error)
}

// Encoder runs a built ffmpeg command.
type Encoder interface {
	Execute(ctx context.Context, args []string, opts ffmpeg.ExecOptions) error
}

// Sidecars places subtitle sidecars next to converted outputs.
type Sidecars interface {
	CopyForOutput(ctx context.Context, video, output string) (subtitle.Outcome, error)
}

// Runner converts every discovered file. Its exported fields are the
// collaborators; NewRunner wires the real ones.
type Runner struct {
	Cfg      *config.Config
	Policy   planner.Policy
	Prober   Prober
	Encoder  Encoder
	Sidecars Sidecars
	Log      *logging.Logger
	FFmpeg   string // encoder binary placed in args[0]
	Jobs     int
	Threads  int // per encoder

	resolver *naming.Resolver
	now      func() time.Time
}

// NewRunner builds a Runner on ffprobe, ffmpeg and the subtitle helpers
// found by check.LookupTools.
func NewRunner(cfg *config.Config, log *logging.Logger, tools check.Tools) *Runner {
	jobs := workers.Jobs(cfg.Jobs, config.MaxJobs)
	return &Runner{
		Cfg:      cfg,
		Policy:   planner.NewPolicy(cfg),
		Prober:   probe.Prober{Bin: tools.FFprobe},
		Encoder:  ffmpeg.NewExecutor(),
		Sidecars: subtitle.NewProcessor(cfg, tools, log),
		Log:      log,
		FFmpeg:   tools.FFmpeg,
		Jobs:     jobs,
		Threads:  workers.ThreadsPerJob(cfg.Threads, jobs, config.MaxJobs),
	}
}

// Run processes every input with at most Jobs files in flight. It stops
// handing out files once ctx is cancelled; encoders already running are
// killed through ctx.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	if r.now == nil {
		r.now = time.Now
	}
	if r.resolver == nil {
		r.resolver = naming.NewResolver()
	}

	files, err := Discover(r.Cfg)
	if err != nil {
		return nil, err
	}

	jobs := max(r.Jobs, 1)
	stats := &RunStats{
		Total:   len(files),
		Jobs:    jobs,
		Threads: r.Threads,
		DryRun:  r.Cfg.DryRun,
		Started: r.now(),
	}

	if r.Cfg.Force {
		r.Log.Warn("FORCE mode: the first video and audio stream of every file will be re-encoded")
	}
	r.Log.Info("Found %d file(s) in %s", len(files), r.Cfg.InputPath)

	outputs := r.claimOutputs(files)

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processFile(ctx, i+1, len(files), path, outputs[i], stats)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		r.Log.Warn("Interrupted")
	}
	stats.Elapsed = r.now().Sub(stats.Started)
	return stats, nil
}

// claimOutputs assigns output paths in discovery order, so colliding
// inputs get the same names on every run. Ineligible inputs get "".
func (r *Runner) claimOutputs(files []string) []string {
	outputs := make([]string, len(files))
	for i, path := range files {
		if !r.Cfg.IsSupported(path) || naming.IsOutput(path, r.Cfg.OutputPrefix) {
			continue
		}
		container := planner.ResolveContainer(path, r.Cfg.OutputMP4)
		outputs[i] = r.resolver.Claim(path, naming.OutputPath(path, container, r.Cfg.OutputPrefix))
	}
	return outputs
}

// processFile walks one input through the stages and records its outcome
// in stats. A file cut short by cancellation before encoding starts is
// not counted.
func (r *Runner) processFile(ctx context.Context, n, total int, path, output string, stats *RunStats) {
	if ctx.Err() != nil {
		return
	}
	log := r.Log.With("file", filepath.Base(path))
	log.Info("[%d/%d] %s", n, total, path)

	// --- Eligibility ---
	if !r.Cfg.IsSupported(path) {
		log.Warn("Skipping: %v (%s)", ErrUnsupportedInput, filepath.Ext(path))
		stats.addSkipped()
		return
	}
	if naming.IsOutput(path, r.Cfg.OutputPrefix) {
		log.Info("Already converted (name starts with %q)", r.Cfg.OutputPrefix)
		stats.addSkipped()
		return
	}

	container := planner.ResolveContainer(path, r.Cfg.OutputMP4)
	if want := naming.OutputPath(path, container, r.Cfg.OutputPrefix); want != output {
		if owner, ok := r.resolver.Owner(want); ok {
			log.Info("%s is taken by %s, writing %s", filepath.Base(want), filepath.Base(owner), filepath.Base(output))
		}
	}
	if fileExists(output) {
		log.Info("Already converted (output %s exists)", filepath.Base(output))
		stats.addSkipped()
		return
	}

	// --- Probe ---
	res, err := r.Prober.Probe(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error("%v", err)
		stats.addFailed(path)
		return
	}
	video := res.FirstVideo()
	if video == nil {
		log.Warn("Skipping: could not detect a video stream")
		stats.addSkipped()
		return
	}

	// --- Decide ---
	plan := planner.Decide(res.Streams, r.Policy, container)
	r.logPlan(log, res, plan)
	if !plan.NeedsConversion() {
		log.Info("Already in a compatible format")
		stats.addSkipped()
		return
	}

	// --- Build ---
	args := ffmpeg.Build(plan, path, output, ffmpeg.BuildOptions{
		Bin:      r.FFmpeg,
		Threads:  r.Threads,
		Progress: true,
	})
	converted := ConvertedFile{
		Path:        path,
		Video:       labelOr(video, "unknown"),
		Audio:       labelOr(res.FirstAudio(), "none"),
		BitrateKbps: video.BitrateKbps,
		InputBytes:  inputSize(res, path),
	}

	if r.Cfg.DryRun {
		log.Info("DRY RUN: would convert due to: %s", strings.Join(plan.Reasons(), ", "))
		log.Info("DRY RUN: %s", ffmpeg.FormatCommand(args))
		stats.addConverted(converted)
		return
	}

	// --- Execute ---
	log.Info("Converting to %s", filepath.Base(output))
	log.Debug("Command: %s", ffmpeg.FormatCommand(args))
	opts := ffmpeg.ExecOptions{
		Interval: time.Duration(r.Cfg.ProgressInterval) * time.Second,
		Duration: res.DurationValue(),
	}
	if plan.ProgressAllowed {
		opts.OnProgress = func(p ffmpeg.Progress) { logProgress(log, p) }
	} else {
		log.Debug("Progress reporting is off while copying all streams")
	}

	start := r.now()
	if err := r.Encoder.Execute(ctx, args, opts); err != nil {
		removePartial(log, output)
		if ctx.Err() != nil {
			log.Warn("Interrupted during conversion")
		} else {
			logEncodeError(log, err)
		}
		stats.addFailed(path)
		return
	}

	converted.OutputBytes = fileSize(output)
	stats.addConverted(converted)
	log.Success("Converted in %s (video was: %s, audio was: %s, %s)",
		display.FormatElapsed(r.now().Sub(start)), converted.Video, converted.Audio,
		display.FormatBytesWithSign(converted.OutputBytes-converted.InputBytes))

	if r.Sidecars != nil {
		if _, err := r.Sidecars.CopyForOutput(ctx, path, output); err != nil {
			log.Warn("Subtitle: %v", err)
		}
	}
}

// logPlan prints the source summary and, per stream, what happens to it.
func (r *Runner) logPlan(log *logging.Logger, res *probe.Result, plan *planner.Plan) {
	v := res.FirstVideo()
	bitrate := display.FormatBitrate(v.BitrateKbps)
	if v.BitrateEstimated && v.BitrateKbps > 0 {
		bitrate = "~" + bitrate
	}
	log.Info("  Video: %s | %s | %s", labelOr(v, "unknown"), res.Resolution(), bitrate)
	if a := res.FirstAudio(); a != nil {
		log.Info("  Audio: %s | %d ch", labelOr(a, "unknown"), a.Channels)
	}

	for _, d := range plan.Decisions {
		if d.UnknownCodec {
			log.Warn("  Stream #%d (%s) has no codec name; policy %q -> %s",
				d.Stream.Index, d.Stream.Kind, r.Policy.UnknownCodec, d.Action)
		}
		switch {
		case d.Action == planner.ActionTranscode && d.Audio != nil:
			log.Info("  #%d %s: transcode to %s %s", d.Stream.Index, d.Stream.Kind, plan.AudioEncoder, d.Audio.Bitrate)
		case d.Action == planner.ActionTranscode:
			log.Info("  #%d %s: transcode to %s crf %d", d.Stream.Index, d.Stream.Kind, plan.VideoEncoder, plan.CRF)
		case d.Action == planner.ActionDrop:
			log.Warn("  %s: dropped (%s)", d.Stream, planner.ReasonSubtitleNotSupported)
		default:
			log.Debug("  %s: copy", d.Stream)
		}
	}
	for _, s := range plan.Excluded {
		log.Debug("  %s: not included", s)
	}
	if plan.RateCap != nil {
		log.Info("  Rate cap: maxrate %d kbps, bufsize %d kbps", plan.RateCap.MaxrateKbps, plan.RateCap.BufsizeKbps)
	}
}

func logProgress(log *logging.Logger, p ffmpeg.Progress) {
	if p.End {
		log.Info("Progress: done in %s", display.FormatClock(p.Elapsed.Seconds()))
		return
	}
	pct := "?"
	if v := p.Percent(); v >= 0 {
		pct = fmt.Sprintf("%.0f%%", v)
	}
	log.Info("Progress: %s / %s (%s) speed %.2fx, %s left, %s",
		display.FormatClock(p.OutTime.Seconds()),
		display.FormatClock(p.Duration.Seconds()),
		pct, p.Speed,
		display.FormatClock(p.Remaining().Seconds()),
		display.FormatBytes(p.TotalSize))
}

func logEncodeError(log *logging.Logger, err error) {
	log.Error("Conversion failed: %v", err)
	var ee *ffmpeg.EncodeError
	if !errors.As(err, &ee) || ee.Stderr == "" {
		return
	}
	for _, line := range strings.Split(ee.Stderr, "\n") {
		log.Error("  %s", line)
	}
}

// removePartial deletes whatever a failed encoder left behind.
func removePartial(log *logging.Logger, output string) {
	if err := os.Remove(output); err == nil {
		log.Info("Removed partial output %s", filepath.Base(output))
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not remove partial output: %v", err)
	}
}

func labelOr(s *probe.Stream, fallback string) string {
	if s == nil || s.Label() == "" {
		return fallback
	}
	return s.Label()
}

func inputSize(res *probe.Result, path string) int64 {
	if res.Size > 0 {
		return res.Size
	}
	return fileSize(path)
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
