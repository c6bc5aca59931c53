package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/planner"
	"github.com/backmassage/ffconvert/internal/probe"
)

// BuildOptions carries the run-level settings that are not part of a plan.
type BuildOptions struct {
	Bin      string // ffmpeg binary; "ffmpeg" when empty
	Threads  int    // -threads value; omitted when 0
	Progress bool   // emit -progress pipe:1 (ignored unless the plan allows it)
}

// Build constructs the complete ffmpeg argument slice for one file. The
// first element is the binary. Streams are mapped in plan order and every
// codec option uses an output stream specifier (-c:a:1), so copy-all plans
// with mixed copy and transcode streams stay unambiguous.
func Build(plan *planner.Plan, input, output string, opts BuildOptions) []string {
	bin := opts.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	args := make([]string, 0, 48)

	// --- Preamble ---
	args = append(args, bin, "-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-nostats")
	if opts.Progress && plan.ProgressAllowed {
		args = append(args, "-progress", "pipe:1")
	}

	// --- Input ---
	args = append(args, "-i", input)

	// --- Stream maps ---
	kept := plan.Kept()
	for _, d := range kept {
		args = append(args, "-map", fmt.Sprintf("0:%d", d.Stream.Index))
	}

	// --- Per-stream codecs ---
	out := map[probe.Kind]int{}
	for _, d := range kept {
		n := out[d.Stream.Kind]
		out[d.Stream.Kind] = n + 1
		switch d.Stream.Kind {
		case probe.KindVideo:
			args = appendVideoCodec(args, plan, d, n)
		case probe.KindAudio:
			args = appendAudioCodec(args, plan, d, n)
		case probe.KindSubtitle:
			args = append(args, fmt.Sprintf("-c:s:%d", n), "copy")
		}
	}

	// --- Stream dispositions (copy-all only) ---
	args = append(args, plan.Dispositions()...)

	// --- Threads ---
	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}

	// --- Container opts ---
	if plan.Container == config.ContainerMP4 {
		args = append(args, "-movflags", "+faststart")
		if plan.Transcoded(probe.KindVideo) != nil && isHEVCEncoder(plan.VideoEncoder) {
			args = append(args, "-tag:v", "hvc1")
		}
	}

	// --- Output ---
	args = append(args, output)
	return args
}

// appendVideoCodec adds the codec arguments for output video stream n.
func appendVideoCodec(args []string, plan *planner.Plan, d planner.Decision, n int) []string {
	spec := fmt.Sprintf("-c:v:%d", n)
	if d.Action != planner.ActionTranscode {
		return append(args, spec, "copy")
	}

	args = append(args,
		spec, plan.VideoEncoder,
		"-preset", plan.Preset,
		"-crf", strconv.Itoa(plan.CRF),
	)
	if rc := plan.RateCap; rc != nil {
		if plan.VideoEncoder == "libx265" {
			args = append(args, "-x265-params",
				fmt.Sprintf("vbv-maxrate=%d:vbv-bufsize=%d", rc.MaxrateKbps, rc.BufsizeKbps))
		} else {
			args = append(args,
				"-maxrate", fmt.Sprintf("%dk", rc.MaxrateKbps),
				"-bufsize", fmt.Sprintf("%dk", rc.BufsizeKbps),
			)
		}
	}
	return args
}

// appendAudioCodec adds the codec arguments for output audio stream n.
func appendAudioCodec(args []string, plan *planner.Plan, d planner.Decision, n int) []string {
	spec := fmt.Sprintf("-c:a:%d", n)
	if d.Action != planner.ActionTranscode || d.Audio == nil {
		return append(args, spec, "copy")
	}

	t := d.Audio
	args = append(args,
		spec, plan.AudioEncoder,
		fmt.Sprintf("-b:a:%d", n), t.Bitrate,
		fmt.Sprintf("-ar:a:%d", n), strconv.Itoa(t.SampleRate),
	)
	if t.Channels > 0 {
		args = append(args, fmt.Sprintf("-ac:a:%d", n), strconv.Itoa(t.Channels))
	}
	meta := fmt.Sprintf("-metadata:s:a:%d", n)
	args = append(args,
		meta, "title="+t.Title,
		meta, fmt.Sprintf("BPS=%d", config.KbpsOf(t.Bitrate)*1000),
	)
	return args
}

func isHEVCEncoder(enc string) bool {
	return enc == "libx265" || strings.HasPrefix(enc, "hevc")
}

// FormatCommand renders args as a copy-pasteable shell command line.
func FormatCommand(args []string) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(shellQuote(a))
	}
	return b.String()
}

// shellQuote wraps s in single quotes when it contains anything outside a
// conservative safe set.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=+,@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
