package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrProbe is matched by every *Error via errors.Is.
var ErrProbe = errors.New("probe failed")

// Error describes why a file could not be probed.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrProbe.
func (e *Error) Is(target error) bool { return target == ErrProbe }

// Prober runs ffprobe. The zero value uses "ffprobe" from PATH.
type Prober struct {
	Bin string
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result. Tool failures and malformed output return an *Error.
func (p Prober) Probe(ctx context.Context, path string) (*Result, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = "ffprobe exited with an error"
		}
		return nil, &Error{Path: path, Reason: firstLine(reason), Err: err}
	}

	res, err := ParseJSON(out)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	res.Path = path
	return res, nil
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Reason: "malformed ffprobe output", Err: err}
	}
	if len(raw.Streams) == 0 {
		return nil, &Error{Reason: "no streams found"}
	}
	return buildResult(&raw), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	CodecTagString string            `json:"codec_tag_string"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	BitRate        string            `json:"bit_rate"`
	Channels       int               `json:"channels"`
	SampleRate     string            `json:"sample_rate"`
	Disposition    map[string]int    `json:"disposition"`
	Tags           map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) *Result {
	res := &Result{
		FormatName:        raw.Format.FormatName,
		Duration:          parseFloat(raw.Format.Duration),
		Size:              parseInt64(raw.Format.Size),
		FormatBitrateKbps: parseInt64(raw.Format.BitRate) / 1000,
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch Kind(s.CodecType) {
		case KindVideo, KindAudio, KindSubtitle:
			res.Streams = append(res.Streams, convertStream(s))
		}
	}

	if v := res.FirstVideo(); v != nil && v.BitrateKbps == 0 {
		if kbps := estimateVideoKbps(res, v.Index); kbps > 0 {
			v.BitrateKbps = kbps
			v.BitrateEstimated = true
		}
	}
	return res
}

func convertStream(s *ffprobeStream) Stream {
	return Stream{
		Index:       s.Index,
		Kind:        Kind(s.CodecType),
		Codec:       s.CodecName,
		CodecTag:    s.CodecTagString,
		BitrateKbps: streamKbps(s),
		Channels:    s.Channels,
		SampleRate:  parseInt(s.SampleRate),
		Width:       s.Width,
		Height:      s.Height,
		Language:    tag(s.Tags, "language"),
		Title:       tag(s.Tags, "title"),
		AttachedPic: s.Disposition["attached_pic"] == 1,
	}
}

// streamKbps reads the declared bitrate: the stream's bit_rate, then the
// mkvmerge statistics tag BPS (also written as BPS-eng and similar).
func streamKbps(s *ffprobeStream) int64 {
	if bps := parseInt64(s.BitRate); bps > 0 {
		return bps / 1000
	}
	for k, v := range s.Tags {
		up := strings.ToUpper(k)
		if up == "BPS" || strings.HasPrefix(up, "BPS-") {
			if bps := parseInt64(v); bps > 0 {
				return bps / 1000
			}
		}
	}
	return 0
}

// estimateVideoKbps derives the video bitrate from the container: the
// format bit_rate, or size*8/duration, minus every other declared stream
// bitrate. Returns 0 when nothing sensible remains.
func estimateVideoKbps(res *Result, videoIndex int) int64 {
	total := res.FormatBitrateKbps
	if total <= 0 && res.Size > 0 && res.Duration > 0 {
		total = int64(float64(res.Size) * 8 / res.Duration / 1000)
	}
	if total <= 0 {
		return 0
	}
	for _, s := range res.Streams {
		if s.Index != videoIndex {
			total -= s.BitrateKbps
		}
	}
	if total <= 0 {
		return 0
	}
	return total
}

// tag looks up a tag key case-insensitively.
func tag(tags map[string]string, key string) string {
	if v, ok := tags[key]; ok {
		return v
	}
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, _ := strconv.Atoi(s)
	return n
}
