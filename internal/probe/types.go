package probe

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the stream category reported by ffprobe's codec_type.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// Specifier is the ffmpeg stream type letter ("v", "a", "s").
func (k Kind) Specifier() string {
	switch k {
	case KindVideo:
		return "v"
	case KindAudio:
		return "a"
	case KindSubtitle:
		return "s"
	}
	return ""
}

// Stream is one elementary stream of a container. Codec and CodecTag are
// empty when ffprobe reported none. BitrateKbps is 0 when unknown.
type Stream struct {
	Index            int
	Kind             Kind
	Codec            string
	CodecTag         string
	BitrateKbps      int64
	BitrateEstimated bool
	Channels         int
	SampleRate       int
	Width            int
	Height           int
	Language         string
	Title            string
	AttachedPic      bool
}

// Label is the identifier used to match policy codec lists: the codec name
// in upper case, followed by "-" and the upper-cased tag when ffprobe
// reported a printable FourCC (e.g. "MPEG4-XVID", "H264-AVC1"). Numeric
// placeholders such as "[0][0][0][0]" are ignored.
func (s Stream) Label() string {
	if s.Codec == "" {
		return ""
	}
	label := strings.ToUpper(s.Codec)
	tag := strings.TrimSpace(s.CodecTag)
	if tag != "" && !strings.HasPrefix(tag, "[") && !strings.HasPrefix(tag, "0x") {
		label += "-" + strings.ToUpper(tag)
	}
	return label
}

// String is a short human description used in logs.
func (s Stream) String() string {
	name := s.Label()
	if name == "" {
		name = "unknown"
	}
	switch s.Kind {
	case KindVideo:
		if s.BitrateKbps > 0 {
			est := ""
			if s.BitrateEstimated {
				est = "~"
			}
			return fmt.Sprintf("#%d %s %s%d kbps", s.Index, name, est, s.BitrateKbps)
		}
	case KindAudio:
		if s.Channels > 0 {
			return fmt.Sprintf("#%d %s %dch", s.Index, name, s.Channels)
		}
	}
	return fmt.Sprintf("#%d %s", s.Index, name)
}

// Result is the parsed report for one file.
type Result struct {
	Path              string
	FormatName        string
	Duration          float64 // seconds
	Size              int64   // bytes
	FormatBitrateKbps int64
	Streams           []Stream
}

// FirstVideo returns the first video stream that is not cover art, or nil.
func (r *Result) FirstVideo() *Stream {
	for i := range r.Streams {
		s := &r.Streams[i]
		if s.Kind == KindVideo && !s.AttachedPic {
			return s
		}
	}
	return nil
}

// FirstAudio returns the first audio stream, or nil.
func (r *Result) FirstAudio() *Stream {
	for i := range r.Streams {
		if r.Streams[i].Kind == KindAudio {
			return &r.Streams[i]
		}
	}
	return nil
}

// Of returns the streams of one kind in container order.
func (r *Result) Of(kind Kind) []Stream {
	var out []Stream
	for _, s := range r.Streams {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// DurationValue returns Duration as a time.Duration.
func (r *Result) DurationValue() time.Duration {
	return time.Duration(r.Duration * float64(time.Second))
}

// Resolution returns "WxH" for the first video stream, or "unknown".
func (r *Result) Resolution() string {
	v := r.FirstVideo()
	if v == nil || v.Width <= 0 || v.Height <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}
