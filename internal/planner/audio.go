package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/probe"
)

// maxAC3Channels is the channel limit of the ac3 and eac3 encoders.
const maxAC3Channels = 6

// AudioBitrate maps a source channel count to a target bitrate using the
// step table. Unknown (0) channels get def; counts above the last tier use
// the last tier. The table must be sorted by Channels (config.Validate
// guarantees it), which makes the mapping monotonic.
func AudioBitrate(tiers []config.AudioTier, def string, channels int) string {
	if channels <= 0 || len(tiers) == 0 {
		return def
	}
	for _, t := range tiers {
		if channels <= t.Channels {
			return t.Bitrate
		}
	}
	return tiers[len(tiers)-1].Bitrate
}

// audioTarget computes the encode settings for a transcoded audio stream.
// AC3/EAC3 encoders are capped at 5.1 before the bitrate lookup.
func audioTarget(s probe.Stream, pol Policy) *AudioTarget {
	channels := s.Channels
	if isAC3Encoder(pol.AudioEncoder) && channels > maxAC3Channels {
		channels = maxAC3Channels
	}
	bitrate := AudioBitrate(pol.AudioTiers, pol.DefaultAudioBitrate, channels)

	t := &AudioTarget{
		Bitrate:    bitrate,
		SampleRate: pol.AudioSampleRate,
	}
	// Stereo and mono keep the encoder default; only surround is pinned.
	if channels > 2 {
		t.Channels = channels
	}
	t.Title = fmt.Sprintf("%s Audio / %s / %d Hz / %s",
		encoderLabel(pol.AudioEncoder), layoutName(channels), pol.AudioSampleRate, bitrate)
	return t
}

func isAC3Encoder(enc string) bool {
	switch strings.ToLower(enc) {
	case "ac3", "eac3", "ac3_fixed":
		return true
	}
	return false
}

// encoderLabel turns an encoder name into the codec shown in titles
// ("aac" → "AAC", "libfdk_aac" → "AAC", "eac3" → "EAC3").
func encoderLabel(enc string) string {
	e := strings.ToLower(enc)
	e = strings.TrimPrefix(e, "lib")
	switch {
	case strings.Contains(e, "aac"):
		return "AAC"
	case strings.HasPrefix(e, "opus"):
		return "Opus"
	}
	return strings.ToUpper(strings.TrimSuffix(e, "_fixed"))
}

func layoutName(ch int) string {
	switch ch {
	case 0:
		return "unknown"
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	case 3:
		return "2.1"
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	}
	return fmt.Sprintf("%dch", ch)
}
