package planner

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/probe"
)

// Policy is the immutable rule set applied to every file of a run.
type Policy struct {
	ForcedVideo         []string // upper case; entries with "-" match exactly, others as prefix
	ForcedAudio         []string // upper case; exact match
	MaxVideoBitrateKbps int64    // 0 disables the ceiling
	Force               bool
	CopyAll             bool
	UnknownCodec        config.UnknownCodecPolicy

	VideoEncoder string
	AudioEncoder string
	Preset       string
	CRF          int

	AudioTiers          []config.AudioTier
	DefaultAudioBitrate string
	AudioSampleRate     int
}

// NewPolicy copies the rule set out of a validated Config. Slices are
// cloned so later Config edits cannot leak into a running batch.
func NewPolicy(cfg *config.Config) Policy {
	return Policy{
		ForcedVideo:         slices.Clone(cfg.ForcedVideoCodecs),
		ForcedAudio:         slices.Clone(cfg.ForcedAudioCodecs),
		MaxVideoBitrateKbps: int64(cfg.MaxVideoBitrate),
		Force:               cfg.Force,
		CopyAll:             cfg.CopyAllStreams,
		UnknownCodec:        cfg.UnknownCodec,
		VideoEncoder:        cfg.VideoEncoder,
		AudioEncoder:        cfg.AudioEncoder,
		Preset:              cfg.Preset,
		CRF:                 cfg.CRF,
		AudioTiers:          slices.Clone(cfg.AudioBitrates),
		DefaultAudioBitrate: cfg.DefaultAudioBitrate,
		AudioSampleRate:     cfg.AudioSampleRate,
	}
}

// ResolveContainer picks the output container: Matroska inputs stay
// Matroska, everything else becomes MP4, and forceMP4 always wins.
func ResolveContainer(inputPath string, forceMP4 bool) config.Container {
	if forceMP4 {
		return config.ContainerMP4
	}
	if strings.EqualFold(filepath.Ext(inputPath), ".mkv") {
		return config.ContainerMKV
	}
	return config.ContainerMP4
}

// Decide builds the Plan for one file. It is pure: the same streams, policy
// and container always give the same plan.
//
// Only the first video stream (cover art excluded) and the first audio
// stream are candidates for transcoding. With copy-all in effect the other
// video and audio streams are kept when they could be copied, and excluded
// otherwise. Subtitles are always considered. MP4 targets never copy-all.
func Decide(streams []probe.Stream, pol Policy, container config.Container) *Plan {
	copyAll := pol.CopyAll && container != config.ContainerMP4
	plan := &Plan{
		Container:       container,
		VideoEncoder:    pol.VideoEncoder,
		AudioEncoder:    pol.AudioEncoder,
		Preset:          pol.Preset,
		CRF:             pol.CRF,
		CopyAll:         copyAll,
		ProgressAllowed: !copyAll,
	}

	var seenVideo, seenAudio bool
	for _, s := range streams {
		switch s.Kind {
		case probe.KindVideo:
			if s.AttachedPic {
				plan.Excluded = append(plan.Excluded, s)
				continue
			}
			d := decideVideo(s, pol)
			if !seenVideo {
				seenVideo = true
				plan.Decisions = append(plan.Decisions, d)
				if slices.Contains(d.Reasons, ReasonBitrateExceedsLimit) {
					plan.RateCap = &RateCap{
						MaxrateKbps: int(pol.MaxVideoBitrateKbps),
						BufsizeKbps: int(2 * pol.MaxVideoBitrateKbps),
					}
				}
				continue
			}
			plan.addExtra(d, copyAll)

		case probe.KindAudio:
			d := decideAudio(s, pol)
			if !seenAudio {
				seenAudio = true
				plan.Decisions = append(plan.Decisions, d)
				continue
			}
			plan.addExtra(d, copyAll)

		case probe.KindSubtitle:
			plan.Decisions = append(plan.Decisions, decideSubtitle(s, container))
		}
	}
	return plan
}

// addExtra keeps a non-first video/audio stream only as a copy.
func (p *Plan) addExtra(d Decision, copyAll bool) {
	if copyAll && d.Action == ActionCopy {
		p.Decisions = append(p.Decisions, d)
		return
	}
	p.Excluded = append(p.Excluded, d.Stream)
}

func decideVideo(s probe.Stream, pol Policy) Decision {
	d := Decision{Stream: s}
	label := s.Label()

	if label == "" {
		d.UnknownCodec = true
		if pol.UnknownCodec == config.UnknownTranscode {
			d.Reasons = append(d.Reasons, ReasonCodecNotAllowed)
		}
	} else if matchVideo(label, pol.ForcedVideo) {
		d.Reasons = append(d.Reasons, ReasonCodecNotAllowed)
	}
	if pol.MaxVideoBitrateKbps > 0 && s.BitrateKbps > pol.MaxVideoBitrateKbps {
		d.Reasons = append(d.Reasons, ReasonBitrateExceedsLimit)
	}
	if pol.Force {
		d.Reasons = append(d.Reasons, ReasonForcedMode)
	}

	if len(d.Reasons) > 0 {
		d.Action = ActionTranscode
	}
	return d
}

func decideAudio(s probe.Stream, pol Policy) Decision {
	d := Decision{Stream: s}
	label := s.Label()

	if label == "" {
		d.UnknownCodec = true
		if pol.UnknownCodec == config.UnknownTranscode {
			d.Reasons = append(d.Reasons, ReasonCodecNotAllowed)
		}
	} else if slices.Contains(pol.ForcedAudio, strings.ToUpper(s.Codec)) || slices.Contains(pol.ForcedAudio, label) {
		d.Reasons = append(d.Reasons, ReasonCodecNotAllowed)
	}
	if pol.Force {
		d.Reasons = append(d.Reasons, ReasonForcedMode)
	}

	if len(d.Reasons) > 0 {
		d.Action = ActionTranscode
		d.Audio = audioTarget(s, pol)
	}
	return d
}

// matchVideo applies the forced video list to a codec label. An entry
// with a tag ("MPEG4-XVID") must match exactly; any other entry matches as
// a prefix ("MPEG4" also catches "MPEG4-DX50").
func matchVideo(label string, forced []string) bool {
	label = strings.ToUpper(label)
	for _, f := range forced {
		if strings.Contains(f, "-") {
			if label == f {
				return true
			}
			continue
		}
		if strings.HasPrefix(label, f) {
			return true
		}
	}
	return false
}
