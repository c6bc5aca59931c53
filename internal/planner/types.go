package planner

import (
	"fmt"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/probe"
)

// Action is the per-stream decision.
type Action int

const (
	ActionCopy Action = iota
	ActionTranscode
	ActionDrop
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionTranscode:
		return "transcode"
	case ActionDrop:
		return "drop"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Reason names a rule that fired for a stream.
type Reason string

const (
	ReasonCodecNotAllowed      Reason = "codec-not-allowed"
	ReasonBitrateExceedsLimit  Reason = "bitrate-exceeds-limit"
	ReasonForcedMode           Reason = "forced-mode"
	ReasonSubtitleNotSupported Reason = "subtitle-unsupported-by-container"
)

// Decision is the outcome for one stream. Action is ActionTranscode exactly
// when Reasons holds at least one transcode reason.
type Decision struct {
	Stream       probe.Stream
	Action       Action
	Reasons      []Reason
	UnknownCodec bool
	Audio        *AudioTarget // set for transcoded audio only
}

// AudioTarget holds the encode settings for a transcoded audio stream.
type AudioTarget struct {
	Channels   int    // -ac value; 0 leaves the channel count to the encoder
	Bitrate    string // e.g. "768k"
	SampleRate int
	Title      string // e.g. "AAC Audio / 5.1 / 48000 Hz / 768k"
}

// RateCap bounds the re-encoded video bitrate.
type RateCap struct {
	MaxrateKbps int
	BufsizeKbps int
}

// Plan is the full set of decisions for one file. Decisions are in source
// order; Excluded lists streams left out of the output entirely.
type Plan struct {
	Decisions []Decision
	Excluded  []probe.Stream

	Container    config.Container
	VideoEncoder string
	AudioEncoder string
	Preset       string
	CRF          int
	RateCap      *RateCap

	CopyAll         bool
	ProgressAllowed bool
}

// NeedsConversion reports whether any stream is transcoded.
func (p *Plan) NeedsConversion() bool {
	for _, d := range p.Decisions {
		if d.Action == ActionTranscode {
			return true
		}
	}
	return false
}

// Transcoded returns the first transcoded decision of kind, or nil.
func (p *Plan) Transcoded(kind probe.Kind) *Decision {
	for i := range p.Decisions {
		d := &p.Decisions[i]
		if d.Stream.Kind == kind && d.Action == ActionTranscode {
			return d
		}
	}
	return nil
}

// Reasons flattens every fired rule into "kind: reason (label)" strings
// for logging, in decision order.
func (p *Plan) Reasons() []string {
	var out []string
	for _, d := range p.Decisions {
		label := d.Stream.Label()
		if label == "" {
			label = "unknown codec"
		}
		for _, r := range d.Reasons {
			detail := label
			if r == ReasonBitrateExceedsLimit {
				detail = fmt.Sprintf("%d kbps", d.Stream.BitrateKbps)
			}
			out = append(out, fmt.Sprintf("%s: %s (%s)", d.Stream.Kind, r, detail))
		}
	}
	return out
}

// Kept returns the decisions that produce an output stream.
func (p *Plan) Kept() []Decision {
	out := make([]Decision, 0, len(p.Decisions))
	for _, d := range p.Decisions {
		if d.Action != ActionDrop {
			out = append(out, d)
		}
	}
	return out
}
