package planner

import (
	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/probe"
)

// decideSubtitle never transcodes. Matroska takes any subtitle codec as a
// copy; MP4 only holds mov_text, so everything else is dropped.
func decideSubtitle(s probe.Stream, container config.Container) Decision {
	d := Decision{Stream: s, UnknownCodec: s.Codec == ""}
	if container == config.ContainerMP4 && s.Codec != "mov_text" {
		d.Action = ActionDrop
		d.Reasons = []Reason{ReasonSubtitleNotSupported}
	}
	return d
}
