package planner

import (
	"fmt"

	"github.com/backmassage/ffconvert/internal/probe"
)

// Dispositions marks the first output video and audio streams as default
// and clears the flag on any further video/audio outputs. Only needed when
// copy-all keeps more than one stream of a kind.
func (p *Plan) Dispositions() []string {
	var opts []string
	counts := map[probe.Kind]int{}
	for _, d := range p.Kept() {
		kind := d.Stream.Kind
		if kind != probe.KindVideo && kind != probe.KindAudio {
			continue
		}
		n := counts[kind]
		counts[kind] = n + 1
		spec := fmt.Sprintf("-disposition:%s:%d", kind.Specifier(), n)
		if n == 0 {
			opts = append(opts, spec, "default")
		} else {
			opts = append(opts, spec, "0")
		}
	}
	if counts[probe.KindVideo] <= 1 && counts[probe.KindAudio] <= 1 {
		return nil
	}
	return opts
}
