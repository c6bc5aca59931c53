// Package display renders the banner and human-readable sizes, bitrates
// and durations for log lines and the run summary.
package display

import (
	"fmt"
	"io"

	"github.com/backmassage/ffconvert/internal/term"
)

const banner = ` __  __                           _
 / _|/ _| ___ ___  _ ____   _____ _ __| |_
| |_| |_ / __/ _ \| '_ \ \ / / _ \ '__| __|
|  _|  _| (_| (_) | | | \ V /  __/ |  | |_
|_| |_|  \___\___/|_| |_|\_/ \___|_|   \__|
`

// PrintBanner writes the ASCII banner and version line, in magenta when
// colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta+banner+term.NC)
	fmt.Fprintf(w, "ffconvert %s\n\n", version)
}
