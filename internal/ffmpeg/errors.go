package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEncode is matched by every *EncodeError via errors.Is.
var ErrEncode = errors.New("encode failed")

// EncodeError reports a non-zero ffmpeg exit.
type EncodeError struct {
	ExitCode int
	Stderr   string // last lines of stderr
	Hint     string // classified cause, may be empty
	Err      error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrEncode.
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var classifiers = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder not found`),
		"encoder not available in this ffmpeg build"},
	{regexp.MustCompile(`(?i)Subtitle codec .* is not supported|` +
		`Could not find tag for codec .* in stream .*subtitle|` +
		`Subtitle encoding currently only possible from text to text or bitmap to bitmap`),
		"subtitle codec not supported by the output container"},
	{regexp.MustCompile(`Attachment stream \d+ has no (filename|mimetype) tag`),
		"attachment stream is missing tags"},
	{regexp.MustCompile(`Too many packets buffered for output stream`),
		"mux queue overflow"},
	{regexp.MustCompile(`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
		`DTS .*out of order|PTS .*out of order|pts has no value|Timestamps are unset`),
		"timestamp discontinuity in the source"},
	{regexp.MustCompile(`(?i)No space left on device`),
		"output disk is full"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found`),
		"input file is corrupt or truncated"},
	{regexp.MustCompile(`(?i)Permission denied`),
		"permission denied"},
}

// Classify maps ffmpeg stderr to a short human hint, or "".
func Classify(stderr string) string {
	for _, c := range classifiers {
		if c.re.MatchString(stderr) {
			return c.hint
		}
	}
	return ""
}

// tail returns the last n non-empty lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			out = append(out, l)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return strings.Join(out, "\n")
}
