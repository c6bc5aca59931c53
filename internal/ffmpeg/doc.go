// Package ffmpeg turns a planner.Plan into an ffmpeg argument list and runs
// it. Execute starts the encoder in its own process group, parses the
// -progress key/value stream into throttled Progress updates, and maps a
// non-zero exit to an *EncodeError carrying the stderr tail and a hint.
package ffmpeg
