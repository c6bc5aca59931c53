// Package probe runs ffprobe once per file and converts its JSON report into
// typed stream descriptions. Bitrates are normalized to kbps; a video stream
// with no declared bitrate gets one estimated from the container.
package probe
