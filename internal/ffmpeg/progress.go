package ffmpeg

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// Sample is one -progress batch as reported by ffmpeg.
type Sample struct {
	Frame     int64
	FPS       float64
	OutTime   time.Duration
	Speed     float64 // 0 when ffmpeg reports N/A
	TotalSize int64   // bytes written so far
	End       bool    // progress=end
}

// Progress is a Sample enriched with the input duration and wall-clock
// elapsed time.
type Progress struct {
	Sample
	Duration time.Duration
	Elapsed  time.Duration
}

// Percent returns how much of the input has been encoded, clamped to 0-100.
// Returns -1 when the duration is unknown.
func (p Progress) Percent() float64 {
	if p.Duration <= 0 {
		return -1
	}
	if p.End {
		return 100
	}
	pct := float64(p.OutTime) / float64(p.Duration) * 100
	return min(max(pct, 0), 100)
}

// Remaining estimates the time left from the remaining media time and the
// current speed. Returns -1 when either is unknown.
func (p Progress) Remaining() time.Duration {
	if p.End {
		return 0
	}
	if p.Duration <= 0 || p.Speed <= 0 {
		return -1
	}
	left := p.Duration - p.OutTime
	if left < 0 {
		return 0
	}
	return time.Duration(float64(left) / p.Speed)
}

// BitrateKbps is the average output bitrate so far, or 0 when unknown.
func (p Progress) BitrateKbps() int64 {
	secs := p.OutTime.Seconds()
	if secs <= 0 || p.TotalSize <= 0 {
		return 0
	}
	return int64(float64(p.TotalSize) * 8 / secs / 1000)
}

// maxScannerBuffer bounds a single progress line.
const maxScannerBuffer = 1024 * 1024

// ParseProgress reads ffmpeg -progress output (key=value lines closed by a
// progress=continue|end marker) and calls fn once per batch. It returns
// when r is exhausted.
func ParseProgress(r io.Reader, fn func(Sample)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScannerBuffer)

	var batch Sample
	timeSet := false // out_time_us wins over the coarser keys within a batch
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "progress":
			batch.End = value == "end"
			fn(batch)
			batch.End = false
			timeSet = false
		case "frame":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n >= 0 {
				batch.Frame = n
			}
		case "fps":
			if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
				batch.FPS = f
			}
		case "total_size":
			if n, err := strconv.ParseInt(value, 10, 64); err == nil && n >= 0 {
				batch.TotalSize = n
			}
		case "out_time_us":
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				batch.OutTime = time.Duration(us) * time.Microsecond
				timeSet = true
			}
		case "out_time_ms":
			// Despite the name, ffmpeg reports microseconds here too.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 && !timeSet {
				batch.OutTime = time.Duration(us) * time.Microsecond
				timeSet = true
			}
		case "out_time":
			if d, ok := parseOutTime(value); ok && !timeSet {
				batch.OutTime = d
				timeSet = true
			}
		case "speed":
			batch.Speed = 0
			if s, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64); err == nil && s >= 0 {
				batch.Speed = s
			}
		}
	}
	return scanner.Err()
}

// parseOutTime parses "HH:MM:SS.micro".
func parseOutTime(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || sec < 0 {
		return 0, false
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second))
	return d, true
}
