package display

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"1 MiB", 1024 * 1024, "1.0 MiB"},
		{"typical file 700 MiB", 734003200, "700.0 MiB"},
		{"4.7 GiB", 5046586572, "4.7 GiB"},
		{"max int64", math.MaxInt64, "8.0 EiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.bytes))
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	assert.Equal(t, "+ 1.0 MiB", FormatBytesWithSign(1024*1024))
	assert.Equal(t, "- 1.0 MiB", FormatBytesWithSign(-1024*1024))
	assert.Equal(t, "0 B", FormatBytesWithSign(0))
}

func TestFormatBitrate(t *testing.T) {
	assert.Equal(t, "unknown", FormatBitrate(0))
	assert.Equal(t, "850 kbps", FormatBitrate(850))
	assert.Equal(t, "6.0 Mbps", FormatBitrate(6000))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00:00"},
		{-time.Second, "00:00:00:00"},
		{59 * time.Second, "00:00:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "00:01:02:03"},
		{50*time.Hour + 1500*time.Millisecond, "02:02:00:01"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.d))
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "01:01:01", FormatClock(3661.9))
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "--:--:--", FormatClock(-1))
	assert.Equal(t, "--:--:--", FormatClock(math.Inf(1)))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.True(t, strings.HasSuffix(buf.String(), "ffconvert 1.2.3\n\n"))
}
