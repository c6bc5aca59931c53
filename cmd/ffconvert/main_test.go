package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run([]string{"-V"}, &out, &errOut))
	assert.Equal(t, "ffconvert "+version+"\n", out.String())
}

func TestRun_NoArgsPrintsHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, run(nil, &out, &errOut))
	assert.Contains(t, out.String(), "ffconvert [flags] <file|directory>")
	assert.Contains(t, out.String(), "--dry-run")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--bogus", "dir"}, "unknown flag"},
		{"two inputs", []string{"a", "b"}, "expected one input path"},
		{"bad crf", []string{"--crf", "99", "dir"}, "CRF must be between"},
		{"bad policy", []string{"dir", "--unknown-codec", "drop"}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			assert.Equal(t, 2, run(tt.args, &out, &errOut))
			assert.Contains(t, errOut.String(), tt.want)
			assert.Contains(t, errOut.String(), "Usage:")
		})
	}
}

const xvidJSON = `{"format":{"format_name":"avi","duration":"60.0","size":"1048576","bit_rate":"2000000"},
"streams":[{"index":0,"codec_type":"video","codec_name":"mpeg4","codec_tag_string":"XVID","width":720,"height":400,"bit_rate":"1800000"},
{"index":1,"codec_type":"audio","codec_name":"mp3","channels":2,"sample_rate":"48000"}]}`

const encoderList = `Encoders:
 V..... = Video
 ------
 V....D libx265              libx265 H.265 / HEVC (codec hevc)
 A....D aac                  AAC (Advanced Audio Coding)
`

// fakeTools writes ffprobe and ffmpeg stand-ins plus a config file pointing
// at them. The ffmpeg script fails for any input named bad.avi.
func fakeTools(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, data string, mode os.FileMode) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), mode))
		return path
	}
	probeJSON := write("probe.json", xvidJSON, 0o644)
	listing := write("encoders.txt", encoderList, 0o644)
	ffprobe := write("ffprobe", "#!/bin/sh\ncat "+probeJSON+"\n", 0o755)
	ffmpeg := write("ffmpeg", `#!/bin/sh
for a; do last="$a"; done
case "$*" in
*-encoders*) cat `+listing+`; exit 0 ;;
*bad.avi*) echo "Invalid data found when processing input" >&2; exit 1 ;;
esac
printf 'out_time_us=60000000\nspeed=2x\nprogress=end\n'
echo encoded > "$last"
`, 0o755)
	return write("ffconvert.yaml", "ffprobe_path: "+ffprobe+"\nffmpeg_path: "+ffmpeg+"\n", 0o644)
}

func TestRun_ExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   int
		logs   string
	}{
		{"clean batch", []string{"good.avi", "conv-old.mp4"}, 0, "Failed: 0"},
		{"one encode fails", []string{"good.avi", "bad.avi"}, 1, "Failed: 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile := fakeTools(t)
			media := t.TempDir()
			for _, name := range tt.inputs {
				require.NoError(t, os.WriteFile(filepath.Join(media, name), []byte("x"), 0o644))
			}
			logFile := filepath.Join(t.TempDir(), "run.log")

			var out, errOut bytes.Buffer
			code := run([]string{media, "--config", cfgFile, "--log", logFile, "--jobs", "2"}, &out, &errOut)
			assert.Equal(t, tt.want, code, errOut.String())

			assert.FileExists(t, filepath.Join(media, "conv-good.mp4"))
			assert.NoFileExists(t, filepath.Join(media, "conv-bad.mp4"))
			logs, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Contains(t, string(logs), tt.logs)
		})
	}
}

func TestRun_InfoTableGoesToLogFile(t *testing.T) {
	cfgFile := fakeTools(t)
	media := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(media, "movie.avi"), []byte("x"), 0o644))
	logFile := filepath.Join(t.TempDir(), "info.log")

	var out, errOut bytes.Buffer
	code := run([]string{"-i", media, "--config", cfgFile, "--log", logFile}, &out, &errOut)
	assert.Equal(t, 0, code, errOut.String())
	assert.Empty(t, out.String())

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "[INFO] FILE")
	assert.Contains(t, string(logs), "movie.avi")
	assert.Contains(t, string(logs), "MPEG4-XVID")
}
