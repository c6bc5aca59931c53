package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/term"
)

func TestLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(Options{Out: &out, Err: &errOut})

	l.Info("probing %s", "a.mkv")
	l.Success("done")
	l.Warn("careful")
	l.Error("broken: %d", 1)
	l.Debug("hidden")

	stdout := out.String()
	assert.Contains(t, stdout, "[INFO] probing a.mkv")
	assert.Contains(t, stdout, "[SUCCESS] done")
	assert.Contains(t, stdout, "[WARN] careful")
	assert.NotContains(t, stdout, "broken")
	assert.NotContains(t, stdout, "hidden")
	assert.Contains(t, errOut.String(), "[ERROR] broken: 1")
}

func TestVerboseShowsDebug(t *testing.T) {
	var out bytes.Buffer
	l := New(Options{Out: &out, Verbose: true})
	l.Debug("details")
	assert.Contains(t, out.String(), "[DEBUG] details")
}

func TestWithAddsField(t *testing.T) {
	var out bytes.Buffer
	New(Options{Out: &out}).With("file", "movie.avi").Info("start")
	assert.Contains(t, out.String(), "file=movie.avi")
}

func TestColorTags(t *testing.T) {
	var out bytes.Buffer
	New(Options{Out: &out, Color: true}).Info("x")
	assert.Contains(t, out.String(), "[INFO]")
	assert.False(t, strings.HasPrefix(out.String(), "[INFO]"), "timestamp comes first")
}

func TestNewLogger_WithFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "ffconvert.log")

	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	l.Info("to file")
	l.Error("also to file")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "second close is a no-op")

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	content := string(b)
	assert.Contains(t, content, "[INFO] to file")
	assert.Contains(t, content, "[ERROR] also to file")
	assert.Contains(t, content, "run=")
	assert.NotContains(t, content, "\033[")
}

func TestNewLogger_AppendsToFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "ffconvert.log")
	require.NoError(t, os.WriteFile(cfg.LogFile, []byte("previous run\n"), 0o644))

	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	l.Info("next run")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "previous run\n"))
	assert.Contains(t, string(b), "next run")
}

func TestNewLogger_FileDisablesTermColors(t *testing.T) {
	t.Cleanup(func() { term.Configure(config.ColorNever) })
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorAlways
	cfg.LogFile = filepath.Join(t.TempDir(), "ffconvert.log")

	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	assert.Empty(t, term.Red, "text written into the log file carries no escapes")
}

func TestInfoWriter(t *testing.T) {
	var out bytes.Buffer
	w := New(Options{Out: &out}).InfoWriter()

	_, err := w.Write([]byte("FILE   VIDEO  \na.avi  MPEG4"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[INFO] FILE   VIDEO\n")
	assert.NotContains(t, out.String(), "a.avi", "partial lines wait for their newline")

	_, err = w.Write([]byte("-XVID\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[INFO] a.avi  MPEG4-XVID\n")
}
