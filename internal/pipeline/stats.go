package pipeline

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ConvertedFile describes one successful (or, in dry-run, planned)
// conversion for the summary.
type ConvertedFile struct {
	Path        string
	Video       string // source video label
	Audio       string // source audio label, "none" without audio
	BitrateKbps int64  // source video bitrate, 0 when unknown
	InputBytes  int64
	OutputBytes int64
}

// RunStats collects per-file outcomes from concurrent workers.
type RunStats struct {
	Total     int
	Jobs      int
	Threads   int
	DryRun    bool
	Started   time.Time
	Elapsed   time.Duration
	converted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	inBytes   atomic.Int64
	outBytes  atomic.Int64

	mu             sync.Mutex
	convertedFiles []ConvertedFile
	failedFiles    []string
}

func (s *RunStats) Converted() int { return int(s.converted.Load()) }
func (s *RunStats) Skipped() int   { return int(s.skipped.Load()) }
func (s *RunStats) Failed() int    { return int(s.failed.Load()) }

// InputBytes and OutputBytes total the sizes of converted files.
func (s *RunStats) InputBytes() int64  { return s.inBytes.Load() }
func (s *RunStats) OutputBytes() int64 { return s.outBytes.Load() }

// SpaceSaved is positive when outputs are smaller than their inputs.
func (s *RunStats) SpaceSaved() int64 {
	return s.InputBytes() - s.OutputBytes()
}

func (s *RunStats) addConverted(f ConvertedFile) {
	s.converted.Add(1)
	s.inBytes.Add(f.InputBytes)
	s.outBytes.Add(f.OutputBytes)
	s.mu.Lock()
	s.convertedFiles = append(s.convertedFiles, f)
	s.mu.Unlock()
}

func (s *RunStats) addSkipped() { s.skipped.Add(1) }

func (s *RunStats) addFailed(path string) {
	s.failed.Add(1)
	s.mu.Lock()
	s.failedFiles = append(s.failedFiles, path)
	s.mu.Unlock()
}

// ConvertedFiles returns the converted files ordered by path.
func (s *RunStats) ConvertedFiles() []ConvertedFile {
	s.mu.Lock()
	out := slices.Clone(s.convertedFiles)
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b ConvertedFile) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// FailedFiles returns the failed inputs ordered by path.
func (s *RunStats) FailedFiles() []string {
	s.mu.Lock()
	out := slices.Clone(s.failedFiles)
	s.mu.Unlock()
	slices.Sort(out)
	return out
}
