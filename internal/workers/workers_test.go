package workers

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvJobs, "")
	cpus := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per cpu", 1.0, 0, cpus},
		{"limit applies", 2.0, 1, 1},
		{"never below one", 0.0001, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.multiplier, tt.limit))
		})
	}
}

func TestCount_EnvOverride(t *testing.T) {
	t.Setenv(EnvJobs, "3")
	assert.Equal(t, 3, Count(1.0, 0))
	assert.Equal(t, 2, Count(1.0, 2), "override still capped")

	t.Setenv(EnvJobs, "nope")
	assert.Equal(t, min(runtime.GOMAXPROCS(0), 16), ForCPU(16))
}

func TestJobs(t *testing.T) {
	t.Setenv(EnvJobs, "")
	assert.Equal(t, 4, Jobs(4, 16))
	assert.Equal(t, 16, Jobs(40, 16))
	assert.Equal(t, ForCPU(16), Jobs(0, 16))
}

func TestThreadsPerJob(t *testing.T) {
	assert.Equal(t, 4, ThreadsPerJob(16, 4, 16))
	assert.Equal(t, 1, ThreadsPerJob(2, 4, 16))
	assert.Equal(t, 8, ThreadsPerJob(8, 0, 16))
	assert.Equal(t, max(1, min(runtime.GOMAXPROCS(0), 16)/2), ThreadsPerJob(0, 2, 16))
}
