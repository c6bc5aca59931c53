// Package workers sizes the file pool and the per-encoder thread budget.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvJobs overrides the computed pool size when set to a positive integer.
const EnvJobs = "FFCONVERT_JOBS"

// Count returns GOMAXPROCS scaled by multiplier, at least 1 and at most
// limit (0 = no limit). GOMAXPROCS already follows container CPU limits.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvJobs); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	return capAt(max(n, 1), limit)
}

// ForCPU returns one worker per CPU. Encoding is CPU-bound.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Jobs resolves the configured pool size: 0 means ForCPU(limit).
func Jobs(configured, limit int) int {
	if configured > 0 {
		return capAt(configured, limit)
	}
	return ForCPU(limit)
}

// ThreadsPerJob splits a total thread budget across jobs. A zero total
// means one thread per CPU, capped at limit.
func ThreadsPerJob(total, jobs, limit int) int {
	if total <= 0 {
		total = capAt(runtime.GOMAXPROCS(0), limit)
	}
	return max(1, total/max(jobs, 1))
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
