package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver hands out output paths for one run. "clip.avi" and "clip.wmv"
// in the same directory both want "conv-clip.mp4"; the second caller gets
// "conv-clip - dup1.mp4". Safe for concurrent use by the worker pool.
type Resolver struct {
	mu     sync.Mutex
	owners map[string]string // output -> input
	next   map[string]int    // requested output -> next dup number
}

func NewResolver() *Resolver {
	return &Resolver{
		owners: make(map[string]string),
		next:   make(map[string]int),
	}
}

// Claim returns the output path input should write to. Claiming the same
// pair twice returns the same path.
func (r *Resolver) Claim(input, output string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.available(output, input) {
		r.owners[output] = input
		return output
	}

	ext := filepath.Ext(output)
	stem := strings.TrimSuffix(output, ext)
	n := max(r.next[output], 1)
	for {
		candidate := fmt.Sprintf("%s - dup%d%s", stem, n, ext)
		n++
		if r.available(candidate, input) {
			r.next[output] = n
			r.owners[candidate] = input
			return candidate
		}
	}
}

// Owner returns the input that claimed output, if any.
func (r *Resolver) Owner(output string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.owners[output]
	return in, ok
}

func (r *Resolver) available(output, input string) bool {
	owner, taken := r.owners[output]
	return !taken || owner == input
}
