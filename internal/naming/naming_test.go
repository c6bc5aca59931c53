package naming

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/ffconvert/internal/config"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in        string
		container config.Container
		want      string
	}{
		{"/media/Movie.2020.avi", config.ContainerMP4, "/media/conv-Movie.2020.mp4"},
		{"/media/show/ep1.mkv", config.ContainerMKV, "/media/show/conv-ep1.mkv"},
		{"/media/show/ep1.MKV", config.ContainerMP4, "/media/show/conv-ep1.mp4"},
		{"noext", config.ContainerMKV, "conv-noext.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.in, tt.container, "conv-"))
		})
	}
}

func TestIsOutput(t *testing.T) {
	assert.True(t, IsOutput("/a/conv-x.mp4", "conv-"))
	assert.False(t, IsOutput("/conv-dir/x.mp4", "conv-"))
	assert.False(t, IsOutput("/a/x.mp4", ""))
}

func TestResolver_Claim(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, "/m/conv-a.mp4", r.Claim("/m/a.avi", "/m/conv-a.mp4"))
	assert.Equal(t, "/m/conv-a.mp4", r.Claim("/m/a.avi", "/m/conv-a.mp4"), "same input keeps its path")
	assert.Equal(t, "/m/conv-a - dup1.mp4", r.Claim("/m/a.wmv", "/m/conv-a.mp4"))
	assert.Equal(t, "/m/conv-a - dup2.mp4", r.Claim("/m/a.mov", "/m/conv-a.mp4"))

	owner, ok := r.Owner("/m/conv-a - dup1.mp4")
	require.True(t, ok)
	assert.Equal(t, "/m/a.wmv", owner)
}

func TestResolver_ConcurrentClaimsAreUnique(t *testing.T) {
	r := NewResolver()
	const n = 32
	got := make([]string, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Claim(fmt.Sprintf("/m/clip.%d", i), "/m/conv-clip.mp4")
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, p := range got {
		assert.False(t, seen[p], "duplicate output %s", p)
		seen[p] = true
	}
}
