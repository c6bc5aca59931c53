package subtitle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// FileDetector runs `file -b --mime-encoding`.
type FileDetector struct {
	Bin string
}

func (d FileDetector) Detect(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, d.Bin, "-b", "--mime-encoding", path).Output()
	if err != nil {
		return "", fmt.Errorf("%s --mime-encoding: %w", d.Bin, err)
	}
	return strings.ToLower(strings.TrimSpace(string(out))), nil
}

// NativeDetector mimics the answers `file` gives for subtitle text: a BOM
// names its encoding, pure 7-bit text is "us-ascii", valid UTF-8 is
// "utf-8", and anything else is "unknown-8bit".
type NativeDetector struct{}

func (NativeDetector) Detect(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return detectBytes(data), nil
}

func detectBytes(data []byte) string {
	if _, name, certain := charset.DetermineEncoding(data, "text/plain"); certain {
		return strings.ToLower(name)
	}
	if !utf8.Valid(data) {
		return "unknown-8bit"
	}
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return "utf-8"
		}
	}
	return "us-ascii"
}
