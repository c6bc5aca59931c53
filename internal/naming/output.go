package naming

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/ffconvert/internal/config"
)

// OutputPath returns <dir>/<prefix><stem>.<container> for input.
func OutputPath(input string, container config.Container, prefix string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, prefix+stem+"."+string(container))
}

// IsOutput reports whether path was produced by a previous run.
func IsOutput(path, prefix string) bool {
	return prefix != "" && strings.HasPrefix(filepath.Base(path), prefix)
}
