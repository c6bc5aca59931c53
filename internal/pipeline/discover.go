package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/naming"
)

// ErrUnsupportedInput is reported for a single input file whose extension
// is not in the supported list.
var ErrUnsupportedInput = errors.New("unsupported input")

// Discover returns the files a run should look at. A file input is
// returned as-is so the runner can report why it is skipped. A directory
// is walked recursively for supported extensions, leaving out outputs of
// earlier runs. The result is sorted.
func Discover(cfg *config.Config) ([]string, error) {
	return discover(cfg.InputPath, func(path string) bool {
		return cfg.IsSupported(path) && !naming.IsOutput(path, cfg.OutputPrefix)
	})
}

func discover(root string, keep func(string) bool) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", root, err)
	}
	if !fi.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && keep(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
