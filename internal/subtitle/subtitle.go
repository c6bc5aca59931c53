// Package subtitle handles sidecar .srt files next to video inputs: it
// detects legacy 8-bit encodings, converts them to UTF-8, and copies the
// best available sidecar next to a converted output.
//
// Detection and conversion use the external `file` and `iconv` tools when
// they are installed and fall back to native implementations otherwise.
package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/backmassage/ffconvert/internal/check"
	"github.com/backmassage/ffconvert/internal/config"
)

// Detector reports the character encoding of a text file using the names
// printed by `file --mime-encoding` (e.g. "utf-8", "unknown-8bit").
type Detector interface {
	Detect(ctx context.Context, path string) (string, error)
}

// Converter rewrites src, encoded in charset, as UTF-8 at dst.
type Converter interface {
	Convert(ctx context.Context, src, dst, charset string) error
}

// Logger is the subset of the application logger used here.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
}

// Outcome is what happened to a sidecar.
type Outcome int

const (
	OutcomeNone      Outcome = iota // no sidecar next to the video
	OutcomeExists                   // target already present, left alone
	OutcomeCompliant                // already UTF-8 or ASCII
	OutcomeConverted                // re-encoded to UTF-8
	OutcomeCopied                   // copied unchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeExists:
		return "exists"
	case OutcomeCompliant:
		return "compliant"
	case OutcomeConverted:
		return "converted"
	case OutcomeCopied:
		return "copied"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Processor applies the sidecar rules for one run.
type Processor struct {
	Detector  Detector
	Converter Converter
	Charset   string   // source charset of legacy files
	Legacy    []string // encodings that need conversion
	DryRun    bool
	Log       Logger
}

// NewProcessor picks external tools when LookupTools found them and native
// implementations otherwise.
func NewProcessor(cfg *config.Config, tools check.Tools, log Logger) *Processor {
	p := &Processor{
		Charset: cfg.SubtitleCharset,
		Legacy:  slices.Clone(cfg.LegacyEncodings),
		DryRun:  cfg.DryRun,
		Log:     log,
	}
	if tools.File != "" {
		p.Detector = FileDetector{Bin: tools.File}
	} else {
		p.Detector = NativeDetector{}
	}
	if tools.Iconv != "" {
		p.Converter = IconvConverter{Bin: tools.Iconv}
	} else {
		p.Converter = NativeConverter{}
	}
	return p
}

// SidecarPaths returns "<stem>.srt" and "<stem>.utf8.srt" for a video.
func SidecarPaths(video string) (srt, utf8 string) {
	srt = strings.TrimSuffix(video, filepath.Ext(video)) + ".srt"
	return srt, UTF8Path(srt)
}

// UTF8Path returns the converted name for a sidecar: "x.srt" -> "x.utf8.srt".
func UTF8Path(srt string) string {
	return strings.TrimSuffix(srt, filepath.Ext(srt)) + ".utf8.srt"
}

// IsConverted reports whether path is an already converted sidecar.
func IsConverted(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".utf8.srt")
}

// OutputSidecar returns the sidecar path that belongs to a converted
// output ("conv-<stem>.srt").
func OutputSidecar(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".srt"
}

// IsLegacy reports whether enc needs conversion.
func (p *Processor) IsLegacy(enc string) bool {
	enc = strings.ToLower(strings.TrimSpace(enc))
	for _, l := range p.Legacy {
		if strings.EqualFold(l, enc) {
			return true
		}
	}
	return false
}

// ConvertFile writes "<stem>.utf8.srt" next to a "<stem>.srt" that uses a
// legacy encoding.
func (p *Processor) ConvertFile(ctx context.Context, srt string) (Outcome, error) {
	utf8 := UTF8Path(srt)
	if !exists(srt) {
		return OutcomeNone, nil
	}
	if exists(utf8) {
		p.Log.Info("UTF-8 subtitle already exists: %s", filepath.Base(utf8))
		return OutcomeExists, nil
	}

	enc, err := p.Detector.Detect(ctx, srt)
	if err != nil {
		return OutcomeNone, fmt.Errorf("detect encoding of %s: %w", srt, err)
	}
	if !p.IsLegacy(enc) {
		p.Log.Info("Subtitle %s is %s, no conversion needed", filepath.Base(srt), enc)
		return OutcomeCompliant, nil
	}

	if p.DryRun {
		p.Log.Info("DRY RUN: would convert %s (%s) to %s", filepath.Base(srt), enc, filepath.Base(utf8))
		return OutcomeConverted, nil
	}
	if err := p.Converter.Convert(ctx, srt, utf8, p.Charset); err != nil {
		return OutcomeNone, fmt.Errorf("convert %s: %w", srt, err)
	}
	p.Log.Success("Converted subtitle %s (%s) to UTF-8", filepath.Base(srt), enc)
	return OutcomeConverted, nil
}

// CopyForOutput places a sidecar next to a converted output. A prepared
// "<stem>.utf8.srt" wins; otherwise "<stem>.srt" is converted when legacy
// and copied when not. An existing target is never overwritten.
func (p *Processor) CopyForOutput(ctx context.Context, video, output string) (Outcome, error) {
	srt, utf8 := SidecarPaths(video)
	dst := OutputSidecar(output)
	if exists(dst) {
		return OutcomeExists, nil
	}

	src := ""
	switch {
	case exists(utf8):
		src = utf8
	case exists(srt):
		enc, err := p.Detector.Detect(ctx, srt)
		if err != nil {
			return OutcomeNone, fmt.Errorf("detect encoding of %s: %w", srt, err)
		}
		if p.IsLegacy(enc) {
			if p.DryRun {
				p.Log.Info("DRY RUN: would convert %s to %s", filepath.Base(srt), filepath.Base(dst))
				return OutcomeConverted, nil
			}
			if err := p.Converter.Convert(ctx, srt, dst, p.Charset); err != nil {
				return OutcomeNone, fmt.Errorf("convert %s: %w", srt, err)
			}
			p.Log.Success("Subtitle converted to %s", filepath.Base(dst))
			return OutcomeConverted, nil
		}
		src = srt
	default:
		return OutcomeNone, nil
	}

	if p.DryRun {
		p.Log.Info("DRY RUN: would copy %s to %s", filepath.Base(src), filepath.Base(dst))
		return OutcomeCopied, nil
	}
	if err := copyFile(src, dst); err != nil {
		return OutcomeNone, err
	}
	p.Log.Success("Subtitle copied to %s", filepath.Base(dst))
	return OutcomeCopied, nil
}

// copyFile writes src to dst atomically.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeAtomic(dst, in)
}

// writeAtomic streams r into a pending file and renames it over path.
func writeAtomic(path string, r io.Reader) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", path, err)
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := io.Copy(pf, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
