package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// IconvConverter runs `iconv -f <charset> -t UTF-8 -o <dst> <src>`.
type IconvConverter struct {
	Bin string
}

func (c IconvConverter) Convert(ctx context.Context, src, dst, cs string) error {
	cmd := exec.CommandContext(ctx, c.Bin, "-f", cs, "-t", "UTF-8", "-o", dst, src)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("iconv: %s: %w", msg, err)
		}
		return fmt.Errorf("iconv: %w", err)
	}
	return nil
}

// NativeConverter decodes with golang.org/x/text and writes the result
// atomically. Unknown charset names fall back to Windows-1250.
type NativeConverter struct{}

func (NativeConverter) Convert(_ context.Context, src, dst, cs string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeAtomic(dst, transform.NewReader(in, lookupEncoding(cs).NewDecoder()))
}

func lookupEncoding(name string) encoding.Encoding {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc
	}
	return charmap.Windows1250
}
