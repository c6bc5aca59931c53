package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/ffconvert/internal/config"
	"github.com/backmassage/ffconvert/internal/display"
	"github.com/backmassage/ffconvert/internal/logging"
	"github.com/backmassage/ffconvert/internal/probe"
	"github.com/backmassage/ffconvert/internal/term"
)

// infoRow is one line of the info table.
type infoRow struct {
	Path       string
	Video      string
	Audio      string
	Resolution string
	Subtitles  int
	VideoKbps  int64
	Estimated  bool
	Duration   float64
	Err        error
}

// InfoStats counts the files info mode looked at.
type InfoStats struct {
	Probed int
	Failed int
}

// Info probes every discovered file (jobs at a time) and writes a table of
// codecs and bitrates to out (see Logger.InfoWriter for the --log case). Nothing is converted. Video bitrates far
// outside the batch's interquartile range are flagged.
func Info(ctx context.Context, cfg *config.Config, prober Prober, jobs int, out io.Writer, log *logging.Logger) (InfoStats, error) {
	files, err := Discover(cfg)
	if err != nil {
		return InfoStats{}, err
	}
	if len(files) == 0 {
		log.Warn("No media files found in %s", cfg.InputPath)
		return InfoStats{}, nil
	}
	log.Info("Probing %d file(s) in %s", len(files), cfg.InputPath)

	rows := make([]infoRow, len(files))
	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rows[i] = probeRow(ctx, prober, path)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return InfoStats{}, err
	}

	var stats InfoStats
	var kbps []float64
	for _, r := range rows {
		if r.Err != nil {
			stats.Failed++
			log.Error("%v", r.Err)
			continue
		}
		stats.Probed++
		if r.VideoKbps > 0 {
			kbps = append(kbps, float64(r.VideoKbps))
		}
	}
	bounds := computeBounds(kbps)
	writeInfoTable(out, rows, bounds)
	if bounds.valid {
		log.Info("Video bitrate IQR: %.0f - %.0f kbps (outlier < %.0f or > %.0f)",
			bounds.q1, bounds.q3, bounds.outlierLo, bounds.outlierHi)
	}
	return stats, nil
}

func probeRow(ctx context.Context, prober Prober, path string) infoRow {
	res, err := prober.Probe(ctx, path)
	if err != nil {
		return infoRow{Path: path, Err: err}
	}
	row := infoRow{
		Path:       path,
		Video:      labelOr(res.FirstVideo(), "none"),
		Audio:      labelOr(res.FirstAudio(), "none"),
		Resolution: res.Resolution(),
		Subtitles:  len(res.Of(probe.KindSubtitle)),
		Duration:   res.Duration,
	}
	if v := res.FirstVideo(); v != nil {
		row.VideoKbps = v.BitrateKbps
		row.Estimated = v.BitrateEstimated
	}
	if a := res.FirstAudio(); a != nil && a.Channels > 0 {
		row.Audio += fmt.Sprintf(" (%dch)", a.Channels)
	}
	return row
}

func writeInfoTable(out io.Writer, rows []infoRow, bounds iqrBounds) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tVIDEO\tAUDIO\tSUBS\tRESOLUTION\tVIDEO BITRATE\tDURATION\t")
	for _, r := range rows {
		name := filepath.Base(r.Path)
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\t\t\t\n", name, "probe failed")
			continue
		}
		bitrate := display.FormatBitrate(r.VideoKbps)
		if r.Estimated && r.VideoKbps > 0 {
			bitrate = "~" + bitrate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			name, r.Video, r.Audio, r.Subtitles, r.Resolution, bitrate,
			display.FormatClock(r.Duration), formatFlag(bounds.classify(float64(r.VideoKbps))))
	}
	_ = tw.Flush()
}

// iqrBounds holds the thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3*IQR
	extremeHi float64 // Q3 + 3*IQR
	valid     bool
}

// computeBounds needs at least four samples.
func computeBounds(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1
	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3*iqr,
		extremeHi: q3 + 3*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "", "outlier" or "extreme".
func (b iqrBounds) classify(v float64) string {
	switch {
	case !b.valid || v <= 0:
		return ""
	case v < b.extremeLo || v > b.extremeHi:
		return "extreme"
	case v < b.outlierLo || v > b.outlierHi:
		return "outlier"
	}
	return ""
}

func formatFlag(class string) string {
	switch class {
	case "extreme":
		return term.Red + "[!]" + term.NC
	case "outlier":
		return term.Yellow + "[*]" + term.NC
	}
	return ""
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
