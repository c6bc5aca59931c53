package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes the run's counters to path in the Prometheus text
// format, for node_exporter's textfile collector. The file is replaced
// atomically.
func WriteMetrics(path string, s *RunStats) error {
	reg := prometheus.NewRegistry()

	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ffconvert",
		Name:      "files",
		Help:      "Files handled by the last run, by result.",
	}, []string{"result"})
	files.WithLabelValues("converted").Set(float64(s.Converted()))
	files.WithLabelValues("skipped").Set(float64(s.Skipped()))
	files.WithLabelValues("failed").Set(float64(s.Failed()))

	bytes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ffconvert",
		Name:      "converted_bytes",
		Help:      "Total size of converted files, by side.",
	}, []string{"side"})
	bytes.WithLabelValues("input").Set(float64(s.InputBytes()))
	bytes.WithLabelValues("output").Set(float64(s.OutputBytes()))

	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ffconvert",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last run.",
	})
	duration.Set(s.Elapsed.Seconds())

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ffconvert",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run started.",
	})
	lastRun.Set(float64(s.Started.Unix()))

	jobs := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ffconvert",
		Name:      "jobs",
		Help:      "Worker pool size of the last run.",
	})
	jobs.Set(float64(s.Jobs))

	reg.MustRegister(files, bytes, duration, lastRun, jobs)
	return prometheus.WriteToTextfile(path, reg)
}
