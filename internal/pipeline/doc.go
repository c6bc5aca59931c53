// Package pipeline drives a run: it discovers inputs, fans them out to a
// bounded worker pool, and walks each file through probe, decide, build
// and execute. It also implements the info and subtitle-only modes and
// writes the end-of-run summary and metrics.
package pipeline
