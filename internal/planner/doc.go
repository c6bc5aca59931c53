// Package planner is the conversion policy engine. Decide turns the probed
// streams of one file, an immutable Policy and the target container into a
// Plan: one copy/transcode/drop decision per selected stream, with the
// reasons that triggered it. The package does no I/O.
package planner
