//go:build !unix

package ffmpeg

import "os/exec"

// setProcessGroup keeps exec.CommandContext's default single-process kill.
func setProcessGroup(cmd *exec.Cmd) {}
