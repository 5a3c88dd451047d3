//go:build !unix

package recognition

import "os/exec"

// isolateProcessGroup falls back to exec's default: the direct child is
// killed on cancellation.
func isolateProcessGroup(cmd *exec.Cmd) {}
