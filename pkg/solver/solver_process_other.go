//go:build !unix

package solver

import "os/exec"

// killProcessGroup keeps exec's default of killing the process alone
func killProcessGroup(*exec.Cmd) {}
