//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package playback

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/desertthunder/mixtape/internal/shared"
)

type signal int

const (
	sigPause signal = iota
	sigResume
	sigTerminate
)

func detach(*exec.Cmd) {}

// signalGroup only supports termination; pausing a process is not available on this platform.
func signalGroup(cmd *exec.Cmd, sig signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	switch sig {
	case sigTerminate:
		return cmd.Process.Signal(os.Kill)
	case sigResume:
		return nil
	default:
		return fmt.Errorf("%w: pause on this platform", shared.ErrNotImplemented)
	}
}
