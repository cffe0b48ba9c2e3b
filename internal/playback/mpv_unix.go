//go:build linux || darwin || freebsd || openbsd || netbsd

package playback

import (
	"os/exec"
	"syscall"
)

const (
	sigPause     = syscall.SIGSTOP
	sigResume    = syscall.SIGCONT
	sigTerminate = syscall.SIGTERM
)

// detach starts the process in its own group so signals reach mpv and its children only.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Signal(sig)
	}
	return syscall.Kill(-pgid, sig)
}
