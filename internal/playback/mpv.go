package playback

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

const releaseTimeout = 3 * time.Second

// MPV plays preview URLs with an audio-only mpv process.
//
// Each handle owns one process started in its own process group. Pause and resume are
// delivered as SIGSTOP and SIGCONT to the group; release terminates it.
type MPV struct {
	Path   string // mpv binary; defaults to "mpv"
	Device string // optional --audio-device value
}

// NewMPV creates an [MPV] mechanism from the playback config.
func NewMPV(cfg shared.PlaybackConfig) *MPV {
	return &MPV{Path: cfg.MPVPath, Device: cfg.AudioDevice}
}

// Args returns the mpv arguments used to play url.
func (m *MPV) Args(url string) []string {
	args := []string{"--no-video", "--no-terminal", "--really-quiet"}
	if m.Device != "" {
		args = append(args, "--audio-device="+m.Device)
	}
	return append(args, url)
}

// Acquire starts mpv for the track's preview URL. onEnded fires when the process exits on its own.
func (m *MPV) Acquire(ctx context.Context, t models.Track, onEnded func()) (Handle, error) {
	if t.SourceURL() == "" {
		return nil, fmt.Errorf("track %s has no preview url", t.Identity())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := m.Path
	if path == "" {
		path = "mpv"
	}

	cmd := exec.Command(path, m.Args(t.SourceURL())...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	h := &mpvHandle{cmd: cmd, done: make(chan struct{})}
	go h.wait(onEnded)
	return h, nil
}

type mpvHandle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu       sync.Mutex
	released bool
}

func (h *mpvHandle) wait(onEnded func()) {
	_ = h.cmd.Wait()

	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	close(h.done)

	if !released && onEnded != nil {
		onEnded()
	}
}

func (h *mpvHandle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *mpvHandle) Pause() error {
	if h.exited() {
		return fmt.Errorf("mpv already exited")
	}
	return signalGroup(h.cmd, sigPause)
}

func (h *mpvHandle) Resume() error {
	if h.exited() {
		return fmt.Errorf("mpv already exited")
	}
	return signalGroup(h.cmd, sigResume)
}

// Release terminates the process group and waits for the process to exit.
func (h *mpvHandle) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	h.mu.Unlock()

	if h.exited() {
		return nil
	}

	_ = signalGroup(h.cmd, sigTerminate)
	// a stopped process only acts on SIGTERM once continued
	_ = signalGroup(h.cmd, sigResume)

	select {
	case <-h.done:
		return nil
	case <-time.After(releaseTimeout):
		if err := h.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill mpv: %w", err)
		}
		<-h.done
		return nil
	}
}
