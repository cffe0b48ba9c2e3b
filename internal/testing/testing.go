// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
)

// MockSearcher is a test double for [services.Searcher]
type MockSearcher struct {
	ProviderKind models.ProviderKind
	Tracks       []models.Track // returned by Search
	Popular      []models.Track // returned by FetchDefault
	Err          error

	mu      sync.Mutex
	Queries []string
}

func (m *MockSearcher) Kind() models.ProviderKind { return m.ProviderKind }
func (m *MockSearcher) Name() string              { return "mock " + m.ProviderKind.String() }

func (m *MockSearcher) Search(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

func (m *MockSearcher) FetchDefault(ctx context.Context) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Popular, nil
}

// MockHandle is a test double for [playback.Handle]
type MockHandle struct {
	mu       sync.Mutex
	Paused   bool
	Released bool
}

func (h *MockHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Paused = true
	return nil
}

func (h *MockHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Paused = false
	return nil
}

func (h *MockHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Released = true
	return nil
}

// IsReleased reports whether Release was called.
func (h *MockHandle) IsReleased() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Released
}

// MockMechanism is a test double for [playback.Mechanism] that records every acquisition
type MockMechanism struct {
	Err error

	mu      sync.Mutex
	Handles []*MockHandle
	Tracks  []models.Track
}

func (m *MockMechanism) Acquire(ctx context.Context, t models.Track, onEnded func()) (playback.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tracks = append(m.Tracks, t)
	if m.Err != nil {
		return nil, m.Err
	}
	h := &MockHandle{}
	m.Handles = append(m.Handles, h)
	return h, nil
}

// Acquired returns the number of acquisitions.
func (m *MockMechanism) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Tracks)
}

// MockMechanisms returns one [MockMechanism] per playback style.
func MockMechanisms() (playback.Mechanisms, *MockMechanism, *MockMechanism, *MockMechanism) {
	audio, embed, handoff := &MockMechanism{}, &MockMechanism{}, &MockMechanism{}
	return playback.Mechanisms{Audio: audio, Embed: embed, Handoff: handoff}, audio, embed, handoff
}

// MockAuth is a test double for [session.Authenticator]
type MockAuth struct {
	User *models.User
}

// NewMockAuth returns an authenticated [MockAuth] for a user with the given id.
func NewMockAuth(userID string) *MockAuth {
	u := models.NewUser(1, "tester", "tester@example.com")
	u.SetID(userID)
	return &MockAuth{User: u}
}

func (m *MockAuth) CurrentUser() (*models.User, bool) { return m.User, m.User != nil }
func (m *MockAuth) IsAuthenticated() bool             { return m.User != nil }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
