package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/shared"
)

func newTestManager(t *testing.T) (*Manager, *repositories.UserRepository) {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: shared.MemoryDatabase})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := repositories.NewUserRepository(db)
	m, err := NewManager(users, shared.SessionConfig{Secret: "test-secret", TTL: "1h"})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m, users
}

type failingStore struct{ err error }

func (f failingStore) Create(*models.User) error                   { return f.err }
func (f failingStore) Get(string) (*models.User, error)            { return nil, f.err }
func (f failingStore) FindByUsername(string) (*models.User, error) { return nil, f.err }

func TestNewManager(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		_, err := NewManager(failingStore{}, shared.SessionConfig{Secret: "  "})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		_, err := NewManager(failingStore{}, shared.SessionConfig{Secret: "s", TTL: "forever"})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("default ttl", func(t *testing.T) {
		m, err := NewManager(failingStore{}, shared.SessionConfig{Secret: "s"})
		if err != nil {
			t.Fatal(err)
		}
		if m.ttl != defaultTTL {
			t.Errorf("expected %v, got %v", defaultTTL, m.ttl)
		}
	})
}

func TestManager(t *testing.T) {
	t.Run("Login creates user once", func(t *testing.T) {
		m, users := newTestManager(t)

		first, err := m.Login("alice", "alice@example.com")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		second, err := m.Login("alice", "")
		if err != nil {
			t.Fatalf("second Login failed: %v", err)
		}

		if first.User.ID() != second.User.ID() {
			t.Error("expected second login to reuse the user")
		}
		all, _ := users.List(nil)
		if len(all) != 1 {
			t.Errorf("expected 1 user, got %d", len(all))
		}
		if !first.IsAuthenticated() {
			t.Error("expected fresh session to be authenticated")
		}
		if strings.Count(first.Token, ".") != 2 {
			t.Errorf("expected a compact JWT, got %q", first.Token)
		}
	})

	t.Run("Login requires username", func(t *testing.T) {
		m, _ := newTestManager(t)
		if _, err := m.Login("   ", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Login store failure", func(t *testing.T) {
		m, err := NewManager(failingStore{err: fmt.Errorf("disk full")}, shared.SessionConfig{Secret: "s"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Login("bob", ""); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Verify round trip", func(t *testing.T) {
		m, _ := newTestManager(t)
		s, err := m.Login("alice", "")
		if err != nil {
			t.Fatal(err)
		}

		got, err := m.Verify(s.Token)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if got.User.Username() != "alice" {
			t.Errorf("expected alice, got %s", got.User.Username())
		}
		user, ok := got.CurrentUser()
		if !ok || user.ID() != s.User.ID() {
			t.Error("expected CurrentUser to return the logged-in user")
		}
	})

	t.Run("Verify errors", func(t *testing.T) {
		m, _ := newTestManager(t)
		s, err := m.Login("alice", "")
		if err != nil {
			t.Fatal(err)
		}

		other, _ := NewManager(failingStore{}, shared.SessionConfig{Secret: "other-secret"})

		tests := []struct {
			name  string
			token string
			m     *Manager
			want  error
		}{
			{"empty", "", m, shared.ErrNotAuthenticated},
			{"garbage", "not.a.token", m, shared.ErrInvalidCredentials},
			{"wrong secret", s.Token, other, shared.ErrInvalidCredentials},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := tt.m.Verify(tt.token); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Verify expired", func(t *testing.T) {
		m, _ := newTestManager(t)
		s, err := m.Login("alice", "")
		if err != nil {
			t.Fatal(err)
		}

		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := m.Verify(s.Token); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Verify deleted user", func(t *testing.T) {
		m, users := newTestManager(t)
		s, err := m.Login("alice", "")
		if err != nil {
			t.Fatal(err)
		}
		if err := users.Delete(s.User.ID()); err != nil {
			t.Fatal(err)
		}

		if _, err := m.Verify(s.Token); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Store and Logout", func(t *testing.T) {
		m, _ := newTestManager(t)
		s, err := m.Login("alice", "")
		if err != nil {
			t.Fatal(err)
		}

		cfg := shared.DefaultConfig()
		Store(cfg, s)
		if cfg.Session.UserID != s.User.ID() {
			t.Errorf("expected user id stored, got %q", cfg.Session.UserID)
		}

		restored, err := m.Restore(cfg.Session)
		if err != nil || !restored.IsAuthenticated() {
			t.Fatalf("expected restore to succeed: %v", err)
		}

		Logout(cfg)
		if cfg.Session.Token != "" || cfg.Session.UserID != "" {
			t.Error("expected credential cleared")
		}
		if _, err := m.Restore(cfg.Session); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
		}
	})
}

func TestSession(t *testing.T) {
	user := models.NewUser(1, "alice", "")
	user.SetID("u1")

	tests := []struct {
		name string
		s    *Session
		want bool
	}{
		{"nil", nil, false},
		{"no user", &Session{Token: "t"}, false},
		{"no expiry", &Session{User: user}, true},
		{"future expiry", &Session{User: user, ExpiresAt: time.Now().Add(time.Hour)}, true},
		{"expired", &Session{User: user, ExpiresAt: time.Now().Add(-time.Minute)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IsAuthenticated(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if _, ok := tt.s.CurrentUser(); ok != tt.want {
				t.Errorf("expected CurrentUser ok=%v", tt.want)
			}
		})
	}
}
