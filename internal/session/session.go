// package session issues and verifies the signed credential of the logged-in user.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "mixtape"
	defaultTTL = 30 * 24 * time.Hour
)

// Authenticator answers who is logged in. Hosts check it before building the music controller.
type Authenticator interface {
	CurrentUser() (*models.User, bool)
	IsAuthenticated() bool
}

// Session is a verified login. The zero value, and a nil *Session, are unauthenticated.
type Session struct {
	Token     string
	User      *models.User
	ExpiresAt time.Time
}

// CurrentUser returns the session's user when authenticated.
func (s *Session) CurrentUser() (*models.User, bool) {
	if !s.IsAuthenticated() {
		return nil, false
	}
	return s.User, true
}

// IsAuthenticated reports whether the session has a user and has not expired.
func (s *Session) IsAuthenticated() bool {
	if s == nil || s.User == nil {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// Claims is the signed payload of a session token. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserStore is the user persistence the manager needs (see [repositories.UserRepository]).
type UserStore interface {
	Create(user *models.User) error
	Get(id string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
}

// Manager signs session tokens with HS256 and resolves them back to users.
type Manager struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a [Manager] from the session config. A secret is required.
func NewManager(users UserStore, cfg shared.SessionConfig) (*Manager, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: session secret (set %s)", shared.ErrMissingCredentials, shared.EnvSessionSecret)
	}

	ttl, err := shared.ParseDuration(cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("%w: session ttl: %v", shared.ErrInvalidConfig, err)
	}
	if ttl == 0 {
		ttl = defaultTTL
	}

	return &Manager{users: users, secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}, nil
}

// Login finds the user by username, creating it on first login, and issues a session for it.
func (m *Manager) Login(username, email string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	user, err := m.users.FindByUsername(username)
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		user = models.NewUser(0, username, email)
		if err := m.users.Create(user); err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	return m.Issue(user)
}

// Issue signs a new token for user.
func (m *Manager) Issue(user *models.User) (*Session, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	claims := Claims{
		Username: user.Username(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        shared.GenerateID(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks token and loads its user.
//
// Errors: [shared.ErrNotAuthenticated] for an empty token or a deleted user, [shared.ErrTokenExpired] and
// [shared.ErrInvalidCredentials] for tokens that fail validation.
func (m *Manager) Verify(token string) (*Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
	}

	user, err := m.users.Get(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	return &Session{Token: token, User: user, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Restore verifies the credential stored in the config.
func (m *Manager) Restore(cfg shared.SessionConfig) (*Session, error) {
	return m.Verify(cfg.Token)
}

// Store writes s into the config's session section.
func Store(cfg *shared.Config, s *Session) {
	cfg.Session.Token = s.Token
	cfg.Session.UserID = s.User.ID()
}

// Logout clears the stored credential.
func Logout(cfg *shared.Config) {
	cfg.Session.Token = ""
	cfg.Session.UserID = ""
}
