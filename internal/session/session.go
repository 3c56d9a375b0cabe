// Package session tracks who a request is acting as and turns that into
// the Set-Cookie value handed back to the client.
//
// State is created per request, so authentication never carries over
// from one connection to the next. The Manager only remembers the last
// user that authenticated, for logging and inspection.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Mode string

const (
	// ModeLegacy uses the username itself as the cookie value.
	ModeLegacy Mode = "legacy"
	// ModeToken issues an HS256 token whose subject is the username.
	ModeToken Mode = "token"
)

var ErrInvalidToken = errors.New("invalid session token")

// State is the session view of a single request.
type State struct {
	CurrentUser   string
	Authenticated bool
	EmitCookie    bool
}

type Manager struct {
	mode   Mode
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last string
}

// NewManager builds a Manager. In token mode an empty secret is replaced
// by 32 random bytes, which invalidates outstanding tokens on restart.
func NewManager(mode Mode, secret []byte, ttl time.Duration) (*Manager, error) {
	switch mode {
	case ModeLegacy:
	case ModeToken:
		if len(secret) == 0 {
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return nil, fmt.Errorf("generate session secret: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		mode:   mode,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *Manager) Mode() Mode {
	return m.mode
}

// Begin returns a fresh, unauthenticated State.
func (m *Manager) Begin() *State {
	return &State{}
}

// Login marks s as authenticated for user.
func (m *Manager) Login(s *State, user string) {
	s.CurrentUser = user
	s.Authenticated = true

	m.mu.Lock()
	m.last = user
	m.mu.Unlock()
}

// LastUser is the most recent username passed to Login, across all requests.
func (m *Manager) LastUser() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// CookieValue is what goes after "Set-Cookie: " for an authenticated s.
func (m *Manager) CookieValue(s *State) (string, error) {
	if m.mode == ModeLegacy {
		return s.CurrentUser, nil
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   s.CurrentUser,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve maps a cookie value back to a username.
func (m *Manager) Resolve(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidToken
	}
	if m.mode == ModeLegacy {
		return value, nil
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
