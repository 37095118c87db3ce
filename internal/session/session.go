package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie consulted when no Authorization header is sent.
const CookieName = "session"

// User is the identity carried by a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Session is the authenticated caller of a request.
type Session struct {
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Provider resolves the session of a request, or nil when there is none.
type Provider interface {
	GetSession(h http.Header) *Session
}

var ErrEmptySubject = errors.New("session subject is empty")

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 session tokens.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret, issuer string, ttl time.Duration) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a session token for u.
func (p *JWTProvider) Issue(u User) (string, time.Time, error) {
	if u.ID == "" {
		return "", time.Time{}, ErrEmptySubject
	}
	now := p.now()
	exp := now.Add(p.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// GetSession reads a bearer token or the session cookie from h.
func (p *JWTProvider) GetSession(h http.Header) *Session {
	raw := tokenFromHeader(h)
	if raw == "" {
		return nil
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || c.Subject == "" {
		return nil
	}
	return &Session{
		User:      User{ID: c.Subject, Email: c.Email, Name: c.Name},
		ExpiresAt: c.ExpiresAt.Time,
	}
}

func tokenFromHeader(h http.Header) string {
	if auth := h.Get("Authorization"); len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	r := http.Request{Header: h}
	if ck, err := r.Cookie(CookieName); err == nil {
		return ck.Value
	}
	return ""
}
