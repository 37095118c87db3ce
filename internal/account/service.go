// Package account signs users up and in and mints their session tokens.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
)

const minPasswordLength = 8

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Store is the user persistence the service needs.
type Store interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(u session.User) (string, time.Time, error)
}

var (
	ErrInvalidEmail   = errors.New("invalid email")
	ErrWeakPassword   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Token is a signed session for a user.
type Token struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      session.User `json:"user"`
}

// Service orchestrates sign up and sign in.
type Service struct {
	store  Store
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.SugaredLogger
}

func NewService(store Store, hasher PasswordHasher, tokens TokenIssuer, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, logger: logger}
}

// SignUp creates a user and returns a session for it.
func (s *Service) SignUp(ctx context.Context, name, email, password string) (*Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, algo, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: algo,
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Infow("user signed up", "user_id", u.ID)
	return s.issue(u)
}

// SignIn verifies the password of email and returns a session. Unknown
// emails and wrong passwords fail alike.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !s.hasher.Verify(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	return s.issue(u)
}

func (s *Service) issue(u *entity.User) (*Token, error) {
	su := session.User{ID: strconv.FormatInt(u.ID, 10), Email: u.Email, Name: u.Name}
	tok, exp, err := s.tokens.Issue(su)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Token{Token: tok, ExpiresAt: exp, User: su}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
