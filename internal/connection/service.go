package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
)

// Store is the persistence collaborator, keyed by (userID, type).
type Store interface {
	Upsert(ctx context.Context, c *entity.Connection) error
	Find(ctx context.Context, userID string, t entity.Type) (*entity.Connection, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Connection, error)
	Delete(ctx context.Context, userID string, t entity.Type) error
}

// Codec encrypts credentials on write and decrypts them on read.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) string
}

// IDGenerator hands out primary keys for new rows.
type IDGenerator interface {
	NewID() string
}

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrSteamIDRequired   = errors.New("steam id is required")
	ErrPSNTokenRequired  = errors.New("psn token is required")
	ErrFamilyIDsRequired = errors.New("family steam ids are required")
	ErrUnknownType       = errors.New("unknown connection type")
)

// Service links, lists and unlinks third-party accounts of the session user.
type Service struct {
	store  Store
	codec  Codec
	ids    IDGenerator
	logger *zap.SugaredLogger
}

func NewService(store Store, codec Codec, ids IDGenerator, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, codec: codec, ids: ids, logger: logger}
}

// LinkSteam stores the encrypted SteamID64 of the session user.
func (s *Service) LinkSteam(ctx context.Context, sess *session.Session, steamID string) error {
	return s.link(ctx, sess, entity.TypeSteam, steamID, ErrSteamIDRequired)
}

// LinkPSN stores the encrypted PSN token of the session user.
func (s *Service) LinkPSN(ctx context.Context, sess *session.Session, psnToken string) error {
	return s.link(ctx, sess, entity.TypePSN, psnToken, ErrPSNTokenRequired)
}

func (s *Service) link(ctx context.Context, sess *session.Session, t entity.Type, secret string, errEmpty error) error {
	userID, err := userOf(sess)
	if err != nil {
		return err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errEmpty
	}
	envelope, err := s.codec.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt %s credential: %w", t, err)
	}
	if err := s.upsert(ctx, userID, t, envelope); err != nil {
		return err
	}
	s.logger.Infow("connection linked", "user_id", userID, "type", t)
	return nil
}

// List returns the connections of the session user with credentials
// decrypted. Without a session it returns an empty list.
func (s *Service) List(ctx context.Context, sess *session.Session) ([]entity.View, error) {
	views := []entity.View{}
	userID, err := userOf(sess)
	if err != nil {
		return views, nil
	}
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for _, c := range rows {
		views = append(views, s.view(c))
	}
	return views, nil
}

// Get returns one decrypted connection of the session user, or nil.
func (s *Service) Get(ctx context.Context, sess *session.Session, t entity.Type) (*entity.View, error) {
	userID, err := userOf(sess)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Find(ctx, userID, t)
	if err != nil {
		return nil, fmt.Errorf("find %s connection: %w", t, err)
	}
	if c == nil {
		return nil, nil
	}
	v := s.view(c)
	return &v, nil
}

// Disconnect deletes one connection of the session user.
func (s *Service) Disconnect(ctx context.Context, sess *session.Session, t entity.Type) error {
	userID, err := userOf(sess)
	if err != nil {
		return err
	}
	if _, ok := entity.ParseType(string(t)); !ok {
		return ErrUnknownType
	}
	if err := s.store.Delete(ctx, userID, t); err != nil {
		return fmt.Errorf("delete %s connection: %w", t, err)
	}
	s.logger.Infow("connection removed", "user_id", userID, "type", t)
	return nil
}

// FamilyIDs returns the stored family SteamIDs of the session user.
func (s *Service) FamilyIDs(ctx context.Context, sess *session.Session) ([]string, error) {
	userID, err := userOf(sess)
	if err != nil {
		return nil, err
	}
	return s.familyIDs(ctx, userID)
}

// UpdateSteamFamilyIDs adds the comma separated SteamIDs in csv to the family
// list, keeping at most MaxFamilyMembers.
func (s *Service) UpdateSteamFamilyIDs(ctx context.Context, sess *session.Session, csv string) ([]string, error) {
	userID, err := userOf(sess)
	if err != nil {
		return nil, err
	}
	if len(ParseFamilyIDs(csv)) == 0 {
		return nil, ErrFamilyIDsRequired
	}
	existing, err := s.familyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := UpdateFamilyIDs(existing, csv)
	if err := s.upsert(ctx, userID, entity.TypeSteamFamily, strings.Join(ids, ",")); err != nil {
		return nil, err
	}
	return ids, nil
}

// RemoveSteamFamilyMember drops one SteamID from the family list. The row is
// deleted once the list is empty.
func (s *Service) RemoveSteamFamilyMember(ctx context.Context, sess *session.Session, steamID string) ([]string, error) {
	userID, err := userOf(sess)
	if err != nil {
		return nil, err
	}
	existing, err := s.familyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := NewFamilySet(existing...)
	if !set.Remove(steamID) {
		return set.IDs(), nil
	}
	if set.Len() == 0 {
		if err := s.store.Delete(ctx, userID, entity.TypeSteamFamily); err != nil {
			return nil, fmt.Errorf("delete family connection: %w", err)
		}
		return set.IDs(), nil
	}
	if err := s.upsert(ctx, userID, entity.TypeSteamFamily, set.String()); err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

func (s *Service) familyIDs(ctx context.Context, userID string) ([]string, error) {
	c, err := s.store.Find(ctx, userID, entity.TypeSteamFamily)
	if err != nil {
		return nil, fmt.Errorf("find family connection: %w", err)
	}
	if c == nil {
		return []string{}, nil
	}
	return ParseFamilyIDs(c.Value), nil
}

func (s *Service) upsert(ctx context.Context, userID string, t entity.Type, value string) error {
	c := &entity.Connection{ID: s.ids.NewID(), UserID: userID, Type: t, Value: value}
	if err := s.store.Upsert(ctx, c); err != nil {
		return fmt.Errorf("upsert %s connection: %w", t, err)
	}
	return nil
}

func (s *Service) view(c *entity.Connection) entity.View {
	v := entity.View{Type: c.Type, Value: c.Value, UpdatedAt: c.UpdatedAt}
	if c.Type.Encrypted() {
		v.Value = s.codec.Decrypt(c.Value)
	}
	return v
}

func userOf(sess *session.Session) (string, error) {
	if sess == nil || sess.User.ID == "" {
		return "", ErrUnauthorized
	}
	return sess.User.ID, nil
}
