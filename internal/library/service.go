package library

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/steam"
)

// maxConcurrentFetches bounds the owned-games fan-out: primary plus up to three family members.
const maxConcurrentFetches = 4

var ErrUnauthorized = errors.New("unauthorized")

// Connections is the part of the connection service the library reads.
type Connections interface {
	Get(ctx context.Context, sess *session.Session, t entity.Type) (*entity.View, error)
	FamilyIDs(ctx context.Context, sess *session.Session) ([]string, error)
}

// SteamAPI is the part of the Steam client the library reads. Its methods
// never fail; they return nil or an empty list instead.
type SteamAPI interface {
	GetPlayerSummary(ctx context.Context, steamID string) *steam.PlayerSummary
	GetSteamLevel(ctx context.Context, steamID string) *int
	GetOwnedGames(ctx context.Context, steamID string) []steam.OwnedGame
}

// Overview is the Steam card of the dashboard. Connected with a nil Player
// means the stored SteamID could not be used (legacy value) and the account
// needs to be linked again.
type Overview struct {
	Connected bool                 `json:"connected"`
	Player    *steam.PlayerSummary `json:"player"`
	Level     *int                 `json:"level"`
}

// Journal is the merged game library of the session user.
type Journal struct {
	SteamConnected bool     `json:"steam_connected"`
	PSNConnected   bool     `json:"psn_connected"`
	FamilyIDs      []string `json:"family_ids"`
	SteamGames     []Game   `json:"steam_games"`
	// PSNGames is always empty: there is no PSN integration beyond the stored token.
	PSNGames []Game `json:"psn_games"`
}

type Service struct {
	connections Connections
	steam       SteamAPI
	logger      *zap.SugaredLogger
}

func NewService(connections Connections, steamAPI SteamAPI, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{connections: connections, steam: steamAPI, logger: logger}
}

// Overview fetches the Steam profile and level of the linked account concurrently.
func (s *Service) Overview(ctx context.Context, sess *session.Session) (*Overview, error) {
	if sess == nil {
		return nil, ErrUnauthorized
	}
	conn, err := s.connections.Get(ctx, sess, entity.TypeSteam)
	if err != nil {
		return nil, fmt.Errorf("load steam connection: %w", err)
	}
	if conn == nil {
		return &Overview{}, nil
	}

	out := &Overview{Connected: true}
	var g errgroup.Group
	g.Go(func() error {
		out.Player = s.steam.GetPlayerSummary(ctx, conn.Value)
		return nil
	})
	g.Go(func() error {
		out.Level = s.steam.GetSteamLevel(ctx, conn.Value)
		return nil
	})
	_ = g.Wait()
	return out, nil
}

// Journal builds the merged library, filtered by query when it is not blank.
func (s *Service) Journal(ctx context.Context, sess *session.Session, query string) (*Journal, error) {
	if sess == nil {
		return nil, ErrUnauthorized
	}
	steamConn, err := s.connections.Get(ctx, sess, entity.TypeSteam)
	if err != nil {
		return nil, fmt.Errorf("load steam connection: %w", err)
	}
	psnConn, err := s.connections.Get(ctx, sess, entity.TypePSN)
	if err != nil {
		return nil, fmt.Errorf("load psn connection: %w", err)
	}
	familyIDs, err := s.connections.FamilyIDs(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("load family ids: %w", err)
	}

	j := &Journal{
		SteamConnected: steamConn != nil,
		PSNConnected:   psnConn != nil,
		FamilyIDs:      familyIDs,
		SteamGames:     []Game{},
		PSNGames:       []Game{},
	}
	if steamConn != nil {
		j.SteamGames = FilterByName(s.FamilyLibrary(ctx, steamConn.Value, familyIDs), query)
	}
	return j, nil
}

// FamilyLibrary fetches the primary and every secondary library concurrently
// and merges them. A failed fetch contributes an empty list; it never cancels
// or fails the others.
func (s *Service) FamilyLibrary(ctx context.Context, primaryID string, secondaryIDs []string) []Game {
	ids := append([]string{primaryID}, secondaryIDs...)
	results := make([][]Game, len(ids))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = s.fetchOwned(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debugw("family library fetched", "accounts", len(ids))
	return MergeLibraries(results[0], results[1:])
}

func (s *Service) fetchOwned(ctx context.Context, steamID string) (games []Game) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("owned games fetch panicked", "panic", r)
			games = []Game{}
		}
	}()
	return FromOwnedGames(s.steam.GetOwnedGames(ctx, steamID))
}
