package library

import (
	"slices"
	"strings"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/steam"
)

// Game is one entry of a merged library.
type Game struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url,omitempty"`
	// Shared marks games that only a family member owns.
	Shared bool `json:"shared"`
}

// FromOwnedGames converts a Steam owned-games list.
func FromOwnedGames(owned []steam.OwnedGame) []Game {
	games := make([]Game, 0, len(owned))
	for _, g := range owned {
		games = append(games, Game{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeForever: g.PlaytimeForever,
			ImgIconURL:      g.ImgIconURL,
		})
	}
	return games
}

// MergeLibraries combines the primary library with the secondary ones.
// Entries are keyed by AppID and the first occurrence wins, so primary games
// always take precedence; games contributed by a secondary list are marked
// Shared. The result is sorted by name, case-insensitively, with ties kept in
// insertion order.
func MergeLibraries(primary []Game, secondaries [][]Game) []Game {
	seen := make(map[int64]struct{}, len(primary))
	merged := make([]Game, 0, len(primary))

	for _, g := range primary {
		if _, ok := seen[g.AppID]; ok {
			continue
		}
		seen[g.AppID] = struct{}{}
		g.Shared = false
		merged = append(merged, g)
	}
	for _, list := range secondaries {
		for _, g := range list {
			if _, ok := seen[g.AppID]; ok {
				continue
			}
			seen[g.AppID] = struct{}{}
			g.Shared = true
			merged = append(merged, g)
		}
	}

	slices.SortStableFunc(merged, func(a, b Game) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return merged
}

// FilterByName keeps the games whose name contains query, case-insensitively.
func FilterByName(games []Game, query string) []Game {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return games
	}
	out := []Game{}
	for _, g := range games {
		if strings.Contains(strings.ToLower(g.Name), query) {
			out = append(out, g)
		}
	}
	return out
}
