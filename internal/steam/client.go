// Package steam is a read-only client for the Steam Web API.
//
// Every call degrades instead of failing: a missing API key, a SteamID that
// is not a SteamID64, a transport error, a non-200 status or an undecodable
// body yields nil (or an empty list) and a log line.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.steampowered.com"
	defaultTimeout = 10 * time.Second

	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v0002/"
	steamLevelPath      = "/IPlayerService/GetSteamLevel/v1/"
	ownedGamesPath      = "/IPlayerService/GetOwnedGames/v0001/"
)

// PlayerSummary is the public profile of a Steam account.
type PlayerSummary struct {
	SteamID      string `json:"steamid"`
	PersonaName  string `json:"personaname"`
	ProfileURL   string `json:"profileurl"`
	AvatarFull   string `json:"avatarfull"`
	PersonaState int    `json:"personastate"`
	LastLogoff   int64  `json:"lastlogoff,omitempty"`
}

// Online reports whether the persona state is anything but offline.
func (p *PlayerSummary) Online() bool { return p.PersonaState != 0 }

// OwnedGame is one entry of an owned-games list.
type OwnedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

type steamLevelResponse struct {
	Response struct {
		PlayerLevel *int `json:"player_level"`
	} `json:"response"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

// Client handles communication with the Steam Web API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *zap.SugaredLogger
}

type ClientOption func(*Client)

// WithRateLimit spaces outgoing calls to rps per second with the given burst.
// A non-positive rps leaves calls unthrottled.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a Steam client. An empty apiKey disables every call.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.SugaredLogger, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// GetPlayerSummary returns the profile of steamID, or nil.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) *PlayerSummary {
	var out playerSummariesResponse
	if !c.get(ctx, playerSummariesPath, url.Values{"steamids": {steamID}}, steamID, &out) {
		return nil
	}
	if len(out.Response.Players) == 0 {
		return nil
	}
	return &out.Response.Players[0]
}

// GetSteamLevel returns the Steam level of steamID, or nil.
func (c *Client) GetSteamLevel(ctx context.Context, steamID string) *int {
	var out steamLevelResponse
	if !c.get(ctx, steamLevelPath, url.Values{"steamid": {steamID}}, steamID, &out) {
		return nil
	}
	return out.Response.PlayerLevel
}

// GetOwnedGames returns the games owned by steamID, or an empty list.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) []OwnedGame {
	var out ownedGamesResponse
	q := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"true"},
		"include_played_free_games": {"true"},
		"format":                    {"json"},
	}
	if !c.get(ctx, ownedGamesPath, q, steamID, &out) || out.Response.Games == nil {
		return []OwnedGame{}
	}
	return out.Response.Games
}

// get performs one GET and decodes the body into out. It reports success.
func (c *Client) get(ctx context.Context, path string, q url.Values, steamID string, out any) bool {
	if c.apiKey == "" {
		return false
	}
	if !IsSteamID64(steamID) {
		c.logger.Debugw("skipping steam call for non-numeric steam id", "path", path)
		return false
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Warnw("steam api call not sent", "path", path, "err", err)
			return false
		}
	}
	if err := c.do(ctx, path, q, out); err != nil {
		c.logger.Warnw("steam api call failed", "path", path, "err", err)
		return false
	}
	return true
}

func (c *Client) do(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// IsSteamID64 reports whether s is a plain unsigned decimal SteamID64.
func IsSteamID64(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
