// Package profile fetches and assembles external account data for steam
// ids: summary, ban history, friends, third party sourcebans and the
// avatar image.
package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/cache"
	"github.com/leighmacdonald/tf-sentry/internal/encoding"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.steampowered.com"

	// VisibilityPublic is the communityvisibilitystate value of a public
	// profile. Friend lists are only fetchable for public profiles.
	VisibilityPublic = 3

	// The Steam Web API allows 100k calls/day, stay well under it.
	requestsPerSecond = 4
)

var (
	ErrFetchSummary  = errors.New("failed to fetch player summary")
	ErrFetchBans     = errors.New("failed to fetch player bans")
	ErrFetchFriends  = errors.New("failed to fetch friends list")
	ErrFetchAvatar   = errors.New("failed to fetch avatar")
	ErrRequestStatus = errors.New("unexpected response status")
)

// HTTPDoer defines a common interface for HTTP clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Summary mirrors the GetPlayerSummaries player object.
type Summary struct {
	SteamID         string `json:"steamid"`
	PersonaName     string `json:"personaname"`
	ProfileURL      string `json:"profileurl"`
	Avatar          string `json:"avatar"`
	AvatarMedium    string `json:"avatarmedium"`
	AvatarFull      string `json:"avatarfull"`
	VisibilityState int    `json:"communityvisibilitystate"`
	ProfileState    int    `json:"profilestate"`
	TimeCreated     int64  `json:"timecreated"`
	LocCountryCode  string `json:"loccountrycode"`
}

// Bans mirrors the GetPlayerBans player object.
type Bans struct {
	SteamID          string `json:"SteamId"`
	CommunityBanned  bool   `json:"CommunityBanned"`
	VACBanned        bool   `json:"VACBanned"`
	NumberOfVACBans  int    `json:"NumberOfVACBans"`
	DaysSinceLastBan int    `json:"DaysSinceLastBan"`
	NumberOfGameBans int    `json:"NumberOfGameBans"`
	EconomyBan       string `json:"EconomyBan"`
}

// Friend mirrors one GetFriendList entry.
type Friend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

type Opts struct {
	APIKey          string
	SteamHistoryKey string
	BaseURL         string
	SourceBansURL   string
}

func NewClient(httpClient HTTPDoer, avatars cache.Cache, opts Opts) *Client {
	client := &Client{
		httpClient: httpClient,
		avatars:    avatars,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	client.ApplyOpts(opts)

	return client
}

type Client struct {
	httpClient HTTPDoer
	avatars    cache.Cache
	optsMu     sync.RWMutex
	opts       Opts
	limiter    *rate.Limiter
}

// ApplyOpts swaps the api keys and endpoints, used when the config file
// is edited while running. Safe to call concurrently with requests.
func (c *Client) ApplyOpts(opts Opts) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.SourceBansURL == "" {
		opts.SourceBansURL = DefaultSourceBansURL
	}

	c.optsMu.Lock()
	c.opts = opts
	c.optsMu.Unlock()
}

func (c *Client) options() Opts {
	c.optsMu.RLock()
	defer c.optsMu.RUnlock()

	return c.opts
}

func (c *Client) get(ctx context.Context, requestURL string) (*http.Response, error) {
	if errWait := c.limiter.Wait(ctx); errWait != nil {
		return nil, errWait
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if errReq != nil {
		return nil, errReq
	}

	resp, errResp := c.httpClient.Do(req)
	if errResp != nil {
		return nil, errResp
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, ErrRequestStatus
	}

	return resp, nil
}

func (c *Client) apiURL(path string, query url.Values) string {
	opts := c.options()
	query.Set("key", opts.APIKey)

	return opts.BaseURL + path + "?" + query.Encode()
}

func (c *Client) Summary(ctx context.Context, steamID steamid.SteamID) (Summary, error) {
	resp, errResp := c.get(ctx, c.apiURL("/ISteamUser/GetPlayerSummaries/v0002/",
		url.Values{"steamids": {steamID.String()}}))
	if errResp != nil {
		return Summary{}, errors.Join(errResp, ErrFetchSummary)
	}
	defer closeBody(resp.Body)

	type envelope struct {
		Response struct {
			Players []Summary `json:"players"`
		} `json:"response"`
	}

	parsed, errParse := encoding.UnmarshalJSON[envelope](resp.Body)
	if errParse != nil {
		return Summary{}, errors.Join(errParse, ErrFetchSummary)
	}

	if len(parsed.Response.Players) == 0 {
		return Summary{}, ErrFetchSummary
	}

	return parsed.Response.Players[0], nil
}

func (c *Client) Bans(ctx context.Context, steamID steamid.SteamID) (Bans, error) {
	resp, errResp := c.get(ctx, c.apiURL("/ISteamUser/GetPlayerBans/v1/",
		url.Values{"steamids": {steamID.String()}}))
	if errResp != nil {
		return Bans{}, errors.Join(errResp, ErrFetchBans)
	}
	defer closeBody(resp.Body)

	type envelope struct {
		Players []Bans `json:"players"`
	}

	parsed, errParse := encoding.UnmarshalJSON[envelope](resp.Body)
	if errParse != nil {
		return Bans{}, errors.Join(errParse, ErrFetchBans)
	}

	if len(parsed.Players) == 0 {
		return Bans{}, ErrFetchBans
	}

	return parsed.Players[0], nil
}

func (c *Client) Friends(ctx context.Context, steamID steamid.SteamID) ([]Friend, error) {
	resp, errResp := c.get(ctx, c.apiURL("/ISteamUser/GetFriendList/v0001/",
		url.Values{"steamid": {steamID.String()}, "relationship": {"friend"}}))
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchFriends)
	}
	defer closeBody(resp.Body)

	type envelope struct {
		FriendsList struct {
			Friends []Friend `json:"friends"`
		} `json:"friendslist"`
	}

	parsed, errParse := encoding.UnmarshalJSON[envelope](resp.Body)
	if errParse != nil {
		return nil, errors.Join(errParse, ErrFetchFriends)
	}

	return parsed.FriendsList.Friends, nil
}

// Avatar fetches the image referenced by a summary's avatar URL, serving
// repeat lookups from the filesystem cache.
func (c *Client) Avatar(ctx context.Context, steamID steamid.SteamID, avatarURL string) ([]byte, error) {
	if avatarURL == "" {
		return nil, ErrFetchAvatar
	}

	key := cache.Key(steamID.String(), "avatar")
	if cached, errCached := c.avatars.Get(key); errCached == nil {
		return cached, nil
	}

	resp, errResp := c.get(ctx, avatarURL)
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchAvatar)
	}
	defer closeBody(resp.Body)

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, errors.Join(errRead, ErrFetchAvatar)
	}

	if errSet := c.avatars.Set(key, body); errSet != nil {
		slog.Error("Failed to cache avatar", slog.String("error", errSet.Error()))
	}

	return body, nil
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Error("Failed to close response body", slog.String("error", err.Error()))
	}
}
