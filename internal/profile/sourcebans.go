package profile

import (
	"context"
	"errors"
	"net/url"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/encoding"
)

const DefaultSourceBansURL = "https://steamhistory.net/api/sourcebans"

var ErrFetchSourceBans = errors.New("failed to fetch sourcebans")

// BanState is the current state of one sourcebans entry as reported by
// steamhistory.net.
type BanState string

const (
	BanPermanent BanState = "Permanent"
	BanTemp      BanState = "Temp-Ban"
	BanExpired   BanState = "Expired"
	BanUnbanned  BanState = "Unbanned"
)

// SourceBan is a single community server ban record.
type SourceBan struct {
	SteamID        string   `json:"SteamID"`
	Name           string   `json:"Name"`
	CurrentState   BanState `json:"CurrentState"`
	BanReason      string   `json:"BanReason"`
	UnbanReason    string   `json:"UnbanReason"`
	BanTimestamp   int64    `json:"BanTimestamp"`
	UnbanTimestamp int64    `json:"UnbanTimestamp"`
	Server         string   `json:"Server"`
}

// Flagged reports whether a set of sourcebans indicates a problem account:
// any standing permanent or temp ban counts, except ones issued by
// Scrap.tf which bans for trade activity rather than gameplay.
func Flagged(bans []SourceBan) bool {
	for _, ban := range bans {
		if (ban.CurrentState == BanPermanent || ban.CurrentState == BanTemp) && ban.Server != "Scrap.tf" {
			return true
		}
	}

	return false
}

// SourceBans queries steamhistory.net for community server bans. Requires
// a separate API key from the Steam Web API one.
func (c *Client) SourceBans(ctx context.Context, steamID steamid.SteamID) ([]SourceBan, error) {
	opts := c.options()
	query := url.Values{
		"key":       {opts.SteamHistoryKey},
		"steamids":  {steamID.String()},
		"shouldkey": {"1"},
	}

	resp, errResp := c.get(ctx, opts.SourceBansURL+"?"+query.Encode())
	if errResp != nil {
		return nil, errors.Join(errResp, ErrFetchSourceBans)
	}
	defer closeBody(resp.Body)

	type envelope struct {
		Response map[string][]SourceBan `json:"response"`
	}

	parsed, errParse := encoding.UnmarshalJSON[envelope](resp.Body)
	if errParse != nil {
		return nil, errors.Join(errParse, ErrFetchSourceBans)
	}

	return parsed.Response[steamID.String()], nil
}
