package tracker

import (
	"time"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/profile"
	"github.com/leighmacdonald/tf-sentry/internal/records"
)

type Team int

const (
	Unassigned Team = iota
	Spectator
	Red
	Blu
)

// Update is one roster entry as supplied by the external roster feed.
type Update struct {
	SteamID steamid.SteamID
	Name    string
	Team    Team
	Address string
	UserID  int
}

// Player is the tracked state of one person in the current match.
type Player struct {
	SteamID steamid.SteamID
	// ID32 is the triplet form used as the map key and record store key.
	ID32    string
	Name    string
	Team    Team
	Address string
	Country string
	UserID  int
	// Kind and Notes mirror the record store entry, KindPlayer with empty
	// notes when no record exists.
	Kind  records.Kind
	Notes string
	// MatchedPattern is set when the name classifier flagged this player.
	MatchedPattern string
	Profile        *profile.Profile
	FirstSeen      time.Time
	LastSeen       time.Time
}
