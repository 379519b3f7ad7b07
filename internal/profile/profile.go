package profile

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Profile is the assembled enrichment result for one steam id. Friends is
// nil when the profile is private, SourceBans nil when no steamhistory key
// is configured or the lookup failed, Avatar nil when the image fetch
// failed.
type Profile struct {
	Summary    Summary
	Bans       Bans
	Friends    []Friend
	SourceBans []SourceBan
	Avatar     []byte
	FetchedOn  time.Time
}

// AccountAge renders the account creation time as a relative phrase, or ""
// for private profiles that hide it.
func (p Profile) AccountAge() string {
	if p.Summary.TimeCreated == 0 {
		return ""
	}

	return humanize.RelTime(time.Unix(p.Summary.TimeCreated, 0), time.Now(), "old", "")
}

// LastBan renders how long ago the most recent VAC or game ban was issued,
// or "" for clean accounts.
func (p Profile) LastBan() string {
	if p.Bans.NumberOfVACBans == 0 && p.Bans.NumberOfGameBans == 0 {
		return ""
	}

	banned := time.Now().AddDate(0, 0, -p.Bans.DaysSinceLastBan)

	return humanize.RelTime(banned, time.Now(), "ago", "")
}

// Suspect reports whether the fetched data alone already marks the account
// as untrustworthy.
func (p Profile) Suspect() bool {
	return p.Bans.VACBanned || p.Bans.NumberOfGameBans > 0 || Flagged(p.SourceBans)
}
