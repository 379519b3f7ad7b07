// Package tracker wires the record store, party detector and enrichment
// dispatcher together around the roster supplied by an external feed. One
// Tick is one refresh cycle.
package tracker

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/geoip"
	"github.com/leighmacdonald/tf-sentry/internal/party"
	"github.com/leighmacdonald/tf-sentry/internal/profile"
	"github.com/leighmacdonald/tf-sentry/internal/records"
	"github.com/leighmacdonald/tf-sentry/internal/sid"
)

// Players absent from the feed this long are dropped from tracking.
const playerTimeout = time.Second * 30

// Source is the external roster feed. Poll returns the current player set,
// or nil when nothing new is available.
type Source interface {
	Poll(ctx context.Context) ([]Update, error)
}

// Enricher is the asynchronous profile fetcher, satisfied by
// profile.Dispatcher.
type Enricher interface {
	Submit(ctx context.Context, steamID steamid.SteamID) error
	Poll() (profile.Response, bool)
}

type Opts struct {
	// Self marks the local user so their own party gets the star marker.
	Self       steamid.SteamID
	UpdateFreq time.Duration
}

// Reload carries the settings that may change while running, typically
// after the config file is edited. Zero values leave the current setting
// untouched.
type Reload struct {
	Self        steamid.SteamID
	UpdateFreq  time.Duration
	PatternFile string
}

// Tracker is single threaded. All methods must be called from the same
// goroutine that drives Run or Tick.
type Tracker struct {
	records  *records.Store
	parties  *party.Detector
	enricher Enricher
	geo      *geoip.Reader
	opts     Opts
	players  map[string]*Player
	// requested guards against resubmitting an id already dispatched,
	// whether or not it succeeded. Refresh clears it per id.
	requested map[string]bool
	reloads   chan Reload
}

func New(recordStore *records.Store, detector *party.Detector, enricher Enricher, geo *geoip.Reader, opts Opts) *Tracker {
	if opts.UpdateFreq <= 0 {
		opts.UpdateFreq = time.Second * 2
	}

	return &Tracker{
		records:   recordStore,
		parties:   detector,
		enricher:  enricher,
		geo:       geo,
		opts:      opts,
		players:   map[string]*Player{},
		requested: map[string]bool{},
		reloads:   make(chan Reload, 1),
	}
}

// Reload queues a settings change for the Run loop to apply between
// ticks. A newer reload replaces a pending one. Safe to call from other
// goroutines, unlike the rest of the Tracker.
func (t *Tracker) Reload(reload Reload) {
	select {
	case <-t.reloads:
	default:
	}
	t.reloads <- reload
}

// ApplyReload applies a settings change immediately. Like Tick it must
// run on the driving goroutine.
func (t *Tracker) ApplyReload(reload Reload) {
	if reload.Self.Valid() {
		t.opts.Self = reload.Self
	}

	if reload.UpdateFreq > 0 {
		t.opts.UpdateFreq = reload.UpdateFreq
	}

	if reload.PatternFile != "" {
		added, skipped, errReload := t.records.ReloadPatternsFile(reload.PatternFile)
		if errReload != nil {
			slog.Error("Failed to reload name patterns", slog.String("path", reload.PatternFile),
				slog.String("error", errReload.Error()))
		} else {
			slog.Info("Reloaded name patterns", slog.String("path", reload.PatternFile),
				slog.Int("added", added), slog.Int("skipped", skipped))
		}
	}
}

// Run polls the feed on the configured interval until the context ends.
func (t *Tracker) Run(ctx context.Context, source Source) error {
	ticker := time.NewTicker(t.opts.UpdateFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			updates, errPoll := source.Poll(ctx)
			if errPoll != nil {
				slog.Error("Failed to poll roster feed", slog.String("error", errPoll.Error()))

				continue
			}
			t.Tick(ctx, updates)
		case reload := <-t.reloads:
			t.ApplyReload(reload)
			ticker.Reset(t.opts.UpdateFreq)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick runs one refresh cycle: merge the roster, apply any enrichment
// responses that have arrived, drop leavers and rebuild the parties.
func (t *Tracker) Tick(ctx context.Context, updates []Update) {
	for _, update := range updates {
		t.applyUpdate(ctx, update)
	}

	t.applyResponses()
	t.removeExpired()
	t.rebuildParties()
}

func (t *Tracker) applyUpdate(ctx context.Context, update Update) {
	if !update.SteamID.Valid() {
		return
	}

	id32 := sid.Format32(update.SteamID)
	now := time.Now()

	player, known := t.players[id32]
	if !known {
		player = &Player{
			SteamID:   update.SteamID,
			ID32:      id32,
			Kind:      records.KindPlayer,
			FirstSeen: now,
		}
		t.players[id32] = player
	}

	player.Name = update.Name
	player.Team = update.Team
	player.UserID = update.UserID
	player.LastSeen = now

	if update.Address != "" && update.Address != player.Address {
		player.Address = update.Address
		if record, errLookup := t.geo.Lookup(update.Address); errLookup == nil {
			player.Country = record.Country.ISOCode
		}
	}

	t.classify(ctx, player)

	if !t.requested[id32] {
		if errSubmit := t.enricher.Submit(ctx, update.SteamID); errSubmit != nil {
			slog.Error("Failed to submit enrichment request", slog.String("steam_id", id32),
				slog.String("error", errSubmit.Error()))

			return
		}
		t.requested[id32] = true
	}
}

// classify restores the player's stored classification, or failing that
// runs the name classifier. A name match creates a curated bot record
// noting the pattern responsible, so the flag survives restarts.
func (t *Tracker) classify(ctx context.Context, player *Player) {
	if record, found := t.records.Lookup(player.ID32); found {
		player.Kind = record.Kind
		player.Notes = record.Notes

		return
	}

	pattern, matched := t.records.ClassifyName(player.Name)
	if !matched {
		return
	}

	record := records.Record{
		SteamID: player.ID32,
		Kind:    records.KindBot,
		Notes:   "Matched name pattern " + pattern.String(),
	}
	if errUpsert := t.records.Upsert(ctx, record); errUpsert != nil {
		slog.Error("Failed to save name match record", slog.String("steam_id", player.ID32),
			slog.String("error", errUpsert.Error()))
	}

	player.Kind = record.Kind
	player.Notes = record.Notes
	player.MatchedPattern = pattern.String()
}

func (t *Tracker) applyResponses() {
	for {
		response, ok := t.enricher.Poll()
		if !ok {
			return
		}

		id32 := sid.Format32(response.SteamID)
		if response.Err != nil {
			slog.Error("Enrichment request failed", slog.String("steam_id", id32),
				slog.String("error", response.Err.Error()))

			continue
		}

		player, known := t.players[id32]
		if !known {
			// Player left before the response arrived.
			continue
		}

		player.Profile = response.Profile
		if player.Country == "" {
			player.Country = response.Profile.Summary.LocCountryCode
		}
	}
}

func (t *Tracker) removeExpired() {
	for id32, player := range t.players {
		if time.Since(player.LastSeen) <= playerTimeout {
			continue
		}
		delete(t.players, id32)
		delete(t.requested, id32)
	}
}

func (t *Tracker) rebuildParties() {
	members := make([]party.Member, 0, len(t.players))
	for _, id32 := range slices.Sorted(maps.Keys(t.players)) {
		member := party.Member{SteamID: id32}
		if prof := t.players[id32].Profile; prof != nil {
			for _, friend := range prof.Friends {
				member.Friends = append(member.Friends, friend.SteamID)
			}
		}
		members = append(members, member)
	}

	t.parties.Rebuild(members)
}

// Players returns the current roster sorted by team then name.
func (t *Tracker) Players() []Player {
	out := make([]Player, 0, len(t.players))
	for _, player := range t.players {
		out = append(out, *player)
	}

	slices.SortFunc(out, func(a, b Player) int {
		if a.Team != b.Team {
			return int(a.Team) - int(b.Team)
		}

		return strings.Compare(a.Name, b.Name)
	})

	return out
}

// Indicator returns the party marker for a player, relative to the
// configured self id.
func (t *Tracker) Indicator(steamID steamid.SteamID) (party.Indicator, bool) {
	return t.parties.Indicator(steamID, t.opts.Self)
}

// Parties exposes the current party partition.
func (t *Tracker) Parties() []party.Party {
	return t.parties.Parties()
}

// Mark records a curated classification for a player and applies it to the
// live roster entry when present.
func (t *Tracker) Mark(ctx context.Context, steamID steamid.SteamID, kind records.Kind, notes string) error {
	id32 := sid.Format32(steamID)
	record := records.Record{SteamID: id32, Kind: kind, Notes: notes}

	if errUpsert := t.records.Upsert(ctx, record); errUpsert != nil {
		return errUpsert
	}

	if player, known := t.players[id32]; known {
		if kind == records.KindPlayer && notes == "" {
			player.Kind = records.KindPlayer
			player.Notes = ""
			player.MatchedPattern = ""
		} else {
			player.Kind = kind
			player.Notes = notes
		}
	}

	return nil
}

// Refresh forces the next tick to resubmit an enrichment request for the
// id, the dispatcher itself never retries.
func (t *Tracker) Refresh(steamID steamid.SteamID) {
	delete(t.requested, sid.Format32(steamID))
}
