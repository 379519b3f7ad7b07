package tracker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/party"
	"github.com/leighmacdonald/tf-sentry/internal/profile"
	"github.com/leighmacdonald/tf-sentry/internal/records"
	"github.com/leighmacdonald/tf-sentry/internal/sid"
	"github.com/leighmacdonald/tf-sentry/internal/store"
	"github.com/leighmacdonald/tf-sentry/internal/tracker"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// fakeEnricher hands back canned profiles, one response per submitted id.
type fakeEnricher struct {
	profiles  map[string]*profile.Profile
	responses []profile.Response
	submitted []string
}

func (f *fakeEnricher) Submit(_ context.Context, steamID steamid.SteamID) error {
	f.submitted = append(f.submitted, steamID.String())
	response := profile.Response{SteamID: steamID}
	if prof, found := f.profiles[steamID.String()]; found {
		response.Profile = prof
	} else {
		response.Err = profile.ErrFetchSummary
	}
	f.responses = append(f.responses, response)

	return nil
}

func (f *fakeEnricher) Poll() (profile.Response, bool) {
	if len(f.responses) == 0 {
		return profile.Response{}, false
	}
	response := f.responses[0]
	f.responses = f.responses[1:]

	return response, true
}

func mustID(t *testing.T, id32 string) steamid.SteamID {
	t.Helper()

	steamID, err := sid.To64(id32)
	require.NoError(t, err)

	return steamID
}

func newRecords(t *testing.T) *records.Store {
	t.Helper()

	conn, errOpen := store.Open(t.Context(), "", true)
	require.NoError(t, errOpen)
	t.Cleanup(func() { conn.Close() })

	recordStore, errNew := records.New(t.Context(), store.New(conn))
	require.NoError(t, errNew)

	return recordStore
}

func publicProfile(friends ...steamid.SteamID) *profile.Profile {
	prof := &profile.Profile{
		Summary:   profile.Summary{VisibilityState: profile.VisibilityPublic},
		FetchedOn: time.Now(),
	}
	for _, friend := range friends {
		prof.Friends = append(prof.Friends, profile.Friend{SteamID: friend.String()})
	}

	return prof
}

func TestTickClassifiesByRecord(t *testing.T) {
	recordStore := newRecords(t)
	require.NoError(t, recordStore.Upsert(t.Context(),
		records.Record{SteamID: "U:1:1", Kind: records.KindCheater, Notes: "spinbot"}))

	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{})

	track.Tick(t.Context(), []tracker.Update{
		{SteamID: mustID(t, "U:1:1"), Name: "someone", Team: tracker.Red},
	})

	players := track.Players()
	require.Len(t, players, 1)
	require.Equal(t, records.KindCheater, players[0].Kind)
	require.Equal(t, "spinbot", players[0].Notes)
}

func TestTickClassifiesByName(t *testing.T) {
	recordStore := newRecords(t)
	require.NoError(t, recordStore.AddPattern(`(?i)^braaap`))

	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{})

	track.Tick(t.Context(), []tracker.Update{
		{SteamID: mustID(t, "U:1:2"), Name: "BRAAAP 9000", Team: tracker.Blu},
	})

	players := track.Players()
	require.Len(t, players, 1)
	require.Equal(t, records.KindBot, players[0].Kind)
	require.NotEmpty(t, players[0].MatchedPattern)

	// The match is persisted as a curated record.
	record, found := recordStore.Lookup("U:1:2")
	require.True(t, found)
	require.Equal(t, records.KindBot, record.Kind)
}

func TestApplyReload(t *testing.T) {
	recordStore := newRecords(t)
	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{})

	// No patterns yet, the name passes.
	track.Tick(t.Context(), []tracker.Update{
		{SteamID: mustID(t, "U:1:2"), Name: "SteamBot 3000", Team: tracker.Red},
	})
	players := track.Players()
	require.Len(t, players, 1)
	require.Equal(t, records.KindPlayer, players[0].Kind)

	patternFile := filepath.Join(t.TempDir(), "patterns.txt")
	require.NoError(t, os.WriteFile(patternFile, []byte("(?i)^steambot\n"), 0o600))

	track.ApplyReload(tracker.Reload{
		Self:        mustID(t, "U:1:1"),
		UpdateFreq:  time.Minute,
		PatternFile: patternFile,
	})

	// The reloaded pattern takes effect on the next cycle.
	track.Tick(t.Context(), []tracker.Update{
		{SteamID: mustID(t, "U:1:2"), Name: "SteamBot 3000", Team: tracker.Red},
	})
	players = track.Players()
	require.Len(t, players, 1)
	require.Equal(t, records.KindBot, players[0].Kind)
	require.NotEmpty(t, players[0].MatchedPattern)
}

func TestTickEnrichmentAndParties(t *testing.T) {
	recordStore := newRecords(t)

	selfID := mustID(t, "U:1:1")
	mateID := mustID(t, "U:1:2")
	strangerID := mustID(t, "U:1:3")

	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{
		selfID.String():     publicProfile(mateID),
		mateID.String():     publicProfile(),
		strangerID.String(): publicProfile(),
	}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{Self: selfID})

	updates := []tracker.Update{
		{SteamID: selfID, Name: "me", Team: tracker.Red},
		{SteamID: mateID, Name: "mate", Team: tracker.Red},
		{SteamID: strangerID, Name: "stranger", Team: tracker.Blu},
	}

	// First tick submits requests, second tick consumes the responses and
	// rebuilds the parties from the attached friend lists.
	track.Tick(t.Context(), updates)
	track.Tick(t.Context(), updates)

	require.Len(t, track.Parties(), 1)

	indicator, found := track.Indicator(mateID)
	require.True(t, found)
	require.Equal(t, party.SymbolSelf, indicator.Symbol)

	_, foundStranger := track.Indicator(strangerID)
	require.False(t, foundStranger)

	// Each id was submitted exactly once across both ticks.
	require.Len(t, enricher.submitted, 3)
}

func TestTickEnrichmentFailure(t *testing.T) {
	recordStore := newRecords(t)

	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{})

	failingID := mustID(t, "U:1:9")
	updates := []tracker.Update{{SteamID: failingID, Name: "ghost", Team: tracker.Spectator}}

	track.Tick(t.Context(), updates)
	track.Tick(t.Context(), updates)

	// A failed fetch degrades to an un-enriched player, nothing more.
	players := track.Players()
	require.Len(t, players, 1)
	require.Nil(t, players[0].Profile)
	require.Len(t, enricher.submitted, 1)

	// Refresh re-opens the id for submission.
	track.Refresh(failingID)
	track.Tick(t.Context(), updates)
	require.Len(t, enricher.submitted, 2)
}

func TestMark(t *testing.T) {
	recordStore := newRecords(t)

	enricher := &fakeEnricher{profiles: map[string]*profile.Profile{}}
	track := tracker.New(recordStore, party.NewDetector(), enricher, nil, tracker.Opts{})

	steamID := mustID(t, "U:1:4")
	track.Tick(t.Context(), []tracker.Update{{SteamID: steamID, Name: "sus", Team: tracker.Red}})

	require.NoError(t, track.Mark(t.Context(), steamID, records.KindSuspicious, "odd flicks"))

	players := track.Players()
	require.Len(t, players, 1)
	require.Equal(t, records.KindSuspicious, players[0].Kind)

	// Clearing back to the default removes the record entirely.
	require.NoError(t, track.Mark(t.Context(), steamID, records.KindPlayer, ""))
	_, found := recordStore.Lookup("U:1:4")
	require.False(t, found)
}
