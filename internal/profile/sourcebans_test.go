package profile_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/cache"
	"github.com/leighmacdonald/tf-sentry/internal/profile"
	"github.com/stretchr/testify/require"
)

func TestSourceBans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		require.Equal(t, "shkey", req.URL.Query().Get("key"))
		require.Equal(t, "1", req.URL.Query().Get("shouldkey"))

		_, _ = writer.Write([]byte(`{"response": {"76561197960265730": [
			{"SteamID": "76561197960265730", "CurrentState": "Permanent", "Server": "skial.com", "BanReason": "aimbot"},
			{"SteamID": "76561197960265730", "CurrentState": "Expired", "Server": "skial.com"}
		]}}`))
	}))
	defer server.Close()

	client := profile.NewClient(http.DefaultClient, cache.Null{}, profile.Opts{
		SteamHistoryKey: "shkey",
		SourceBansURL:   server.URL,
	})

	bans, errBans := client.SourceBans(t.Context(), steamid.New("76561197960265730"))
	require.NoError(t, errBans)
	require.Len(t, bans, 2)
	require.True(t, profile.Flagged(bans))
}

func TestFlagged(t *testing.T) {
	require.False(t, profile.Flagged(nil))
	require.False(t, profile.Flagged([]profile.SourceBan{
		{CurrentState: profile.BanExpired, Server: "skial.com"},
		{CurrentState: profile.BanUnbanned, Server: "skial.com"},
		// Scrap.tf bans are trade bans, not gameplay ones.
		{CurrentState: profile.BanPermanent, Server: "Scrap.tf"},
	}))
	require.True(t, profile.Flagged([]profile.SourceBan{
		{CurrentState: profile.BanTemp, Server: "uncletopia.com"},
	}))
}
