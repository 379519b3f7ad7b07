package store_test

import (
	"testing"
	"time"

	"github.com/leighmacdonald/tf-sentry/internal/store"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestQueries(t *testing.T) {
	conn, errOpen := store.Open(t.Context(), "", true)
	require.NoError(t, errOpen)
	defer conn.Close()

	queries := store.New(conn)
	now := time.Now()
	row := store.PlayerRow{SteamID: "U:1:111", Kind: "Bot", Notes: "test", CreatedOn: now, UpdatedOn: now}

	require.NoError(t, queries.PlayerSave(t.Context(), row))

	fetched, errFetch := queries.Player(t.Context(), "U:1:111")
	require.NoError(t, errFetch)
	require.Equal(t, "Bot", fetched.Kind)
	require.Equal(t, "test", fetched.Notes)

	row.Kind = "Cheater"
	require.NoError(t, queries.PlayerSave(t.Context(), row))

	all, errAll := queries.Players(t.Context())
	require.NoError(t, errAll)
	require.Len(t, all, 1)
	require.Equal(t, "Cheater", all[0].Kind)

	require.NoError(t, queries.PlayerDelete(t.Context(), "U:1:111"))

	_, errMissing := queries.Player(t.Context(), "U:1:111")
	require.Error(t, errMissing)
}
