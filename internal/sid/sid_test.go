package sid_test

import (
	"testing"

	"github.com/leighmacdonald/tf-sentry/internal/sid"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, id32 := range []string{"U:1:2", "U:1:111", "U:1:1177342879"} {
		steamID, errTo64 := sid.To64(id32)
		require.NoError(t, errTo64)

		back, errTo32 := sid.To32(steamID.String())
		require.NoError(t, errTo32)
		require.Equal(t, id32, back)
	}
}

func TestTo64(t *testing.T) {
	steamID, err := sid.To64("[U:1:2]")
	require.NoError(t, err)
	require.Equal(t, "76561197960265730", steamID.String())

	bare, errBare := sid.To64("U:1:2")
	require.NoError(t, errBare)
	require.True(t, steamID.Equal(bare))

	for _, malformed := range []string{"", "U:1:", "STEAM_0:1:1", "76561197960265730", "U:x:2"} {
		_, errConv := sid.To64(malformed)
		require.ErrorIs(t, errConv, sid.ErrFormat)
	}
}

func TestTo32(t *testing.T) {
	id32, err := sid.To32("76561197960265730")
	require.NoError(t, err)
	require.Equal(t, "U:1:2", id32)

	for _, malformed := range []string{"", "notanumber", "-1", "1234"} {
		_, errConv := sid.To32(malformed)
		require.ErrorIs(t, errConv, sid.ErrFormat)
	}
}

func TestScan(t *testing.T) {
	found := sid.Scan("[U:1:111] U:1:222 76561197960265730 garbage 7656abc")
	require.Len(t, found, 3)
	require.Equal(t, "U:1:111", sid.Format32(found[0]))
	require.Equal(t, "U:1:222", sid.Format32(found[1]))
	require.Equal(t, "U:1:2", sid.Format32(found[2]))

	require.Empty(t, sid.Scan("no ids here"))
}
