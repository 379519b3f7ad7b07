package geoip_test

import (
	"path/filepath"
	"testing"

	"github.com/leighmacdonald/tf-sentry/internal/geoip"
	"github.com/stretchr/testify/require"
)

func TestOpenMissing(t *testing.T) {
	_, err := geoip.Open(filepath.Join(t.TempDir(), "nope.mmdb"))
	require.ErrorIs(t, err, geoip.ErrOpenDB)
}

func TestNilReader(t *testing.T) {
	var reader *geoip.Reader

	_, err := reader.Lookup("1.2.3.4")
	require.ErrorIs(t, err, geoip.ErrLookup)
	require.NoError(t, reader.Close())
}
