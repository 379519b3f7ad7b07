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

func TestClientApplyOpts(t *testing.T) {
	var seenKeys []string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		seenKeys = append(seenKeys, req.URL.Query().Get("key"))
		_, _ = writer.Write([]byte(summaryPublic))
	}))
	defer server.Close()

	client := profile.NewClient(http.DefaultClient, cache.Null{}, profile.Opts{
		APIKey:  "first",
		BaseURL: server.URL,
	})

	steamID := steamid.New(testID64)
	_, errFirst := client.Summary(t.Context(), steamID)
	require.NoError(t, errFirst)

	// Later requests pick up a swapped key without rebuilding the client.
	client.ApplyOpts(profile.Opts{APIKey: "second", BaseURL: server.URL})
	_, errSecond := client.Summary(t.Context(), steamID)
	require.NoError(t, errSecond)

	require.Equal(t, []string{"first", "second"}, seenKeys)
}
