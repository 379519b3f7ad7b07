package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedKeepsLatestSnapshot(t *testing.T) {
	feed := newStdinFeed(strings.NewReader(
		`[{"steam_id": "[U:1:1]", "name": "alpha", "team": 2}]` + "\n" +
			`not json` + "\n" +
			`[{"steam_id": "[U:1:2]", "name": "bravo", "team": 3}, {"steam_id": "bogus", "name": "junk"}]` + "\n"))

	require.NoError(t, feed.Start(t.Context()))

	updates, errPoll := feed.Poll(t.Context())
	require.NoError(t, errPoll)
	require.Len(t, updates, 1)
	require.Equal(t, "bravo", updates[0].Name)

	again, errAgain := feed.Poll(t.Context())
	require.NoError(t, errAgain)
	require.Nil(t, again)
}

func TestFeedStopsOnCancel(t *testing.T) {
	// An io.Pipe with no writer behaves like an idle terminal, Read blocks
	// until something arrives.
	reader, writer := io.Pipe()
	feed := newStdinFeed(reader)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- feed.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second * 5):
		t.Fatal("feed did not stop after cancellation")
	}

	_ = writer.Close()
	_ = reader.Close()
}
