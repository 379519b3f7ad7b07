package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/encoding"
	"github.com/leighmacdonald/tf-sentry/internal/tracker"
)

// rosterLine is one roster snapshot from the feed, a JSON array per line.
type rosterLine []struct {
	SteamID string `json:"steam_id"`
	Name    string `json:"name"`
	Team    int    `json:"team"`
	Address string `json:"address"`
	UserID  int    `json:"user_id"`
}

// stdinFeed adapts line delimited JSON roster snapshots on a reader into a
// tracker.Source. Whatever watches the game (console log tailer, RCON
// poller, demo parser) writes one line per refresh.
type stdinFeed struct {
	reader io.Reader
	latest chan []tracker.Update
}

func newStdinFeed(reader io.Reader) *stdinFeed {
	return &stdinFeed{reader: reader, latest: make(chan []tracker.Update, 1)}
}

// Start consumes the reader until EOF or cancellation, keeping only the
// most recent snapshot for Poll.
func (f *stdinFeed) Start(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	// Reads happen on their own goroutine so cancellation never waits on a
	// blocked stdin. That goroutine can linger in Read until the process
	// exits, there is no portable way to interrupt it.
	go func() {
		scanner := bufio.NewScanner(f.reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		readErr <- scanner.Err()
	}()

	for {
		select {
		case line := <-lines:
			f.handleLine(line)
		case err := <-readErr:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *stdinFeed) handleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	parsed, errParse := encoding.UnmarshalJSON[rosterLine](strings.NewReader(line))
	if errParse != nil {
		slog.Error("Skipping malformed roster line", slog.String("error", errParse.Error()))

		return
	}

	updates := make([]tracker.Update, 0, len(parsed))
	for _, entry := range parsed {
		steamID := steamid.New(entry.SteamID)
		if !steamID.Valid() {
			slog.Error("Skipping roster entry with bad id", slog.String("steam_id", entry.SteamID))

			continue
		}
		updates = append(updates, tracker.Update{
			SteamID: steamID,
			Name:    entry.Name,
			Team:    tracker.Team(entry.Team),
			Address: entry.Address,
			UserID:  entry.UserID,
		})
	}

	// Replace any unconsumed snapshot with the newer one.
	select {
	case <-f.latest:
	default:
	}
	f.latest <- updates
}

// Poll returns the newest unconsumed snapshot, or nil when none arrived
// since the last call.
func (f *stdinFeed) Poll(_ context.Context) ([]tracker.Update, error) {
	select {
	case updates := <-f.latest:
		return updates, nil
	default:
		return nil, nil
	}
}
