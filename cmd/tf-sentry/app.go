package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/tf-sentry/internal/cache"
	"github.com/leighmacdonald/tf-sentry/internal/config"
	"github.com/leighmacdonald/tf-sentry/internal/geoip"
	"github.com/leighmacdonald/tf-sentry/internal/lists"
	"github.com/leighmacdonald/tf-sentry/internal/party"
	"github.com/leighmacdonald/tf-sentry/internal/profile"
	"github.com/leighmacdonald/tf-sentry/internal/records"
	"github.com/leighmacdonald/tf-sentry/internal/store"
	"github.com/leighmacdonald/tf-sentry/internal/tracker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errApp = errors.New("application error")

// run is the main entry point of tf-sentry. It wires the record store,
// party detector, enrichment dispatcher and tracker together and drives
// them from roster snapshots read from stdin.
func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// If PROFILE is set, it will be used as the output file path for the profiler.
	if len(os.Getenv("PROFILE")) > 0 {
		profFile, err := os.Create(os.Getenv("PROFILE"))
		if err != nil {
			return errors.Join(err, errApp)
		}

		if errStart := pprof.StartCPUProfile(profFile); errStart != nil {
			return errors.Join(errStart, errApp)
		}
		defer pprof.StopCPUProfile()
	}

	// Make sure our config & data home exists.
	if err := os.MkdirAll(path.Join(xdg.ConfigHome, config.ConfigDirName), 0o750); err != nil {
		return errors.Join(err, errApp)
	}

	configUpdates := make(chan config.Config)
	loader := config.NewLoader(configUpdates)
	userConfig, errConfig := loader.Read()
	if errConfig != nil {
		return errors.Join(errConfig, errApp)
	}

	logCloser, errLogger := config.LoggerInit(userConfig.LogPath, slog.LevelDebug)
	if errLogger != nil {
		return errors.Join(errLogger, errApp)
	}
	if logCloser != nil {
		defer func(closer io.Closer) {
			if err := closer.Close(); err != nil {
				slog.Error("Failed to close log file", slog.String("error", err.Error()))
			}
		}(logCloser)
	}

	slog.Info("Starting tf-sentry", slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit), slog.String("date", BuildDate),
		slog.String("go", runtime.Version()))

	fsCache, errCache := cache.New()
	if errCache != nil {
		return errors.Join(errCache, errApp)
	}

	database, errDB := store.Open(ctx, config.Path(config.DefaultDBName), true)
	if errDB != nil {
		return errors.Join(errDB, errApp)
	}

	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Error closing database", slog.String("error", err.Error()))
		}
	}()

	recordStore, errRecords := records.New(ctx, store.New(database))
	if errRecords != nil {
		return errors.Join(errRecords, errApp)
	}

	if userConfig.PatternFile != "" {
		if added, skipped, errPatterns := recordStore.ImportPatternsFile(userConfig.PatternFile); errPatterns != nil {
			slog.Warn("No name pattern file loaded", slog.String("path", userConfig.PatternFile))
		} else {
			slog.Info("Loaded name patterns", slog.Int("added", added), slog.Int("skipped", skipped))
		}
	}

	httpClient := &http.Client{Timeout: config.DefaultHTTPTimeout}

	listFetcher := lists.New(httpClient, userConfig.IDLists, fsCache)
	imported := listFetcher.Update(ctx, recordStore)
	slog.Info("Imported external id lists", slog.Int("records", imported))

	client := profile.NewClient(httpClient, fsCache, profile.Opts{
		APIKey:          userConfig.SteamAPIKey,
		SteamHistoryKey: userConfig.SteamHistoryKey,
		BaseURL:         userConfig.APIBaseURL,
		SourceBansURL:   userConfig.SourceBansURL,
	})
	dispatcher := profile.NewDispatcher(client, userConfig.MaxInFlight)

	var geo *geoip.Reader
	if userConfig.MMDBPath != "" {
		reader, errGeo := geoip.Open(userConfig.MMDBPath)
		if errGeo != nil {
			slog.Error("Failed to open mmdb, country lookups disabled",
				slog.String("error", errGeo.Error()))
		} else {
			geo = reader
			defer geo.Close()
		}
	}

	track := tracker.New(recordStore, party.NewDetector(), dispatcher, geo, tracker.Opts{
		Self:       userConfig.SteamID,
		UpdateFreq: time.Duration(userConfig.UpdateFreqMs) * time.Millisecond,
	})

	feed := newStdinFeed(os.Stdin)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return dispatcher.Run(groupCtx) })
	group.Go(func() error { return feed.Start(groupCtx) })
	group.Go(func() error { return track.Run(groupCtx, feed) })
	group.Go(func() error {
		for {
			select {
			case updated := <-configUpdates:
				slog.Info("Applying reloaded config", slog.String("path", loader.Path()))
				client.ApplyOpts(profile.Opts{
					APIKey:          updated.SteamAPIKey,
					SteamHistoryKey: updated.SteamHistoryKey,
					BaseURL:         updated.APIBaseURL,
					SourceBansURL:   updated.SourceBansURL,
				})
				track.Reload(tracker.Reload{
					Self:        updated.SteamID,
					UpdateFreq:  time.Duration(updated.UpdateFreqMs) * time.Millisecond,
					PatternFile: updated.PatternFile,
				})
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
	})

	if errGroup := group.Wait(); errGroup != nil && !errors.Is(errGroup, context.Canceled) {
		return errors.Join(errGroup, errApp)
	}

	return nil
}
