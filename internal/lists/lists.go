// Package lists downloads remote steam id lists and feeds them into the
// record store's external set.
package lists

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/leighmacdonald/tf-sentry/internal/cache"
	"github.com/leighmacdonald/tf-sentry/internal/config"
	"github.com/leighmacdonald/tf-sentry/internal/records"
)

var errListDownload = errors.New("failed to download id list")

// HTTPDoer defines a common interface for HTTP clients.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

func New(httpClient HTTPDoer, userLists []config.UserList, listCache cache.Cache) *Fetcher {
	return &Fetcher{
		configured: userLists,
		httpClient: httpClient,
		cache:      listCache,
	}
}

// Fetcher downloads the configured lists concurrently and imports the
// results serially into the target store.
type Fetcher struct {
	configured []config.UserList
	httpClient HTTPDoer
	cache      cache.Cache
}

type download struct {
	list config.UserList
	body string
}

// Update fetches all configured lists and imports every id found into the
// external record set. Download failures fall back to a cached copy when
// one exists, otherwise the list is skipped. Returns total new records.
func (f *Fetcher) Update(ctx context.Context, target *records.Store) int {
	var (
		waitGroup = sync.WaitGroup{}
		downloads = make(chan download)
	)

	for _, userList := range f.configured {
		waitGroup.Add(1)

		go func(list config.UserList) {
			defer waitGroup.Done()

			body, errFetch := f.fetch(ctx, list.URL)
			if errFetch != nil {
				slog.Error("Failed to download id list", slog.String("name", list.Name),
					slog.String("error", errFetch.Error()))

				cached, errCached := f.cache.Get(cache.Key(list.URL))
				if errCached != nil {
					return
				}
				slog.Info("Using cached id list", slog.String("name", list.Name))
				body = string(cached)
			} else if errSet := f.cache.Set(cache.Key(list.URL), []byte(body)); errSet != nil {
				slog.Error("Failed to cache id list", slog.String("error", errSet.Error()))
			}

			downloads <- download{list: list, body: body}
		}(userList)
	}

	go func() {
		waitGroup.Wait()
		close(downloads)
	}()

	imported := 0
	for fetched := range downloads {
		kind, errKind := records.ParseKind(fetched.list.Kind)
		if errKind != nil {
			kind = records.KindBot
		}

		count, errImport := target.ImportText(ctx, fetched.body, fetched.list.Name, kind, false)
		if errImport != nil {
			slog.Error("Failed to import id list", slog.String("name", fetched.list.Name),
				slog.String("error", errImport.Error()))

			continue
		}

		slog.Debug("Imported id list", slog.String("name", fetched.list.Name),
			slog.Int("count", count))
		imported += count
	}

	return imported
}

func (f *Fetcher) fetch(ctx context.Context, listURL string) (string, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if errReq != nil {
		return "", errors.Join(errReq, errListDownload)
	}

	resp, errResp := f.httpClient.Do(req)
	if errResp != nil {
		return "", errors.Join(errResp, errListDownload)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			slog.Error("Failed to close response body", slog.String("error", err.Error()))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", errListDownload
	}

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return "", errors.Join(errRead, errListDownload)
	}

	return string(body), nil
}
