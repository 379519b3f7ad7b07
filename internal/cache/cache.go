// Package cache implements a very trivial filesystem cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/leighmacdonald/tf-sentry/internal/config"
)

// How long until a entry is considered stale.
const maxCacheAge = time.Hour * 24 * 7

var (
	ErrCacheMiss = errors.New("cache miss error")
	errCacheSet  = errors.New("cache set error")
	errCacheDir  = errors.New("cache dir error")
)

type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, content []byte) error
}

// Key builds a filesystem safe cache key from an arbitrary identifier such
// as a URL or steam id.
func Key(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

// Filesystem implements the default filesystem based Cache interface.
type Filesystem struct {
	cacheDir string
}

func New() (Filesystem, error) {
	cachePath := config.PathCache(config.CacheDirName)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		slog.Error("Failed to make cache root", slog.String("error", err.Error()),
			slog.String("path", cachePath))

		return Filesystem{}, errors.Join(err, errCacheDir)
	}

	return Filesystem{cacheDir: cachePath}, nil
}

func (c Filesystem) Set(key string, content []byte) error {
	file, errFile := os.Create(path.Join(c.cacheDir, key))
	if errFile != nil {
		return errors.Join(errFile, errCacheSet)
	}

	defer func(closer io.Closer) {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close cache file", slog.String("error", err.Error()))
		}
	}(file)

	if _, err := file.Write(content); err != nil {
		return errors.Join(err, errCacheSet)
	}

	return nil
}

func (c Filesystem) Get(key string) ([]byte, error) {
	filePath := path.Join(c.cacheDir, key)

	file, errFile := os.Open(filePath)
	if errFile != nil {
		return nil, errors.Join(errFile, ErrCacheMiss)
	}

	defer func(closer io.Closer) {
		if err := closer.Close(); err != nil {
			slog.Error("Failed to close cache file", slog.String("error", err.Error()))
		}
	}(file)

	stat, errStat := file.Stat()
	if errStat != nil {
		return nil, errors.Join(errStat, ErrCacheMiss)
	}

	if time.Since(stat.ModTime()) > maxCacheAge {
		if err := os.Remove(filePath); err != nil {
			return nil, errors.Join(err, ErrCacheMiss)
		}

		return nil, ErrCacheMiss
	}

	body, errRead := io.ReadAll(file)
	if errRead != nil {
		return nil, errors.Join(errRead, ErrCacheMiss)
	}

	return body, nil
}

// Null is a no-op cache used when the filesystem cache is unavailable.
type Null struct{}

func (Null) Get(string) ([]byte, error) { return nil, ErrCacheMiss }

func (Null) Set(string, []byte) error { return nil }
