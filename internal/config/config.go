package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

var (
	errConfigWrite = errors.New("failed to write config file")
	errConfigRead  = errors.New("failed to read config file")
	errLoggerInit  = errors.New("failed to initialize logger")
)

const (
	ConfigDirName      = "tf-sentry"
	DefaultConfigName  = "tf-sentry"
	DefaultDBName      = "tf-sentry.db"
	DefaultPatternName = "patterns.txt"
	CacheDirName       = "cache"
	EnvPrefix          = "tfsentry"
	DefaultHTTPTimeout = 15 * time.Second
)

type Config struct {
	// SteamID identifies the local user so their own party can be marked.
	SteamID       steamid.SteamID `mapstructure:"-"`
	SteamIDString string          `mapstructure:"steam_id"`
	// SteamAPIKey is a Steam Web API key, see https://steamcommunity.com/dev/apikey.
	SteamAPIKey string `mapstructure:"steam_api_key"`
	// SteamHistoryKey enables the optional steamhistory.net sourcebans lookups.
	SteamHistoryKey string `mapstructure:"steamhistory_key"`
	APIBaseURL      string `mapstructure:"api_base_url,omitempty"`
	SourceBansURL   string `mapstructure:"sourcebans_url,omitempty"`
	UpdateFreqMs    int    `mapstructure:"update_freq_ms,omitempty"`
	// MaxInFlight caps concurrent profile fetches. 0 means no cap.
	MaxInFlight int    `mapstructure:"max_in_flight"`
	PatternFile string `mapstructure:"pattern_file"`
	// MMDBPath points at an optional maxmind country database used to
	// annotate players with a country code.
	MMDBPath string `mapstructure:"mmdb_path"`
	// IDLists are remote steam id lists imported as external records.
	IDLists []UserList `mapstructure:"id_lists"`
	LogPath string     `mapstructure:"log_path"`
}

// UserList is a remote line or text based list of known steam ids.
type UserList struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
	// Kind is the classification applied to every id on the list.
	Kind string `mapstructure:"kind"`
}

// Path generates a path pointing to the filename under this apps defined $XDG_CONFIG_HOME.
func Path(name string) string {
	fullPath, errFullPath := xdg.ConfigFile(path.Join(ConfigDirName, name))
	if errFullPath != nil {
		panic(errFullPath)
	}

	return fullPath
}

func PathCache(name string) string {
	cacheDir, found := os.LookupEnv("CACHE_DIR")
	if found && cacheDir != "" {
		return cacheDir
	}

	return path.Join(xdg.CacheHome, ConfigDirName, name)
}

// LoggerInit sets up the slog global handler. When logPath is empty the log
// goes to stderr, otherwise to the named file under the config dir.
func LoggerInit(logPath string, level slog.Level) (io.Closer, error) {
	var (
		writer io.Writer = os.Stderr
		closer io.Closer
	)

	if logPath != "" {
		logFile, errLogFile := os.Create(path.Join(xdg.ConfigHome, ConfigDirName, logPath))
		if errLogFile != nil {
			return nil, errors.Join(errLogFile, errLoggerInit)
		}
		writer = logFile
		closer = logFile
	}

	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
	}))

	slog.SetDefault(logger)

	return closer, nil
}
