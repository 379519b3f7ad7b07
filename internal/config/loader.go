package config

import (
	"errors"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/spf13/viper"
)

// Loader handles setting up viper, loading configuration from files, and broadcasting configuration changes.
type Loader struct {
	*viper.Viper
	changes chan<- Config
}

func NewLoader(changes chan<- Config) *Loader {
	loader := Loader{changes: changes, Viper: viper.New()}
	loader.SetDefault("steam_id", "")
	loader.SetDefault("steam_api_key", "")
	loader.SetDefault("steamhistory_key", "")
	loader.SetDefault("api_base_url", "https://api.steampowered.com")
	loader.SetDefault("sourcebans_url", "https://steamhistory.net/api/sourcebans")
	loader.SetDefault("update_freq_ms", 2000)
	loader.SetDefault("max_in_flight", 0)
	loader.SetDefault("pattern_file", Path(DefaultPatternName))
	loader.SetDefault("mmdb_path", "")
	loader.SetDefault("log_path", "")
	loader.SetDefault("id_lists", []map[string]string{
		{
			"url":  "https://raw.githubusercontent.com/AveraFox/Tom/refs/heads/main/reported_ids.txt",
			"name": "hackerpolice",
			"kind": "Cheater",
		},
	})
	loader.SetConfigName(DefaultConfigName)
	loader.SetConfigType("yaml")
	loader.SetEnvPrefix(EnvPrefix)
	loader.AddConfigPath(Path(""))
	loader.AddConfigPath(".")
	loader.AutomaticEnv()
	loader.WatchConfig()
	loader.OnConfigChange(loader.onConfigChange)

	return &loader
}

func (cl *Loader) Path() string {
	return cl.ConfigFileUsed()
}

func (cl *Loader) onConfigChange(in fsnotify.Event) {
	if in.Op != fsnotify.Write && in.Op != fsnotify.Rename {
		return
	}

	slog.Debug("External config reload triggered")
	config, err := cl.Read()
	if err != nil {
		slog.Error("Error reading config", slog.String("error", err.Error()))

		return
	}

	cl.changes <- config
}

func (cl *Loader) Write(config Config) error {
	if config.SteamID.Valid() {
		cl.Set("steam_id", config.SteamID.String())
	} else {
		cl.Set("steam_id", "")
	}
	cl.Set("steam_api_key", config.SteamAPIKey)
	cl.Set("steamhistory_key", config.SteamHistoryKey)
	cl.Set("api_base_url", config.APIBaseURL)
	cl.Set("sourcebans_url", config.SourceBansURL)
	cl.Set("update_freq_ms", config.UpdateFreqMs)
	cl.Set("max_in_flight", config.MaxInFlight)
	cl.Set("pattern_file", config.PatternFile)
	cl.Set("mmdb_path", config.MMDBPath)
	cl.Set("log_path", config.LogPath)
	cl.Set("id_lists", config.IDLists)

	// First run has no config file yet, create one in the config home.
	if cl.ConfigFileUsed() == "" {
		if err := cl.SafeWriteConfigAs(Path(DefaultConfigName + ".yaml")); err != nil {
			return errors.Join(err, errConfigWrite)
		}

		return nil
	}

	if err := cl.WriteConfig(); err != nil {
		return errors.Join(err, errConfigWrite)
	}

	return nil
}

func (cl *Loader) Read() (Config, error) {
	if err := cl.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return Config{}, errors.Join(err, errConfigRead)
		}
	}

	var config Config
	if err := cl.Unmarshal(&config); err != nil {
		return Config{}, errors.Join(err, errConfigRead)
	}

	if config.SteamIDString != "" {
		steamID := steamid.New(config.SteamIDString)
		if !steamID.Valid() {
			return Config{}, errConfigRead
		}
		config.SteamID = steamID
	}

	return config, nil
}
