package core

import (
	"time"
)

type Config struct {
	Spotify SpotifyConfig
	Search  SearchConfig
	Fetch   FetchConfig
	Server  ServerConfig
	Store   StoreConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	CacheSize    int
}

type SearchConfig struct {
	ResultsPerQuery int
	Concurrency     int
	ProbeTimeout    time.Duration
}

type FetchConfig struct {
	AudioFormat    string
	CookiesBrowser string
	FetchTimeout   time.Duration
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	HistoryPath string
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	WorkDir    string
	LibraryDir string
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			CacheSize: 512,
		},
		Search: SearchConfig{
			ResultsPerQuery: 5,
			Concurrency:     3,
			ProbeTimeout:    30 * time.Second,
		},
		Fetch: FetchConfig{
			AudioFormat:  "mp3",
			FetchTimeout: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Minute,
		},
		Store: StoreConfig{
			HistoryPath: "./tracksnag_history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			WorkDir:    "./work",
			LibraryDir: "./library",
		},
	}
}
