package core

import (
	"time"
)

type Config struct {
	Store   StoreConfig
	YouTube YouTubeConfig
	Player  PlayerConfig
	Server  ServerConfig
	Log     LogConfig
}

type StoreConfig struct {
	Path string
}

type YouTubeConfig struct {
	APIKey         string
	BaseURL        string
	RequestsPerSec float64
	CacheSize      int
}

type PlayerConfig struct {
	BaseURL  string
	Token    string
	EntityID string
}

type ServerConfig struct {
	Host         string
	Port         int
	BasePath     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "./hamusic.db",
		},
		YouTube: YouTubeConfig{
			BaseURL:        "https://www.googleapis.com/youtube/v3",
			RequestsPerSec: 5,
			CacheSize:      1024,
		},
		Player: PlayerConfig{
			EntityID: "media_player.apple_tv",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			BasePath:     "/api",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
