package config

import "time"

// Config holds backend and client configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	// RedisURL enables the redis fan-out broker when set; otherwise the in-process hub is used.
	RedisURL     string `mapstructure:"redis_url" yaml:"redis_url"`
	APIKeySecret string `mapstructure:"api_key_secret" yaml:"api_key_secret"`
	SeedRooms    bool   `mapstructure:"seed_rooms" yaml:"seed_rooms"`

	Client  ClientConfig  `mapstructure:"client" yaml:"client"`
	Pairing PairingConfig `mapstructure:"pairing" yaml:"pairing"`
}

// ClientConfig configures the terminal front-ends.
type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	PageSize       int           `mapstructure:"page_size" yaml:"page_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	LogFile        string        `mapstructure:"log_file" yaml:"log_file"`
}

// PairingConfig tunes the scripted stranger.
type PairingConfig struct {
	MatchDelayMin time.Duration `mapstructure:"match_delay_min" yaml:"match_delay_min"`
	MatchDelayMax time.Duration `mapstructure:"match_delay_max" yaml:"match_delay_max"`
	ReplyDelayMin time.Duration `mapstructure:"reply_delay_min" yaml:"reply_delay_min"`
	ReplyDelayMax time.Duration `mapstructure:"reply_delay_max" yaml:"reply_delay_max"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "anonchat.db",
		SeedRooms:         true,
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			PageSize:       100,
			RequestTimeout: 10 * time.Second,
			LogFile:        "anonchat-client.log",
		},
		Pairing: PairingConfig{
			MatchDelayMin: 2 * time.Second,
			MatchDelayMax: 4 * time.Second,
			ReplyDelayMin: 1 * time.Second,
			ReplyDelayMax: 3 * time.Second,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// SeedRooms is a plain bool and is not merged.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.APIKeySecret != "" {
		c.APIKeySecret = other.APIKeySecret
	}
	if other.Client.BaseURL != "" {
		c.Client.BaseURL = other.Client.BaseURL
	}
	if other.Client.APIKey != "" {
		c.Client.APIKey = other.Client.APIKey
	}
	if other.Client.PageSize != 0 {
		c.Client.PageSize = other.Client.PageSize
	}
	if other.Client.RequestTimeout != 0 {
		c.Client.RequestTimeout = other.Client.RequestTimeout
	}
	if other.Client.LogFile != "" {
		c.Client.LogFile = other.Client.LogFile
	}
	if other.Pairing.MatchDelayMin != 0 {
		c.Pairing.MatchDelayMin = other.Pairing.MatchDelayMin
	}
	if other.Pairing.MatchDelayMax != 0 {
		c.Pairing.MatchDelayMax = other.Pairing.MatchDelayMax
	}
	if other.Pairing.ReplyDelayMin != 0 {
		c.Pairing.ReplyDelayMin = other.Pairing.ReplyDelayMin
	}
	if other.Pairing.ReplyDelayMax != 0 {
		c.Pairing.ReplyDelayMax = other.Pairing.ReplyDelayMax
	}
}
