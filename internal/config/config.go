package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	Venue     VenueConfig     `yaml:"venue"`
	Trading   TradingConfig   `yaml:"trading"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Journal   JournalConfig   `yaml:"journal"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type VenueConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	SendQueueSize  int           `yaml:"send_queue_size"`
}

// TradingConfig carries the venue-defined constants. They are fixed for the
// life of the process; the defaults match the competition venue.
type TradingConfig struct {
	MaxLotSize        int64   `yaml:"max_lot_size"`
	PositionLimit     int64   `yaml:"position_limit"`
	TickSize          int64   `yaml:"tick_size"`
	ActiveOrdersLimit int64   `yaml:"active_orders_limit"`
	Threshold         float64 `yaml:"threshold"`
	MinimumBid        int64   `yaml:"minimum_bid"`
	MaximumAsk        int64   `yaml:"maximum_ask"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type JournalConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TimescaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	QueueSize int    `yaml:"queue_size"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

// Default returns a config with every default applied, for tools that run
// without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Venue.URL == "" {
		cfg.Venue.URL = "ws://127.0.0.1:9001/gateway"
	}
	if cfg.Venue.ReconnectDelay == 0 {
		cfg.Venue.ReconnectDelay = 3 * time.Second
	}
	if cfg.Venue.PingInterval == 0 {
		cfg.Venue.PingInterval = 30 * time.Second
	}
	if cfg.Venue.SendQueueSize == 0 {
		cfg.Venue.SendQueueSize = 256
	}
	if cfg.Trading.MaxLotSize == 0 {
		cfg.Trading.MaxLotSize = 25
	}
	if cfg.Trading.PositionLimit == 0 {
		cfg.Trading.PositionLimit = 100
	}
	if cfg.Trading.TickSize == 0 {
		cfg.Trading.TickSize = 100
	}
	if cfg.Trading.ActiveOrdersLimit == 0 {
		cfg.Trading.ActiveOrdersLimit = 10
	}
	if cfg.Trading.Threshold == 0 {
		cfg.Trading.Threshold = 5e-4
	}
	if cfg.Trading.MinimumBid == 0 {
		cfg.Trading.MinimumBid = 1
	}
	if cfg.Trading.MaximumAsk == 0 {
		cfg.Trading.MaximumAsk = 1<<31 - 1
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = "127.0.0.1:9102"
	}
	if cfg.Journal.SQLitePath == "" {
		cfg.Journal.SQLitePath = "data/etf-arb-bot.db"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 1024
	}
}

func validate(cfg *Config) error {
	if cfg.Trading.TickSize <= 0 {
		return errors.New("trading.tick_size must be > 0")
	}
	if cfg.Trading.MaxLotSize <= 0 {
		return errors.New("trading.max_lot_size must be > 0")
	}
	if cfg.Trading.PositionLimit <= 0 {
		return errors.New("trading.position_limit must be > 0")
	}
	if cfg.Trading.ActiveOrdersLimit <= 0 {
		return errors.New("trading.active_orders_limit must be > 0")
	}
	if cfg.Trading.Threshold < 0 {
		return errors.New("trading.threshold must be >= 0")
	}
	if cfg.Trading.MaximumAsk <= cfg.Trading.MinimumBid {
		return errors.New("trading.maximum_ask must exceed trading.minimum_bid")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}
