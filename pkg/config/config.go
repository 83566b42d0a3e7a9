package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Universe struct {
		HighTo   int `yaml:"high_to"`   // rank ceiling for the high tier
		MediumTo int `yaml:"medium_to"` // rank ceiling for the medium tier
		LowTo    int `yaml:"low_to"`    // rank ceiling for the low tier
		PageSize int `yaml:"page_size"`
	} `yaml:"universe"`
	Scheduler struct {
		HighInterval   time.Duration `yaml:"high_interval"`
		MediumInterval time.Duration `yaml:"medium_interval"`
		LowInterval    time.Duration `yaml:"low_interval"`
		BatchInterval  time.Duration `yaml:"batch_interval"`
		PageDelay      time.Duration `yaml:"page_delay"`
		MediumDelay    time.Duration `yaml:"medium_delay"` // artificial enqueue delay
		LowDelay       time.Duration `yaml:"low_delay"`
		BatchDelay     time.Duration `yaml:"batch_delay"`
	} `yaml:"scheduler"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		MaxDepth   int           `yaml:"max_depth"` // per-tier load-shedding ceiling
		RetryMax   int           `yaml:"retry_max"`
		BackoffMin time.Duration `yaml:"backoff_min"`
		BackoffMax time.Duration `yaml:"backoff_max"`
		BatchSize  int           `yaml:"batch_size"` // coalesced batch group size
		BatchFlush time.Duration `yaml:"batch_flush"`
	} `yaml:"queue"`
	Providers struct {
		Market struct {
			BaseURL      string        `yaml:"base_url"`
			APIKey       string        `yaml:"api_key"`
			Timeout      time.Duration `yaml:"timeout"`
			DailyLimit   int           `yaml:"daily_limit"`
			MonthlyLimit int           `yaml:"monthly_limit"`
		} `yaml:"market"`
		Sentiment struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"sentiment"`
		Whale struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"whale"`
		Macro struct {
			BaseURL string        `yaml:"base_url"`
			Timeout time.Duration `yaml:"timeout"`
			Refresh time.Duration `yaml:"refresh"`
		} `yaml:"macro"`
	} `yaml:"providers"`
	WhaleFeed struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		MinTransferUSD float64       `yaml:"min_transfer_usd"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"whale_feed"`
	Cache struct {
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
		SignalTTL   time.Duration `yaml:"signal_ttl"`
		MemoryMax   int           `yaml:"memory_max"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_API_KEY"); v != "" {
		c.Providers.Market.APIKey = v
	}
	if v := os.Getenv("WHALE_FEED_API_KEY"); v != "" {
		c.WhaleFeed.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Queue.Workers = n
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Universe.HighTo == 0 {
		c.Universe.HighTo = 100
	}
	if c.Universe.MediumTo == 0 {
		c.Universe.MediumTo = 500
	}
	if c.Universe.LowTo == 0 {
		c.Universe.LowTo = 2000
	}
	if c.Universe.PageSize == 0 {
		c.Universe.PageSize = 250
	}
	if c.Scheduler.HighInterval == 0 {
		c.Scheduler.HighInterval = 5 * time.Minute
	}
	if c.Scheduler.MediumInterval == 0 {
		c.Scheduler.MediumInterval = 15 * time.Minute
	}
	if c.Scheduler.LowInterval == 0 {
		c.Scheduler.LowInterval = time.Hour
	}
	if c.Scheduler.BatchInterval == 0 {
		c.Scheduler.BatchInterval = 6 * time.Hour
	}
	if c.Scheduler.PageDelay == 0 {
		c.Scheduler.PageDelay = 2 * time.Second
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 8
	}
	if c.Queue.MaxDepth == 0 {
		c.Queue.MaxDepth = 5000
	}
	if c.Queue.RetryMax == 0 {
		c.Queue.RetryMax = 3
	}
	if c.Queue.BackoffMin == 0 {
		c.Queue.BackoffMin = time.Second
	}
	if c.Queue.BackoffMax == 0 {
		c.Queue.BackoffMax = 30 * time.Second
	}
	if c.Queue.BatchSize == 0 {
		c.Queue.BatchSize = 25
	}
	if c.Queue.BatchFlush == 0 {
		c.Queue.BatchFlush = 30 * time.Second
	}
	if c.Cache.SnapshotTTL == 0 {
		c.Cache.SnapshotTTL = 2 * time.Minute
	}
	if c.Cache.SignalTTL == 0 {
		c.Cache.SignalTTL = 3 * time.Minute
	}
	if c.Cache.MemoryMax == 0 {
		c.Cache.MemoryMax = 5000
	}
	if c.Providers.Macro.Refresh == 0 {
		c.Providers.Macro.Refresh = 5 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Providers.Market.BaseURL == "" {
		return fmt.Errorf("providers.market.base_url is required")
	}
	if c.Providers.Market.DailyLimit <= 0 {
		return fmt.Errorf("providers.market.daily_limit must be positive")
	}
	if c.Universe.HighTo > c.Universe.MediumTo || c.Universe.MediumTo > c.Universe.LowTo {
		return fmt.Errorf("universe tier bounds must be ascending (high <= medium <= low)")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	return nil
}
