package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cameroncuttingedge/place/canvas"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	Board      BoardConfig      `yaml:"board"`
	Auth       AuthConfig       `yaml:"auth"`
	Pixels     PixelsConfig     `yaml:"pixels"`
	Redis      RedisConfig      `yaml:"redis"`
	Provenance ProvenanceConfig `yaml:"provenance"`
	HTTP       HTTPConfig       `yaml:"http"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
}

type BoardConfig struct {
	Size      int `yaml:"size"`
	MaxColors int `yaml:"max_colors"`
	DelayS    int `yaml:"delay_s"` // cooldown between draws of one user
}

type AuthConfig struct {
	SecretKey  string `yaml:"secret_key"`
	Algorithm  string `yaml:"algorithm"`   // HS256, HS384, HS512
	CookieName string `yaml:"cookie_name"` // websocket handshake cookie
}

type PixelsConfig struct {
	Backend string `yaml:"backend"` // redis, memory
	Key     string `yaml:"key"`
}

type RedisConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	ConnectRetries int    `yaml:"connect_retries"`
	RetryWaitS     int    `yaml:"retry_wait_s"`
}

type ProvenanceConfig struct {
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	CORSOrigins      []string `yaml:"cors_origins"`
	RequestRate      float64  `yaml:"request_rate"` // per client IP, 0 disables
	RequestBurst     int      `yaml:"request_burst"`
	ShutdownTimeoutS int      `yaml:"shutdown_timeout_s"`
}

type WebSocketConfig struct {
	QueueSize     int `yaml:"queue_size"`
	WriteTimeoutS int `yaml:"write_timeout_s"`
}

type DiscoveryConfig struct {
	MDNS     bool   `yaml:"mdns"`
	Instance string `yaml:"instance"`
}

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Default returns the reference deployment settings.
func Default() Config {
	return Config{
		Listen: ":8000",
		Board: BoardConfig{
			Size:      100,
			MaxColors: 16,
			DelayS:    2,
		},
		Auth: AuthConfig{
			Algorithm:  "HS256",
			CookieName: "token",
		},
		Pixels: PixelsConfig{
			Backend: BackendRedis,
			Key:     "place_bitmap",
		},
		Redis: RedisConfig{
			Host:           "redis",
			Port:           6379,
			ConnectRetries: 10,
			RetryWaitS:     10,
		},
		Provenance: ProvenanceConfig{
			Path: "place.db",
		},
		HTTP: HTTPConfig{
			CORSOrigins:      []string{"*"},
			RequestRate:      20,
			RequestBurst:     40,
			ShutdownTimeoutS: 5,
		},
		WebSocket: WebSocketConfig{
			QueueSize:     64,
			WriteTimeoutS: 10,
		},
	}
}

// Load reads path on top of the defaults (an empty path skips the file),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.Auth.SecretKey = v
	}
	if v := os.Getenv("ALGORITHM"); v != "" {
		c.Auth.Algorithm = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_PORT: %w", err)
		}
		c.Redis.Port = port
	}
	if v := os.Getenv("PLACE_LISTEN"); v != "" {
		c.Listen = v
	}
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Board.Size < 1 || c.Board.Size > canvas.MaxBoardSize {
		errs = append(errs, fmt.Errorf("board.size must be in [1, %d], got %d", canvas.MaxBoardSize, c.Board.Size))
	}
	if c.Board.MaxColors < 1 || c.Board.MaxColors > canvas.MaxPalette {
		errs = append(errs, fmt.Errorf("board.max_colors must be in [1, %d], got %d", canvas.MaxPalette, c.Board.MaxColors))
	}
	if c.Board.DelayS < 0 {
		errs = append(errs, fmt.Errorf("board.delay_s must not be negative, got %d", c.Board.DelayS))
	}
	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("auth.secret_key is not set (SECRET_KEY)"))
	}
	switch c.Pixels.Backend {
	case BackendRedis:
		if c.Redis.ConnectRetries < 1 {
			errs = append(errs, fmt.Errorf("redis.connect_retries must be at least 1, got %d", c.Redis.ConnectRetries))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("pixels.backend must be %q or %q, got %q", BackendRedis, BackendMemory, c.Pixels.Backend))
	}
	if c.Provenance.Path == "" {
		errs = append(errs, errors.New("provenance.path is empty"))
	}
	if c.WebSocket.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("websocket.queue_size must be at least 1, got %d", c.WebSocket.QueueSize))
	}
	return errors.Join(errs...)
}

func (c *Config) Bounds() canvas.Bounds {
	return canvas.Bounds{
		Size:   c.Board.Size,
		Colors: c.Board.MaxColors,
		Delay:  time.Duration(c.Board.DelayS) * time.Second,
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) RetryWait() time.Duration {
	return time.Duration(c.Redis.RetryWaitS) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WebSocket.WriteTimeoutS) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.HTTP.ShutdownTimeoutS) * time.Second
}
