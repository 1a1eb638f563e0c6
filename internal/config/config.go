package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the knowledge-base service.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Collectors CollectorsConfig `yaml:"collectors"`
	Patterns   PatternsConfig   `yaml:"patterns"`
	Analysis   Thresholds       `yaml:"analysis"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	HTTPAddress     string        `yaml:"httpAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// StorageConfig selects where per-project collections are persisted.
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Dir           string `yaml:"dir"`
	PostgresDSN   string `yaml:"postgresDSN"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	KeyPrefix     string `yaml:"keyPrefix"`
}

// CacheConfig controls caching of loaded collections.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Driver       string        `yaml:"driver"`
	Size         int           `yaml:"size"`
	TTL          time.Duration `yaml:"ttl"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
}

// CollectorsConfig configures the telemetry collaborators.
type CollectorsConfig struct {
	Remote     RemoteConfig `yaml:"remote"`
	ReportDir  string       `yaml:"reportDir"`
	GitDir     string       `yaml:"gitDir"`
	GitLimit   int          `yaml:"gitLimit"`
	Kubeconfig string       `yaml:"kubeconfig"`
	Namespace  string       `yaml:"namespace"`
}

// RemoteConfig configures access to a telemetry aggregation endpoint.
type RemoteConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	LogsPath    string        `yaml:"logsPath"`
	CommitsPath string        `yaml:"commitsPath"`
	MetricsPath string        `yaml:"metricsPath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PatternsConfig points at an optional user pattern pack.
type PatternsConfig struct {
	PackPath string `yaml:"packPath"`
}

// Load initialises Config from an optional .env file, a YAML file and environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("MIRADOR_KB_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("validate analysis thresholds: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the environment.
func Default() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50061",
			HTTPAddress:     ":2113",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Storage: StorageConfig{
			Driver:    DriverFile,
			Dir:       ".mirador/kb",
			KeyPrefix: "mirador:kb",
		},
		Cache: CacheConfig{
			Enabled:      false,
			Driver:       "lru",
			Size:         256,
			TTL:          time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Collectors: CollectorsConfig{
			Remote: RemoteConfig{
				LogsPath:    "/api/v1/telemetry/logs",
				CommitsPath: "/api/v1/telemetry/commits",
				MetricsPath: "/api/v1/telemetry/metrics",
				Timeout:     5 * time.Second,
			},
			ReportDir: ".mirador/reports",
			GitLimit:  20,
			Namespace: "default",
		},
		Analysis: DefaultThresholds(),
	}
}

func applyEnvOverrides(cfg *Config) {
	envString("MIRADOR_KB_SERVER_ADDRESS", &cfg.Server.Address)
	envString("MIRADOR_KB_HTTP_ADDRESS", &cfg.Server.HTTPAddress)
	envDuration("MIRADOR_KB_GRACEFUL_TIMEOUT", &cfg.Server.GracefulTimeout)

	envString("MIRADOR_KB_LOG_LEVEL", &cfg.Logging.Level)
	if v := os.Getenv("MIRADOR_KB_LOG_FORMAT"); v != "" {
		cfg.Logging.JSON = strings.EqualFold(v, "json")
	}

	envString("MIRADOR_KB_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("MIRADOR_KB_STORAGE_DIR", &cfg.Storage.Dir)
	envString("MIRADOR_KB_POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	envString("MIRADOR_KB_REDIS_ADDR", &cfg.Storage.RedisAddr)
	envString("MIRADOR_KB_REDIS_PASSWORD", &cfg.Storage.RedisPassword)
	envInt("MIRADOR_KB_REDIS_DB", &cfg.Storage.RedisDB)

	envBool("MIRADOR_KB_CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("MIRADOR_KB_CACHE_DRIVER", &cfg.Cache.Driver)
	envString("MIRADOR_KB_CACHE_ADDR", &cfg.Cache.Addr)
	envString("MIRADOR_KB_CACHE_USERNAME", &cfg.Cache.Username)
	envString("MIRADOR_KB_CACHE_PASSWORD", &cfg.Cache.Password)
	envInt("MIRADOR_KB_CACHE_DB", &cfg.Cache.DB)
	envInt("MIRADOR_KB_CACHE_SIZE", &cfg.Cache.Size)
	envDuration("MIRADOR_KB_CACHE_TTL", &cfg.Cache.TTL)

	envString("MIRADOR_KB_TELEMETRY_BASE_URL", &cfg.Collectors.Remote.BaseURL)
	envDuration("MIRADOR_KB_TELEMETRY_TIMEOUT", &cfg.Collectors.Remote.Timeout)
	envString("MIRADOR_KB_REPORT_DIR", &cfg.Collectors.ReportDir)
	envString("MIRADOR_KB_GIT_DIR", &cfg.Collectors.GitDir)
	envString("MIRADOR_KB_KUBECONFIG", &cfg.Collectors.Kubeconfig)
	if cfg.Collectors.Kubeconfig == "" {
		envString("KUBECONFIG", &cfg.Collectors.Kubeconfig)
	}
	envString("MIRADOR_KB_NAMESPACE", &cfg.Collectors.Namespace)

	envString("MIRADOR_KB_PATTERN_PACK", &cfg.Patterns.PackPath)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
