package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures service level configuration loaded from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Upload   UploadConfig   `yaml:"upload"`
	Tree     TreeConfig     `yaml:"tree"`
	CORS     CORSConfig     `yaml:"cors"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig defines HTTP server options.
type ServerConfig struct {
	Address string `yaml:"address"`
	// MaxRequestBodySize bounds multipart bodies; it must leave headroom above Upload.MaxSize.
	MaxRequestBodySize int `yaml:"max_request_body_size"`
}

// DatabaseConfig defines the database backend configuration.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	LogLevel string         `yaml:"log_level"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig contains SQLite specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// MySQLConfig contains MySQL specific connection details.
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// PostgresConfig contains PostgreSQL specific connection details.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Type   string       `yaml:"type"`
	Local  LocalConfig  `yaml:"local"`
	Memory MemoryConfig `yaml:"memory"`
	S3     S3Config     `yaml:"s3"`
}

// LocalConfig holds local storage configuration.
type LocalConfig struct {
	BasePath     string `yaml:"base_path"`
	Bucket       string `yaml:"bucket"`
	ListPageSize int    `yaml:"list_page_size"`
}

// MemoryConfig holds in-process storage configuration.
type MemoryConfig struct {
	Bucket       string `yaml:"bucket"`
	ListPageSize int    `yaml:"list_page_size"`
}

// S3Config holds COS / S3-compatible storage configuration.
type S3Config struct {
	Endpoint      string        `yaml:"endpoint"`
	Region        string        `yaml:"region"`
	Bucket        string        `yaml:"bucket"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	PathStyle     bool          `yaml:"path_style"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
	ListPageSize  int           `yaml:"list_page_size"`
}

// UploadConfig defines file upload constraints.
type UploadConfig struct {
	MaxSize      int64    `yaml:"max_size"`
	ChunkMaxSize int64    `yaml:"chunk_max_size"`
	AllowedTypes []string `yaml:"allowed_types"`
	// StorePath prefixes keys generated for direct and multipart uploads.
	StorePath string `yaml:"store_path"`
}

// TreeConfig bounds parent-chain walks over file records.
type TreeConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// CORSConfig defines CORS middleware settings.
type CORSConfig struct {
	AllowOrigin      string `yaml:"allow_origin"`
	AllowMethods     string `yaml:"allow_methods"`
	AllowHeaders     string `yaml:"allow_headers"`
	AllowCredentials bool   `yaml:"allow_credentials"`
}

// RedisConfig defines Redis connection settings for the optional write lock.
type RedisConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Address        string        `yaml:"address"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	LockKey        string        `yaml:"lock_key"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const (
	DefaultAddress       = ":8080"
	DefaultSQLitePath    = "data/cos_bridge.db"
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
	DefaultMaxDepth      = 64
	DefaultPresignExpiry = time.Hour
	DefaultStoreType     = "local"
	DefaultLocalBasePath = "data/objects"
	DefaultLockKey       = "cos_bridge:write_lock"
)

// Load reads a YAML configuration file from the provided path.
// It searches in the current working directory first, then next to the binary executable.
func Load(name string) (*Config, error) {
	cfg := defaultConfig()

	configPath := findConfigFile(name)
	if configPath == "" {
		log.Printf("Warning: config file %q not found, using defaults", name)
		applyEnv(cfg)
		return cfg, nil
	}

	log.Printf("Loading config from: %s", configPath)
	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var parsed Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyDefaults(&parsed)
	applyEnv(&parsed)
	return &parsed, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.SQLite.Path == "" {
		cfg.Database.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = DefaultStoreType
	}
	if cfg.Storage.Local.BasePath == "" {
		cfg.Storage.Local.BasePath = DefaultLocalBasePath
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "ap-guangzhou"
	}
	if cfg.Storage.S3.PresignExpiry <= 0 {
		cfg.Storage.S3.PresignExpiry = DefaultPresignExpiry
	}
	if cfg.Upload.MaxSize <= 0 {
		cfg.Upload.MaxSize = DefaultMaxUploadSize
	}
	if cfg.Upload.ChunkMaxSize <= 0 {
		cfg.Upload.ChunkMaxSize = DefaultMaxUploadSize
	}
	if cfg.Server.MaxRequestBodySize <= 0 {
		cfg.Server.MaxRequestBodySize = int(max(cfg.Upload.MaxSize, cfg.Upload.ChunkMaxSize)) + 1024*1024
	}
	if cfg.Tree.MaxDepth <= 0 {
		cfg.Tree.MaxDepth = DefaultMaxDepth
	}
	if cfg.CORS.AllowOrigin == "" {
		cfg.CORS.AllowOrigin = "*"
	}
	if cfg.CORS.AllowMethods == "" {
		cfg.CORS.AllowMethods = "GET,POST,PUT,DELETE,OPTIONS"
	}
	if cfg.CORS.AllowHeaders == "" {
		cfg.CORS.AllowHeaders = "*"
	}
	if cfg.Redis.LockKey == "" {
		cfg.Redis.LockKey = DefaultLockKey
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 30 * time.Second
	}
	if cfg.Redis.AcquireTimeout <= 0 {
		cfg.Redis.AcquireTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// applyEnv lets deployments keep credentials and the key prefix out of the YAML file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COS_SECRET_ID"); v != "" {
		cfg.Storage.S3.AccessKey = v
	}
	if v := os.Getenv("COS_SECRET_KEY"); v != "" {
		cfg.Storage.S3.SecretKey = v
	}
	if v := os.Getenv("COS_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("COS_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v, ok := os.LookupEnv("STORE_PATH"); ok {
		cfg.Upload.StorePath = v
	}
	cfg.Upload.StorePath = strings.Trim(strings.TrimSpace(cfg.Upload.StorePath), "/")
}

// findConfigFile searches for a config file in the current directory first,
// then next to the binary executable. Returns the full path or empty string.
func findConfigFile(name string) string {
	if _, err := os.Stat(name); err == nil {
		abs, _ := filepath.Abs(name)
		return abs
	}

	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
