// Package config 负责加载应用配置：默认值 → YAML 文件 → .env → 环境变量。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 聚合所有配置段
type Config struct {
	App        AppConfig        `yaml:"app"`
	Log        LogConfig        `yaml:"log"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Cache      CacheConfig      `yaml:"cache"`
	MQ         MQConfig         `yaml:"mq"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	CORS       CORSConfig       `yaml:"cors"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string        `yaml:"name"`
	Env             string        `yaml:"env"`
	Version         string        `yaml:"version"`
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json 或 console
}

// GatewayConfig 远程商城 API 客户端配置
type GatewayConfig struct {
	BaseURL      string        `yaml:"base_url"`
	StorePrefix  string        `yaml:"store_prefix"` // 店铺路径前缀，例如 /api/store/acme
	Timeout      time.Duration `yaml:"timeout"`
	MinInterval  time.Duration `yaml:"min_interval"` // 两次请求之间的最小间隔
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	RetryMax     int           `yaml:"retry_max"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// StorageConfig 本地持久化存储配置
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory, file, redis, mysql
	Path   string `yaml:"path"`   // file 驱动使用的文件路径
	Secret string `yaml:"secret"` // 非空时对存储值加密
}

// RedisConfig Redis连接配置
type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Addr 返回 host:port 形式的地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig MySQL连接配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// MigrationsConfig 数据库迁移配置
type MigrationsConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig 网关响应缓存配置
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // memory 或 redis
}

// MQConfig 购物车事件发布配置
type MQConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// RateLimitConfig 本地 HTTP API 限流配置（依赖 Redis）
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Rate    int64         `yaml:"rate"`
	Window  time.Duration `yaml:"window"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// Default 返回带默认值的配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:            "storefront",
			Env:             "dev",
			Version:         "0.1.0",
			Port:            8080,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Encoding: "console"},
		Gateway: GatewayConfig{
			Timeout:      30 * time.Second,
			MinInterval:  100 * time.Millisecond,
			CacheTTL:     30 * time.Second,
			RetryMax:     3,
			RetryBackoff: time.Second,
		},
		Storage: StorageConfig{Driver: "file", Path: "storefront-data.json"},
		Redis:   RedisConfig{Host: "localhost", Port: 6379, KeyPrefix: "storefront:"},
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			DBName: "storefront",
		},
		Migrations: MigrationsConfig{Dir: "migrations"},
		Cache:      CacheConfig{Enabled: true, Type: "memory"},
		MQ:         MQConfig{Exchange: "storefront.basket", RoutingKey: "basket.changed"},
		RateLimit:  RateLimitConfig{Rate: 120, Window: time.Minute},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		},
	}
}

// Load 按优先级加载配置并校验
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile 用 YAML 文件覆盖当前配置
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv 读取环境变量覆盖
func (c *Config) applyEnv() error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	num64 := func(key string, dst *int64) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok {
			var out []string
			for _, part := range strings.Split(v, ",") {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			*dst = out
		}
	}

	str("APP_NAME", &c.App.Name)
	str("APP_ENV", &c.App.Env)
	str("APP_VERSION", &c.App.Version)
	num("APP_PORT", &c.App.Port)
	dur("APP_REQUEST_TIMEOUT", &c.App.RequestTimeout)
	dur("APP_SHUTDOWN_TIMEOUT", &c.App.ShutdownTimeout)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_ENCODING", &c.Log.Encoding)

	str("GATEWAY_BASE_URL", &c.Gateway.BaseURL)
	str("GATEWAY_STORE_PREFIX", &c.Gateway.StorePrefix)
	dur("GATEWAY_TIMEOUT", &c.Gateway.Timeout)
	dur("GATEWAY_MIN_INTERVAL", &c.Gateway.MinInterval)
	dur("GATEWAY_CACHE_TTL", &c.Gateway.CacheTTL)
	num("GATEWAY_RETRY_MAX", &c.Gateway.RetryMax)
	dur("GATEWAY_RETRY_BACKOFF", &c.Gateway.RetryBackoff)

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_PATH", &c.Storage.Path)
	str("STORAGE_SECRET", &c.Storage.Secret)

	str("REDIS_HOST", &c.Redis.Host)
	num("REDIS_PORT", &c.Redis.Port)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("REDIS_KEY_PREFIX", &c.Redis.KeyPrefix)

	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.DBName)
	str("MIGRATIONS_DIR", &c.Migrations.Dir)

	flag("CACHE_ENABLED", &c.Cache.Enabled)
	str("CACHE_TYPE", &c.Cache.Type)

	flag("MQ_ENABLED", &c.MQ.Enabled)
	str("MQ_URL", &c.MQ.URL)
	str("MQ_EXCHANGE", &c.MQ.Exchange)
	str("MQ_ROUTING_KEY", &c.MQ.RoutingKey)

	flag("RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	num64("RATE_LIMIT_RATE", &c.RateLimit.Rate)
	dur("RATE_LIMIT_WINDOW", &c.RateLimit.Window)

	list("CORS_ALLOWED_ORIGINS", &c.CORS.AllowedOrigins)
	list("CORS_ALLOWED_METHODS", &c.CORS.AllowedMethods)
	list("CORS_ALLOWED_HEADERS", &c.CORS.AllowedHeaders)

	return errors.Join(errs...)
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return errors.New("gateway base url is required (GATEWAY_BASE_URL)")
	}
	if c.Gateway.MinInterval < 0 {
		return errors.New("gateway min interval must not be negative")
	}
	if c.Gateway.CacheTTL < 0 {
		return errors.New("gateway cache ttl must not be negative")
	}
	if c.Gateway.RetryMax < 1 {
		return errors.New("gateway retry max must be at least 1")
	}

	switch c.Storage.Driver {
	case "memory", "file", "redis", "mysql":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "file" && c.Storage.Path == "" {
		return errors.New("storage path is required for file driver")
	}

	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}

	if c.MQ.Enabled && c.MQ.URL == "" {
		return errors.New("mq url is required when mq is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Rate <= 0 || c.RateLimit.Window < time.Second) {
		return errors.New("rate limit requires rate > 0 and window >= 1s")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port %d", c.App.Port)
	}
	return nil
}
