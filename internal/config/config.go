package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	CreatorJWT   JWTConfig          `mapstructure:"creator_jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	OrderAPI     OrderAPIConfig     `mapstructure:"order_api"`
	Admitad      AdmitadConfig      `mapstructure:"admitad"`
	Links        LinksConfig        `mapstructure:"links"`
	Fraud        FraudConfig        `mapstructure:"fraud"`
	ClickTracker ClickTrackerConfig `mapstructure:"click_tracker"`
	Health       HealthConfig       `mapstructure:"health"`
	Upload       UploadConfig       `mapstructure:"upload"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds     int `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// Addr 监听地址
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置（令牌由外部认证服务签发，此处只做校验）
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`

	PoolSize            int `mapstructure:"pool_size"`
	DialTimeoutSeconds  int `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled          bool           `mapstructure:"enabled"`
	Host             string         `mapstructure:"host"`
	Port             int            `mapstructure:"port"`
	Password         string         `mapstructure:"password"`
	DB               int            `mapstructure:"db"`
	Concurrency      int            `mapstructure:"concurrency"`
	Queues           map[string]int `mapstructure:"queues"`
	MaxRetry         int            `mapstructure:"max_retry"`
	RetryBaseSeconds int            `mapstructure:"retry_base_seconds"`
	RetryMaxSeconds  int            `mapstructure:"retry_max_seconds"`
}

// RetryBase 返回指数退避的基础间隔
func (c QueueConfig) RetryBase() time.Duration {
	if c.RetryBaseSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.RetryBaseSeconds) * time.Second
}

// RetryMax 返回退避间隔上限
func (c QueueConfig) RetryMax() time.Duration {
	if c.RetryMaxSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.RetryMaxSeconds) * time.Second
}

// OrderAPIConfig 订单直推接口配置
type OrderAPIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AdmitadConfig Admitad 联盟配置
type AdmitadConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	ClientID            string `mapstructure:"client_id"`
	ClientSecret        string `mapstructure:"client_secret"`
	TokenURL            string `mapstructure:"token_url"`
	APIBase             string `mapstructure:"api_base"`
	Scopes              string `mapstructure:"scopes"`
	BaseLink            string `mapstructure:"base_link"`
	TrackingHost        string `mapstructure:"tracking_host"`
	DefaultCategory     string `mapstructure:"default_category"`
	SyncEveryMinutes    int    `mapstructure:"sync_every_minutes"`
	SyncOverlapMinutes  int    `mapstructure:"sync_overlap_minutes"`
	InitialLookbackHour int    `mapstructure:"initial_lookback_hours"`
	RequestTimeoutMS    int    `mapstructure:"request_timeout_ms"`
}

// LinksConfig 推广链接配置
type LinksConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	AllowedDomains  []string `mapstructure:"allowed_domains"`
	ShortCodePrefix string   `mapstructure:"short_code_prefix"`
	ShortCodeLength int      `mapstructure:"short_code_length"`
}

// FraudConfig 点击反作弊阈值
type FraudConfig struct {
	WindowSeconds   int `mapstructure:"window_seconds"`
	MaxPerIP        int `mapstructure:"max_per_ip"`
	MaxPerShortCode int `mapstructure:"max_per_short_code"`
}

// ClickTrackerConfig 点击异步记录配置
type ClickTrackerConfig struct {
	Workers        int `mapstructure:"workers"`
	Buffer         int `mapstructure:"buffer"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HealthConfig 健康探测配置
type HealthConfig struct {
	ProbeIntervalSeconds int `mapstructure:"probe_interval_seconds"`
	ProbeTimeoutMS       int `mapstructure:"probe_timeout_ms"`
}

// UploadConfig 报表上传配置
type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// RateLimitConfig 限流配置（依赖 Redis）
type RateLimitConfig struct {
	Redirect RateLimitRuleConfig `mapstructure:"redirect"`
	API      RateLimitRuleConfig `mapstructure:"api"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debugw("dotenv_not_loaded", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults()

	// 环境变量支持（例如 admitad.client_id -> ADMITAD_CLIENT_ID）
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.read_timeout_seconds", 15)
	viper.SetDefault("server.write_timeout_seconds", 30)
	viper.SetDefault("server.idle_timeout_seconds", 60)
	viper.SetDefault("server.shutdown_timeout_seconds", 10)
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "app.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/affiliate.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "")
	viper.SetDefault("creator_jwt.secret", "creator-change-me-in-production")
	viper.SetDefault("creator_jwt.issuer", "")
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "aff")
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.dial_timeout_seconds", 3)
	viper.SetDefault("redis.read_timeout_seconds", 2)
	viper.SetDefault("redis.write_timeout_seconds", 2)
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 5)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("queue.max_retry", 5)
	viper.SetDefault("queue.retry_base_seconds", 3)
	viper.SetDefault("queue.retry_max_seconds", 600)
	viper.SetDefault("order_api.api_key", "")
	viper.SetDefault("admitad.enabled", false)
	viper.SetDefault("admitad.client_id", "")
	viper.SetDefault("admitad.client_secret", "")
	viper.SetDefault("admitad.token_url", "https://api.admitad.com/token/")
	viper.SetDefault("admitad.api_base", "https://api.admitad.com")
	viper.SetDefault("admitad.scopes", "statistics deeplink_generator")
	viper.SetDefault("admitad.base_link", "")
	viper.SetDefault("admitad.tracking_host", "ad.admitad.com")
	viper.SetDefault("admitad.default_category", "fashion")
	viper.SetDefault("admitad.sync_every_minutes", 10)
	viper.SetDefault("admitad.sync_overlap_minutes", 60)
	viper.SetDefault("admitad.initial_lookback_hours", 24)
	viper.SetDefault("admitad.request_timeout_ms", 15000)
	viper.SetDefault("links.base_url", "http://localhost:8080")
	viper.SetDefault("links.allowed_domains", []string{"lifestylestores.com", "myntra.com"})
	viper.SetDefault("links.short_code_prefix", "OI-")
	viper.SetDefault("links.short_code_length", 6)
	viper.SetDefault("fraud.window_seconds", 300)
	viper.SetDefault("fraud.max_per_ip", 20)
	viper.SetDefault("fraud.max_per_short_code", 200)
	viper.SetDefault("click_tracker.workers", 4)
	viper.SetDefault("click_tracker.buffer", 1024)
	viper.SetDefault("click_tracker.timeout_seconds", 5)
	viper.SetDefault("health.probe_interval_seconds", 15)
	viper.SetDefault("health.probe_timeout_ms", 2000)
	viper.SetDefault("upload.max_size", 10485760)
	viper.SetDefault("upload.allowed_extensions", []string{".csv", ".xlsx"})
	viper.SetDefault("rate_limit.redirect.window_seconds", 60)
	viper.SetDefault("rate_limit.redirect.max_requests", 60)
	viper.SetDefault("rate_limit.api.window_seconds", 60)
	viper.SetDefault("rate_limit.api.max_requests", 100)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-API-Key",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
}
