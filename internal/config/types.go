package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Logger        LoggerConfig        `yaml:"logger"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	MonitorStore  MonitorStoreConfig  `yaml:"monitor_store"`
	Fleet         FleetConfig         `yaml:"fleet"`
	Breaker       BreakerConfig       `yaml:"breaker"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

type ServerConfig struct {
	HTTPPort              int    `yaml:"http_port"`
	GRPCPort              int    `yaml:"grpc_port"`
	Host                  string `yaml:"host"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Output string `yaml:"output"` // stdout, stderr, or file path
}

type ElasticsearchConfig struct {
	Addresses       []string `yaml:"addresses"`         // 如 ["http://localhost:9200"]
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	AlertIndex      string   `yaml:"alert_index"`       // 告警事件索引（可为通配符）
	MonitorIndex    string   `yaml:"monitor_index"`     // monitor_store.backend=elasticsearch 时使用
	AlertingAPIPath string   `yaml:"alerting_api_path"` // 外部告警引擎 API 前缀
}

type MonitorStoreConfig struct {
	Backend string `yaml:"backend"` // database, elasticsearch
}

type FleetConfig struct {
	MaxMonitors          int    `yaml:"max_monitors"`           // 单次列表最多物化的 monitor 数
	DefaultSortField     string `yaml:"default_sort_field"`     // 请求未指定 sortField 时使用
	DefaultSortDirection string `yaml:"default_sort_direction"` // asc, desc
}

type BreakerConfig struct {
	MaxRequests         uint32 `yaml:"max_requests"`
	IntervalSeconds     int    `yaml:"interval_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoadFromFile 从文件加载配置
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&config)

	return &config, nil
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:              getEnvInt("HTTP_PORT", 8080),
			GRPCPort:              getEnvInt("GRPC_PORT", 9090),
			Host:                  getEnv("HOST", "0.0.0.0"),
			RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 3306),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "alerting.db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses:       getEnvSlice("ES_ADDRESSES", []string{"http://localhost:9200"}),
			Username:        getEnv("ES_USERNAME", ""),
			Password:        getEnv("ES_PASSWORD", ""),
			AlertIndex:      getEnv("ES_ALERT_INDEX", ""),
			MonitorIndex:    getEnv("ES_MONITOR_INDEX", ""),
			AlertingAPIPath: getEnv("ES_ALERTING_API_PATH", ""),
		},
		MonitorStore: MonitorStoreConfig{
			Backend: getEnv("MONITOR_STORE", "database"),
		},
		Fleet: FleetConfig{
			MaxMonitors:          getEnvInt("FLEET_MAX_MONITORS", 1000),
			DefaultSortField:     getEnv("FLEET_SORT_FIELD", "name"),
			DefaultSortDirection: getEnv("FLEET_SORT_DIRECTION", "desc"),
		},
		Breaker: BreakerConfig{
			MaxRequests:         uint32(getEnvInt("BREAKER_MAX_REQUESTS", 3)),
			IntervalSeconds:     getEnvInt("BREAKER_INTERVAL", 5),
			TimeoutSeconds:      getEnvInt("BREAKER_TIMEOUT", 30),
			ConsecutiveFailures: uint32(getEnvInt("BREAKER_FAILURES", 5)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: float64(getEnvInt("RATE_LIMIT_RPS", 100)),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 200),
		},
	}
	setDefaults(cfg)
	return cfg
}

// setDefaults 设置默认值
func setDefaults(config *Config) {
	if config.Server.HTTPPort == 0 {
		config.Server.HTTPPort = 8080
	}
	if config.Server.GRPCPort == 0 {
		config.Server.GRPCPort = 9090
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.RequestTimeoutSeconds == 0 {
		config.Server.RequestTimeoutSeconds = 30
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite"
	}
	if config.Database.DBName == "" {
		config.Database.DBName = "alerting.db"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Output == "" {
		config.Logger.Output = "stdout"
	}
	if len(config.Elasticsearch.Addresses) == 0 {
		config.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if config.Elasticsearch.AlertIndex == "" {
		config.Elasticsearch.AlertIndex = ".opendistro-alerting-alert*"
	}
	if config.Elasticsearch.MonitorIndex == "" {
		config.Elasticsearch.MonitorIndex = ".opendistro-alerting-config"
	}
	if config.Elasticsearch.AlertingAPIPath == "" {
		config.Elasticsearch.AlertingAPIPath = "/_opendistro/_alerting"
	}
	if config.MonitorStore.Backend == "" {
		config.MonitorStore.Backend = "database"
	}
	if config.Fleet.MaxMonitors == 0 {
		config.Fleet.MaxMonitors = 1000
	}
	if config.Fleet.DefaultSortField == "" {
		config.Fleet.DefaultSortField = "name"
	}
	if config.Fleet.DefaultSortDirection == "" {
		config.Fleet.DefaultSortDirection = "desc"
	}
	if config.Breaker.MaxRequests == 0 {
		config.Breaker.MaxRequests = 3
	}
	if config.Breaker.IntervalSeconds == 0 {
		config.Breaker.IntervalSeconds = 5
	}
	if config.Breaker.TimeoutSeconds == 0 {
		config.Breaker.TimeoutSeconds = 30
	}
	if config.Breaker.ConsecutiveFailures == 0 {
		config.Breaker.ConsecutiveFailures = 5
	}
	if config.RateLimit.RequestsPerSecond == 0 {
		config.RateLimit.RequestsPerSecond = 100
	}
	if config.RateLimit.Burst == 0 {
		config.RateLimit.Burst = 200
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var intVal int
		if _, err := fmt.Sscanf(val, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		var result []string
		for _, part := range strings.Split(val, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultVal
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 1 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}
	if c.Server.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request timeout must be at least 1 second")
	}

	validDrivers := map[string]bool{
		"sqlite":   true,
		"mysql":    true,
		"postgres": true,
	}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}
	if c.Database.Driver != "sqlite" {
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty for %s", c.Database.Driver)
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user cannot be empty for %s", c.Database.Driver)
		}
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logger.Level)
	}

	if len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch addresses cannot be empty")
	}

	switch c.MonitorStore.Backend {
	case "database", "elasticsearch":
	default:
		return fmt.Errorf("invalid monitor store backend: %s", c.MonitorStore.Backend)
	}

	if c.Fleet.MaxMonitors < 1 {
		return fmt.Errorf("fleet max monitors must be at least 1")
	}
	validSortFields := map[string]bool{
		"name":                 true,
		"active":               true,
		"acknowledged":         true,
		"errors":               true,
		"ignored":              true,
		"lastNotificationTime": true,
	}
	if !validSortFields[c.Fleet.DefaultSortField] {
		return fmt.Errorf("invalid fleet default sort field: %s", c.Fleet.DefaultSortField)
	}
	switch c.Fleet.DefaultSortDirection {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid fleet default sort direction: %s", c.Fleet.DefaultSortDirection)
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}
