package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values. Sensitive data
// has no in-code defaults and must come from the config file or the
// environment.
type AppConfig struct {
	AppPort            string
	GinMode            string
	JWTSecret          string
	AllowedOrigins     []string
	RateLimitPerMinute int

	// Check-in persistence
	StorageBackend string // memory | file | redis | mysql
	StorageFile    string
	StorageKey     string

	// Summary generation
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	OpenAIMaxTokens    int
	OpenAITemperature  float64
	OpenAITimeoutSec   int
	SummaryAsync       bool
	SummaryQueueDepth  int

	// Articles content API
	ArticlesBaseURL     string
	ArticlesAPIKey      string
	ArticlesRefreshDays int

	// MySQL (storage backend "mysql")
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis (storage backend "redis" and article cache)
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. Precedence: config/config.json,
// then defaults for anything unset, then environment variable overrides.
// It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	_ = loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Tests only.
func SetForTesting(c AppConfig) {
	cfg = c
	loaded = true
}

// loadJSONConfig reads the JSON file into out if present. Returns an error
// only for invalid JSON; a missing file is silently ignored.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	section := func(name string) map[string]any {
		if m, ok := raw[name].(map[string]any); ok {
			return m
		}
		return nil
	}

	if app := section("app"); app != nil {
		out.AppPort = getString(app, "AppPort")
		out.GinMode = getString(app, "GinMode")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getInt(app, "RateLimitPerMinute"); v != 0 {
			out.RateLimitPerMinute = v
		}
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if st := section("storage"); st != nil {
		out.StorageBackend = getString(st, "Backend")
		out.StorageFile = getString(st, "File")
		out.StorageKey = getString(st, "Key")
	}

	if oa := section("openai"); oa != nil {
		out.OpenAIAPIKey = getString(oa, "APIKey")
		out.OpenAIBaseURL = getString(oa, "BaseURL")
		out.OpenAIModel = getString(oa, "Model")
		if v := getInt(oa, "MaxTokens"); v != 0 {
			out.OpenAIMaxTokens = v
		}
		if v := getFloat(oa, "Temperature"); v != 0 {
			out.OpenAITemperature = v
		}
		if v := getInt(oa, "TimeoutSec"); v != 0 {
			out.OpenAITimeoutSec = v
		}
		out.SummaryAsync = getBool(oa, "SummaryAsync")
		if v := getInt(oa, "SummaryQueueDepth"); v != 0 {
			out.SummaryQueueDepth = v
		}
	}

	if ar := section("articles"); ar != nil {
		out.ArticlesBaseURL = getString(ar, "BaseURL")
		out.ArticlesAPIKey = getString(ar, "APIKey")
		if v := getInt(ar, "RefreshDays"); v != 0 {
			out.ArticlesRefreshDays = v
		}
	}

	if dbs := section("database"); dbs != nil {
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
	}

	if rds := section("redis"); rds != nil {
		out.RedisHost = getString(rds, "RedisHost")
		if v := getInt(rds, "RedisPort"); v != 0 {
			out.RedisPort = v
		}
		if v := getInt(rds, "RedisDB"); v != 0 {
			out.RedisDB = v
		}
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg := section("log"); lg != nil {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		if v := getInt(lg, "MaxSizeMB"); v != 0 {
			out.LogMaxSizeMB = v
		}
		if v := getInt(lg, "MaxBackups"); v != 0 {
			out.LogMaxBackups = v
		}
		if v := getInt(lg, "MaxAgeDays"); v != 0 {
			out.LogMaxAgeDays = v
		}
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]any, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case json.Number:
			i, _ := t.Int64()
			return int(i)
		}
	}
	return 0
}

func getFloat(m map[string]any, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}

func getBool(m map[string]any, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func getStringSlice(m map[string]any, key string) []string {
	if v, ok := m[key]; ok {
		if arr, ok := v.([]any); ok {
			res := make([]string, 0, len(arr))
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res = append(res, s)
				}
			}
			return res
		}
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "file"
	}
	if c.StorageFile == "" {
		c.StorageFile = "data/checkins.json"
	}
	if c.StorageKey == "" {
		c.StorageKey = "wise_sobriety_checkins"
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-3.5-turbo"
	}
	if c.OpenAIMaxTokens == 0 {
		c.OpenAIMaxTokens = 350
	}
	if c.OpenAITemperature == 0 {
		c.OpenAITemperature = 0.7
	}
	if c.OpenAITimeoutSec == 0 {
		c.OpenAITimeoutSec = 30
	}
	if c.SummaryQueueDepth == 0 {
		c.SummaryQueueDepth = 64
	}
	if c.ArticlesRefreshDays == 0 {
		c.ArticlesRefreshDays = 7
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "wisesober"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values
// when present.
func applyEnvOverrides(c *AppConfig) {
	setStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			*dst = mustParseInt(key, v)
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true"
		}
	}

	setStr("APP_PORT", &c.AppPort)
	setStr("GIN_MODE", &c.GinMode)
	setStr("JWT_SECRET", &c.JWTSecret)
	setInt("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}

	setStr("STORAGE_BACKEND", &c.StorageBackend)
	setStr("STORAGE_FILE", &c.StorageFile)
	setStr("STORAGE_KEY", &c.StorageKey)

	setStr("OPENAI_API_KEY", &c.OpenAIAPIKey)
	setStr("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	setStr("OPENAI_MODEL", &c.OpenAIModel)
	setInt("OPENAI_MAX_TOKENS", &c.OpenAIMaxTokens)
	setInt("OPENAI_TIMEOUT_SEC", &c.OpenAITimeoutSec)
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("invalid float value OPENAI_TEMPERATURE=%s: %v", v, err)
		}
		c.OpenAITemperature = f
	}
	setBool("SUMMARY_ASYNC", &c.SummaryAsync)
	setInt("SUMMARY_QUEUE_DEPTH", &c.SummaryQueueDepth)

	setStr("ARTICLES_BASE_URL", &c.ArticlesBaseURL)
	setStr("ARTICLES_API_KEY", &c.ArticlesAPIKey)
	setInt("ARTICLES_REFRESH_DAYS", &c.ArticlesRefreshDays)

	setStr("DATABASE_URI", &c.DatabaseURI)
	setStr("DB_HOST", &c.DBHost)
	setStr("DB_PORT", &c.DBPort)
	setStr("DB_USER", &c.DBUser)
	setStr("DB_PASSWORD", &c.DBPassword)
	setStr("DB_NAME", &c.DBName)

	setStr("REDIS_HOST", &c.RedisHost)
	setInt("REDIS_PORT", &c.RedisPort)
	setInt("REDIS_DB", &c.RedisDB)
	setStr("REDIS_PASSWORD", &c.RedisPassword)

	setStr("LOG_LEVEL", &c.LogLevel)
	setStr("LOG_PATH", &c.LogPath)
	setInt("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	setInt("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	setInt("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	setBool("LOG_COMPRESS", &c.LogCompress)
}

func mustParseInt(key, val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s=%s: %v", key, val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
