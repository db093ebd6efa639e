package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultGroupKeys merge the site's per-hall listings into one location
// per city or venue complex.
var defaultGroupKeys = []string{
	"Bucuresti",
	"Cluj",
	"Iasi",
	"Timisoara",
	"Brasov",
	"Constanta",
	"Sibiu",
	"Oradea",
}

type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string

	// Site configuration
	BaseURL       string
	LocationsPath string
	GroupKeys     []string
	GroupKeysFile string
	HTTPTimeout   time.Duration
	UserAgent     string
	TimeZone      string

	// Snapshot cache
	CacheBackend   string // "memory" or "redis"
	RedisURL       string
	SnapshotPrefix string

	// Connectivity probe
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration

	// PubNub configuration
	PubNubPublishKey    string
	PubNubSubscribeKey  string
	PubNubSecretKey     string
	PubNubChannelPrefix string

	// Protection
	RateLimitPerMinute  int
	BreakerMaxRequests  int
	BreakerFailureRatio float64
	BreakerTimeout      time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Site
		BaseURL:       strings.TrimRight(getEnv("BASE_URL", "http://biletmaster.ro"), "/"),
		LocationsPath: getEnv("LOCATIONS_PATH", "/ron/AllPlaces/Minden_helyszin"),
		GroupKeys:     getEnvAsList("GROUP_KEYS", defaultGroupKeys),
		GroupKeysFile: getEnv("GROUP_KEYS_FILE", ""),
		HTTPTimeout:   getEnvAsDuration("HTTP_TIMEOUT", "15s"),
		UserAgent:     getEnv("USER_AGENT", "biletmaster/1.0"),
		TimeZone:      getEnv("TIME_ZONE", "Europe/Bucharest"),

		// Snapshot cache
		CacheBackend:   strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		SnapshotPrefix: getEnv("SNAPSHOT_PREFIX", "biletmaster:snapshot:"),

		// Probe
		ProbeInterval: getEnvAsDuration("PROBE_INTERVAL", "10s"),
		ProbeTimeout:  getEnvAsDuration("PROBE_TIMEOUT", "3s"),

		// PubNub
		PubNubPublishKey:    getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey:  getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:     getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubChannelPrefix: getEnv("PUBNUB_CHANNEL_PREFIX", "biletmaster-"),

		// Protection
		RateLimitPerMinute:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		BreakerMaxRequests:  getEnvAsInt("BREAKER_MAX_REQUESTS", 3),
		BreakerFailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerTimeout:      getEnvAsDuration("BREAKER_TIMEOUT", "30s"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// groupKeysFile is the layout of GROUP_KEYS_FILE.
type groupKeysFile struct {
	GroupKeys []string `yaml:"group_keys"`
}

// LoadGroupKeysFile replaces GroupKeys with the list in GroupKeysFile, when
// one is set. Keys keep their file order, which is their priority.
func (c *Config) LoadGroupKeysFile() error {
	if c.GroupKeysFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.GroupKeysFile)
	if err != nil {
		return fmt.Errorf("read group keys: %w", err)
	}
	var f groupKeysFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse group keys %s: %w", c.GroupKeysFile, err)
	}
	keys := make([]string, 0, len(f.GroupKeys))
	for _, k := range f.GroupKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.GroupKeys = keys
	return nil
}

// UseRedis reports whether snapshots go to redis.
func (c *Config) UseRedis() bool { return c.CacheBackend == "redis" }

// PubNubEnabled reports whether sessions are mirrored to PubNub.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return append([]string(nil), defaultValue...)
	}
	return splitCSV(value)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
