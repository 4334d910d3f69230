package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration from .env files and environment.
type Config struct {
	HTTPPort string
	LogLevel string

	StoreDriver string // postgres or memory
	DatabaseURL string
	DBPoolSize  int

	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds

	NotifyRelay        string // local, redis or kafka
	RedisNotifyChannel string
	KafkaBrokers       []string
	KafkaNotifyTopic   string
	KafkaPartitions    int

	WSSendBuffer int
	CORSOrigins  []string

	JWTSecret string
	JWTTTL    time.Duration
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	RelayLocal = "local"
	RelayRedis = "redis"
	RelayKafka = "kafka"
)

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once).
func Get() *Config {
	cfgOnce.Do(func() {
		loadEnvFiles()
		cfg = Load()
	})
	return cfg
}

// Load builds a Config from the current environment. It does not read .env files.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		HTTPPort:           v.GetString("HTTP_PORT"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DBPoolSize:         positive(v.GetInt("DB_POOL_SIZE"), 20),
		RedisURL:           v.GetString("REDIS_URL"),
		RedisPoolSize:      positive(v.GetInt("REDIS_POOL_SIZE"), 50),
		CacheTTL:           positive(v.GetInt("CACHE_TTL_SEC"), 300),
		NotifyRelay:        strings.ToLower(v.GetString("NOTIFY_RELAY")),
		RedisNotifyChannel: v.GetString("REDIS_NOTIFY_CHANNEL"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaNotifyTopic:   v.GetString("KAFKA_NOTIFY_TOPIC"),
		KafkaPartitions:    positive(v.GetInt("KAFKA_PARTITIONS"), 4),
		WSSendBuffer:       positive(v.GetInt("WS_SEND_BUFFER"), 64),
		CORSOrigins:        splitList(v.GetString("CORS_ORIGINS")),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTTTL:             v.GetDuration("JWT_TTL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_POOL_SIZE", 20)
	v.SetDefault("REDIS_POOL_SIZE", 50)
	v.SetDefault("CACHE_TTL_SEC", 300)
	v.SetDefault("NOTIFY_RELAY", RelayLocal)
	v.SetDefault("REDIS_NOTIFY_CHANNEL", "todo-notifications")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_NOTIFY_TOPIC", "todo-notifications")
	v.SetDefault("KAFKA_PARTITIONS", 4)
	v.SetDefault("WS_SEND_BUFFER", 64)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("JWT_TTL", 24*time.Hour)
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// environment win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
