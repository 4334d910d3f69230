package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "STORE_DRIVER", "NOTIFY_RELAY", "KAFKA_BROKERS", "CORS_ORIGINS", "JWT_TTL", "WS_SEND_BUFFER"} {
		t.Setenv(k, "")
	}

	c := Load()

	assert.Equal(t, "8080", c.HTTPPort)
	assert.Equal(t, StorePostgres, c.StoreDriver)
	assert.Equal(t, RelayLocal, c.NotifyRelay)
	assert.Equal(t, []string{"localhost:9092"}, c.KafkaBrokers)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, 64, c.WSSendBuffer)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("NOTIFY_RELAY", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("DB_POOL_SIZE", "-3")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("JWT_SECRET", "s3cret")

	c := Load()

	assert.Equal(t, "9090", c.HTTPPort)
	assert.Equal(t, StoreMemory, c.StoreDriver)
	assert.Equal(t, RelayKafka, c.NotifyRelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, 20, c.DBPoolSize)
	assert.Equal(t, 90*time.Minute, c.JWTTTL)
	assert.Equal(t, "s3cret", c.JWTSecret)
}
