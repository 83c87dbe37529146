package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikolajSankovDev/zyron/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 15, cfg.Booking.SlotIntervalMinutes)
	assert.Equal(t, 5*time.Second, cfg.Booking.Timeout)
	assert.True(t, cfg.Booking.EnforceWorkingHours)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("BOOKING_TIMEOUT", "750ms")
	t.Setenv("BOOKING_SLOT_INTERVAL_MINUTES", "30")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Booking.Timeout)
	assert.Equal(t, 30, cfg.Booking.SlotIntervalMinutes)
	assert.Equal(t, "k1:9092,k2:9092", cfg.Notify.KafkaBrokers)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("BOOKING_SLOT_INTERVAL_MINUTES", "0")

	_, err := config.Load()
	assert.Error(t, err)
}
