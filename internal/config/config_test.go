package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/squabble")
	t.Setenv("REDIS_URL", "")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 60*time.Second, cfg.GameDuration)
	assert.Equal(t, 60, cfg.GameDurationSeconds())
	assert.Equal(t, 1200*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.IsTestnet())
	// без REDIS_URL комнаты живут в памяти процесса
	assert.Empty(t, cfg.RedisURL)
}

func TestParseRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/squabble")

	t.Run("duration", func(t *testing.T) {
		t.Setenv("GAME_DURATION", "500ms")
		_, err := Parse()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("network", func(t *testing.T) {
		t.Setenv("TON_NETWORK", "devnet")
		_, err := Parse()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("not a number", func(t *testing.T) {
		t.Setenv("WS_RATE_BURST", "lots")
		_, err := Parse()
		assert.Error(t, err)
	})
}
