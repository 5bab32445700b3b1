package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 40*time.Millisecond, cfg.LockRetryDelay)
	assert.Equal(t, 2*time.Second, cfg.DebounceWindow)
	assert.Equal(t, 4096, cfg.DedupCacheSize)
	assert.Equal(t, "TMS!A1", cfg.SheetRange)
	assert.Empty(t, cfg.AllowedChatIDs)
}

func TestLoadAllowedChatIDs(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ALLOWED_CHAT_IDS", "100, 200,  -300")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, -300}, cfg.AllowedChatIDs)

	t.Setenv("ALLOWED_CHAT_IDS", "100,bogus")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("LOCK_TTL", "not-a-duration")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
}
