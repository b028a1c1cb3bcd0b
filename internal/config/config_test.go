package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"TILL_INPUT", "TILL_SEED", "TILL_LENIENT", "MYSQL_DSN", "REDIS_ADDR", "JOURNAL_QUEUE_SIZE"} {
		t.Setenv(key, "")
	}
	t.Setenv("TILL_INPUT", "input.txt")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "input.txt", cfg.InputPath)
	assert.Equal(t, "R", cfg.CurrencySymbol)
	assert.False(t, cfg.Lenient)
	assert.Equal(t, 1000, cfg.JournalQueueSize)
	assert.False(t, cfg.JournalEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TILL_INPUT", "/data/tx.txt")
	t.Setenv("TILL_LENIENT", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JOURNAL_QUEUE_SIZE", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/data/tx.txt", cfg.InputPath)
	assert.True(t, cfg.Lenient)
	assert.Equal(t, 50, cfg.JournalQueueSize)
	assert.True(t, cfg.JournalEnabled())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("TILL_LENIENT", "sometimes")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "TILL_LENIENT")

	t.Setenv("TILL_LENIENT", "")
	t.Setenv("JOURNAL_QUEUE_SIZE", "0")
	_, err = LoadConfig()
	assert.Error(t, err)
}
