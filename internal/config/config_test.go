package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.TTS.Concurrency)
	assert.Equal(t, "en", cfg.TTS.GenericLang)
	assert.Equal(t, language.Chinese, cfg.Translate.TargetLanguage)
	assert.Equal(t, "output", cfg.Dirs.Output)
	assert.Equal(t, "0 3 * * *", cfg.Janitor.CronExpr)
	assert.Equal(t, 72, cfg.Janitor.MaxAgeHours)
	assert.Len(t, cfg.Dirs.All(), 4)
}

func TestNewFromEnv_ReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("HAKKA_TTS_USERNAME", "speaker")
	t.Setenv("TTS_CONCURRENCY", "5")
	t.Setenv("TARGET_LANGUAGE", "en")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "speaker", cfg.TTS.HakkaUsername)
	assert.Equal(t, 5, cfg.TTS.Concurrency)
	assert.Equal(t, language.English, cfg.Translate.TargetLanguage)
}

func TestNewFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TTS_CONCURRENCY", "not-a-number")
	t.Setenv("TARGET_LANGUAGE", "not a tag!!")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TTS.Concurrency)
	assert.Equal(t, language.Chinese, cfg.Translate.TargetLanguage)
}

func TestNewFromEnv_RejectsBadCron(t *testing.T) {
	t.Setenv("CLEANUP_CRON", "every other tuesday")

	_, err := NewFromEnv()
	require.Error(t, err)
}

func TestNewFromEnv_Options(t *testing.T) {
	cfg, err := NewFromEnv(func(c *Config) {
		c.Course.WebhookURL = "https://hooks.example.com/course"
	})
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/course", cfg.Course.WebhookURL)
}
