package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Hakka TTS service:
// - HAKKA_TTS_URL_BASE: base URL of the auth endpoint (required for synthesis)
// - HAKKA_TTS_URL_TTS: base URL of the synthesize endpoint (required for synthesis)
// - HAKKA_TTS_USERNAME / HAKKA_TTS_PASSWORD: credentials
// - TTS_TIMEOUT: request timeout in seconds (default: 30)
// - TTS_CONCURRENCY: concurrent synthesis slots (default: 3)
// - GENERIC_TTS_URL: endpoint for Latin-script synthesis
// - GENERIC_TTS_LANG: language code for Latin-script synthesis (default: en)
//
// Translation service:
// - HAKKA_TRANS_URL_BASE: full login endpoint URL (required for translation)
// - HAKKA_TRANS_URL_TRANS: full translate endpoint URL (required for translation)
// - HAKKA_TRANS_USERNAME / HAKKA_TRANS_PASSWORD: credentials
// - TRANS_TIMEOUT: request timeout in seconds (default: 30)
// - TARGET_LANGUAGE: BCP 47 tag of the translation target (default: zh)
//
// Course generation:
// - COURSE_WEBHOOK_URL: chapter-generation webhook (mock chapters when unset)
// - WEBHOOK_TIMEOUT: webhook timeout in seconds (default: 30)
//
// News scraping:
// - NEWS_LIST_URL: news-list page to sample (default: ettoday news list)
// - NEWS_TIMEOUT: fetch timeout in seconds (default: 10)
//
// Server and housekeeping:
// - HTTP_ADDR: listen address (default: :8000)
// - OUTPUT_DIR, TEMP_AUDIO_DIR, TEMP_TRANS_DIR, TTS_AUDIO_DIR: artifact directories
// - HISTORY_DB_PATH: sqlite file for reading history (default: data/history.db)
// - CLEANUP_CRON: janitor schedule (default: 0 3 * * *)
// - CLEANUP_MAX_AGE_HOURS: temp artifact age limit in hours (default: 72)

type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	TTS       TTSConfig       `json:"tts"`
	Translate TranslateConfig `json:"translate"`
	Course    CourseConfig    `json:"course"`
	News      NewsConfig      `json:"news"`
	Dirs      DirConfig       `json:"dirs"`
	History   HistoryConfig   `json:"history"`
	Janitor   JanitorConfig   `json:"janitor"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

// TTSConfig covers both synthesis backends.
type TTSConfig struct {
	HakkaBaseURL  string `json:"hakka_base_url"`
	HakkaTTSURL   string `json:"hakka_tts_url"`
	HakkaUsername string `json:"hakka_username"`
	HakkaPassword string `json:"-"`
	GenericURL    string `json:"generic_url"`
	GenericLang   string `json:"generic_lang"`
	Timeout       int    `json:"timeout"`
	Concurrency   int    `json:"concurrency"`
}

type TranslateConfig struct {
	LoginURL       string       `json:"login_url"`
	TranslateURL   string       `json:"translate_url"`
	Username       string       `json:"username"`
	Password       string       `json:"-"`
	Timeout        int          `json:"timeout"`
	TargetLanguage language.Tag `json:"target_language"`
}

type CourseConfig struct {
	WebhookURL string `json:"webhook_url"`
	Timeout    int    `json:"timeout"`
}

type NewsConfig struct {
	ListURL string `json:"list_url"`
	Timeout int    `json:"timeout"`
}

// DirConfig names the artifact directories. Output holds the final audio
// and subtitle pairs, the temp dirs hold per-segment scratch files.
type DirConfig struct {
	Output    string `json:"output"`
	TempAudio string `json:"temp_audio"`
	TempTrans string `json:"temp_trans"`
	TTSAudio  string `json:"tts_audio"`
}

func (d DirConfig) All() []string {
	return []string{d.Output, d.TempAudio, d.TempTrans, d.TTSAudio}
}

type HistoryConfig struct {
	DBPath string `json:"db_path"`
}

type JanitorConfig struct {
	CronExpr    string `json:"cron_expr"`
	MaxAgeHours int    `json:"max_age_hours"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		HTTP: HTTPConfig{
			Addr: getEnvString("HTTP_ADDR", ":8000"),
		},
		TTS: TTSConfig{
			HakkaBaseURL:  getEnvString("HAKKA_TTS_URL_BASE", ""),
			HakkaTTSURL:   getEnvString("HAKKA_TTS_URL_TTS", ""),
			HakkaUsername: getEnvString("HAKKA_TTS_USERNAME", ""),
			HakkaPassword: getEnvString("HAKKA_TTS_PASSWORD", ""),
			GenericURL:    getEnvString("GENERIC_TTS_URL", ""),
			GenericLang:   getEnvString("GENERIC_TTS_LANG", "en"),
			Timeout:       getEnvInt("TTS_TIMEOUT", 30),
			Concurrency:   getEnvInt("TTS_CONCURRENCY", 3),
		},
		Translate: TranslateConfig{
			LoginURL:       getEnvString("HAKKA_TRANS_URL_BASE", ""),
			TranslateURL:   getEnvString("HAKKA_TRANS_URL_TRANS", ""),
			Username:       getEnvString("HAKKA_TRANS_USERNAME", ""),
			Password:       getEnvString("HAKKA_TRANS_PASSWORD", ""),
			Timeout:        getEnvInt("TRANS_TIMEOUT", 30),
			TargetLanguage: getEnvLanguage("TARGET_LANGUAGE", language.Chinese),
		},
		Course: CourseConfig{
			WebhookURL: getEnvString("COURSE_WEBHOOK_URL", ""),
			Timeout:    getEnvInt("WEBHOOK_TIMEOUT", 30),
		},
		News: NewsConfig{
			ListURL: getEnvString("NEWS_LIST_URL", ""),
			Timeout: getEnvInt("NEWS_TIMEOUT", 10),
		},
		Dirs: DirConfig{
			Output:    getEnvString("OUTPUT_DIR", "output"),
			TempAudio: getEnvString("TEMP_AUDIO_DIR", "temp_audio"),
			TempTrans: getEnvString("TEMP_TRANS_DIR", "temp_trans"),
			TTSAudio:  getEnvString("TTS_AUDIO_DIR", "tts_audio"),
		},
		History: HistoryConfig{
			DBPath: getEnvString("HISTORY_DB_PATH", "data/history.db"),
		},
		Janitor: JanitorConfig{
			CronExpr:    getEnvString("CLEANUP_CRON", "0 3 * * *"),
			MaxAgeHours: getEnvInt("CLEANUP_MAX_AGE_HOURS", 72),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks the values a typo would otherwise only surface at 3am
// when the janitor fires. Missing remote credentials are not fatal here;
// the clients reject them per call so the rest of the API keeps working.
func (c *Config) validate() error {
	if _, err := cron.ParseStandard(c.Janitor.CronExpr); err != nil {
		return fmt.Errorf("invalid CLEANUP_CRON %q: %w", c.Janitor.CronExpr, err)
	}
	if c.TTS.Concurrency <= 0 {
		return fmt.Errorf("TTS_CONCURRENCY must be positive")
	}
	if c.Janitor.MaxAgeHours <= 0 {
		return fmt.Errorf("CLEANUP_MAX_AGE_HOURS must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvLanguage parses a BCP 47 tag from the environment with default
func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
	}
	return defaultValue
}
