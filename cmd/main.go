package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hakkalearn/hakka-news-backend/internal/audiocache"
	"github.com/hakkalearn/hakka-news-backend/internal/config"
	"github.com/hakkalearn/hakka-news-backend/internal/course"
	"github.com/hakkalearn/hakka-news-backend/internal/history"
	"github.com/hakkalearn/hakka-news-backend/internal/httpapi"
	"github.com/hakkalearn/hakka-news-backend/internal/janitor"
	"github.com/hakkalearn/hakka-news-backend/internal/news"
	"github.com/hakkalearn/hakka-news-backend/internal/synthesis"
	"github.com/hakkalearn/hakka-news-backend/internal/translate"
	"github.com/hakkalearn/hakka-news-backend/internal/tts"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

// unavailableSynth stands in for a backend whose credentials or URL were
// not configured. The dispatcher already degrades per segment on error, so
// the server can still start and serve everything else.
type unavailableSynth struct {
	name string
}

func (u unavailableSynth) Synthesize(context.Context, string) ([]byte, error) {
	return nil, fmt.Errorf("%s TTS backend is not configured", u.name)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to load .env: %v", err)
	}
	log.InitLogger(log.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	for _, dir := range cfg.Dirs.All() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("Failed to create %s: %v", dir, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.History.DBPath), 0o755); err != nil {
		log.Fatal("Failed to create database directory: %v", err)
	}

	cache := audiocache.Load(filepath.Join(cfg.Dirs.TTSAudio, "audio_cache.json"))

	var hakka tts.Synthesizer
	hakkaClient, err := tts.NewHakkaClient(tts.HakkaConfig{
		BaseURL:  cfg.TTS.HakkaBaseURL,
		TTSURL:   cfg.TTS.HakkaTTSURL,
		Username: cfg.TTS.HakkaUsername,
		Password: cfg.TTS.HakkaPassword,
		Timeout:  cfg.TTS.Timeout,
	})
	if err != nil {
		log.Warn("Hakka TTS disabled: %v", err)
		hakka = unavailableSynth{name: "hakka"}
	} else {
		hakka = hakkaClient
	}

	var generic tts.Synthesizer
	genericClient, err := tts.NewGenericClient(tts.GenericConfig{
		URL:      cfg.TTS.GenericURL,
		Language: cfg.TTS.GenericLang,
		Timeout:  cfg.TTS.Timeout,
	})
	if err != nil {
		log.Warn("Generic TTS disabled: %v", err)
		generic = unavailableSynth{name: "generic"}
	} else {
		generic = genericClient
	}

	dispatcher := synthesis.NewDispatcher(hakka, generic, cache, cfg.Dirs.TempAudio, cfg.TTS.Concurrency)
	pipeline := synthesis.NewPipeline(dispatcher, cfg.Dirs.Output)

	scraper := news.NewScraper(news.Config{
		ListURL: cfg.News.ListURL,
		Timeout: cfg.News.Timeout,
		TempDir: cfg.Dirs.TempAudio,
	})

	opts := []httpapi.Option{
		httpapi.WithReadingLanguage(cfg.Translate.TargetLanguage),
	}

	translator, err := translate.NewClient(translate.Config{
		LoginURL:     cfg.Translate.LoginURL,
		TranslateURL: cfg.Translate.TranslateURL,
		Username:     cfg.Translate.Username,
		Password:     cfg.Translate.Password,
		Timeout:      cfg.Translate.Timeout,
		OutputDir:    cfg.Dirs.TempTrans,
	})
	if err != nil {
		log.Warn("Translation disabled: %v", err)
	} else {
		opts = append(opts, httpapi.WithTranslator(translator))
	}

	opts = append(opts, httpapi.WithCourseGenerator(
		course.NewGenerator(cfg.Course.WebhookURL, cfg.Course.Timeout)))

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.Fatal("Failed to open history store at %s: %v", cfg.History.DBPath, err)
	}
	defer store.Close()
	opts = append(opts, httpapi.WithHistory(store))

	sweeper, err := janitor.New(
		cfg.Janitor.CronExpr,
		cfg.Dirs.All(),
		time.Duration(cfg.Janitor.MaxAgeHours)*time.Hour,
		store,
	)
	if err != nil {
		log.Fatal("Failed to schedule cleanup: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()
	opts = append(opts, httpapi.WithJanitor(sweeper))

	server := httpapi.NewServer(scraper, pipeline, hakka, cache, cfg.Dirs, opts...)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.HTTP.Addr)
		errCh <- server.ListenAndServe(cfg.HTTP.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal("Server failed: %v", err)
	case sig := <-stop:
		log.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Shutdown did not finish cleanly: %v", err)
	}
}
