package httpapi

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/hakkalearn/hakka-news-backend/internal/audiocache"
	"github.com/hakkalearn/hakka-news-backend/internal/config"
	"github.com/hakkalearn/hakka-news-backend/internal/course"
	"github.com/hakkalearn/hakka-news-backend/internal/history"
	"github.com/hakkalearn/hakka-news-backend/internal/janitor"
	"github.com/hakkalearn/hakka-news-backend/internal/news"
	"github.com/hakkalearn/hakka-news-backend/internal/synthesis"
	"github.com/hakkalearn/hakka-news-backend/internal/translate"
)

// synthesizer is the single-utterance surface /api/tts needs.
type synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Server struct {
	scraper  *news.Scraper
	pipeline *synthesis.Pipeline
	hakka    synthesizer
	cache    *audiocache.Cache
	dirs     config.DirConfig

	translator *translate.Client
	courses    *course.Generator
	store      *history.Store
	sweeper    *janitor.Janitor
	readingTag language.Tag

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithTranslator(client *translate.Client) Option {
	return func(s *Server) {
		s.translator = client
	}
}

func WithCourseGenerator(gen *course.Generator) Option {
	return func(s *Server) {
		s.courses = gen
	}
}

func WithHistory(store *history.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

func WithJanitor(j *janitor.Janitor) Option {
	return func(s *Server) {
		s.sweeper = j
	}
}

// WithReadingLanguage tags history records with the reading language.
func WithReadingLanguage(tag language.Tag) Option {
	return func(s *Server) {
		s.readingTag = tag
	}
}

func NewServer(scraper *news.Scraper, pipeline *synthesis.Pipeline, hakka synthesizer, cache *audiocache.Cache, dirs config.DirConfig, opts ...Option) *Server {
	s := &Server{
		scraper:    scraper,
		pipeline:   pipeline,
		hakka:      hakka,
		cache:      cache,
		dirs:       dirs,
		readingTag: language.Und,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Handler wraps the mux with the permissive CORS layer the frontend
// development servers rely on.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/news", s.handleNews)
	s.mux.HandleFunc("/api/audio", s.handleAudio)
	s.mux.HandleFunc("/api/tts", s.handleTTS)
	s.mux.HandleFunc("/api/translate", s.handleTranslate)
	s.mux.HandleFunc("/api/translate/batch", s.handleTranslateBatch)
	s.mux.HandleFunc("/api/translate/course", s.handleTranslateCourse)
	s.mux.HandleFunc("/api/translate/files", s.handleTranslationFiles)
	s.mux.HandleFunc("/api/translate/files/", s.handleTranslationFile)
	s.mux.HandleFunc("/api/course/generate", s.handleCourseGenerate)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/history/", s.handleHistoryItem)
	s.mux.HandleFunc("/api/cleanup", s.handleCleanup)
	s.mux.HandleFunc("/", s.handleRoot)

	s.mux.Handle("/output/", http.StripPrefix("/output/",
		http.FileServer(http.Dir(s.dirs.Output))))
	s.mux.Handle("/tts_audio/", http.StripPrefix("/tts_audio/",
		http.FileServer(http.Dir(s.dirs.TTSAudio))))
	s.mux.Handle("/temp_audio/", http.StripPrefix("/temp_audio/",
		http.FileServer(http.Dir(s.dirs.TempAudio))))
}

// withCORS allows any origin. The API is consumed by a separately hosted
// learning frontend, so the browser always preflights.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
