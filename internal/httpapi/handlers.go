package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hakkalearn/hakka-news-backend/internal/audiocache"
	"github.com/hakkalearn/hakka-news-backend/internal/course"
	"github.com/hakkalearn/hakka-news-backend/internal/history"
	"github.com/hakkalearn/hakka-news-backend/internal/news"
	"github.com/hakkalearn/hakka-news-backend/pkg/file"
	"github.com/hakkalearn/hakka-news-backend/pkg/log"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":         "hakka-news-backend",
		"translation_api": s.translator != nil,
		"tts_api":         "hakka",
	})
}

type newsResponse struct {
	News []string  `json:"news"`
	Item news.Item `json:"item"`
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// A fresh article invalidates the per-segment scratch files of the
	// previous one.
	if err := file.ClearFolder(s.dirs.TempAudio); err != nil {
		log.Warn("Failed to clear %s: %v", s.dirs.TempAudio, err)
	}

	item, err := s.scraper.Fetch(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newsResponse{
		News: item.Content(),
		Item: item,
	})
}

type audioResponse struct {
	Status         string  `json:"status"`
	AudioURL       *string `json:"audio_url"`
	Subtitles      any     `json:"subtitles"`
	TotalSegments  int     `json:"total_segments"`
	FailedSegments int     `json:"failed_segments"`
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	paragraphs, err := news.LoadSaved(s.dirs.TempAudio)
	if err != nil {
		writeError(w, http.StatusNotFound, "no article fetched yet: call /api/news first")
		return
	}

	result, err := s.pipeline.Generate(r.Context(), paragraphs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := audioResponse{
		Status:         result.Status,
		Subtitles:      result.Blocks,
		TotalSegments:  result.TotalSegments,
		FailedSegments: result.FailedSegments,
	}
	if result.AudioPath != "" {
		audioURL := "/output/" + url.PathEscape(filepath.Base(result.AudioPath))
		resp.AudioURL = &audioURL
	}

	if s.store != nil {
		if _, err := s.store.Insert(r.Context(), history.Record{
			Title:          paragraphs[0],
			Language:       s.readingTag,
			AudioPath:      result.AudioPath,
			SubtitlePath:   result.SidecarPath,
			Status:         result.Status,
			TotalSegments:  result.TotalSegments,
			FailedSegments: result.FailedSegments,
		}); err != nil {
			log.Warn("Failed to record reading history: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type ttsRequest struct {
	Text      string `json:"text"`
	VoiceType string `json:"voice_type"`
}

type ttsResponse struct {
	Success      bool   `json:"success"`
	AudioURL     string `json:"audio_url,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleTTS synthesizes one utterance on demand and serves it from the
// tts_audio directory, going through the content-hash cache first.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req := ttsRequest{VoiceType: "hakka"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeJSON(w, http.StatusOK, ttsResponse{Success: false, ErrorMessage: "Text cannot be empty"})
		return
	}
	if req.VoiceType != "hakka" {
		writeJSON(w, http.StatusOK, ttsResponse{Success: false, ErrorMessage: "Only 'hakka' voice type is supported"})
		return
	}

	key := audiocache.Key(text)
	if entry, ok := s.cache.Lookup(key); ok {
		writeJSON(w, http.StatusOK, ttsResponse{
			Success:  true,
			AudioURL: "/tts_audio/" + url.PathEscape(filepath.Base(entry.FilePath)),
			FilePath: entry.FilePath,
		})
		return
	}

	audio, err := s.hakka.Synthesize(r.Context(), text)
	if err != nil {
		writeJSON(w, http.StatusOK, ttsResponse{Success: false, ErrorMessage: "Hakka TTS failed: " + err.Error()})
		return
	}

	filename := "tts_" + file.SafeSlug(text, 30) + "_" +
		strconv.FormatInt(time.Now().UnixMilli(), 10) + ".wav"
	outPath := filepath.Join(s.dirs.TTSAudio, filename)
	if err := os.MkdirAll(s.dirs.TTSAudio, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.cache.Insert(key, text, outPath); err != nil {
		log.Warn("Failed to record %s in the audio cache: %v", outPath, err)
	}

	writeJSON(w, http.StatusOK, ttsResponse{
		Success:  true,
		AudioURL: "/tts_audio/" + url.PathEscape(filename),
		FilePath: outPath,
	})
}

type translateRequestBody struct {
	Text  string `json:"text"`
	Index string `json:"index"`
}

type translateResponseBody struct {
	Success           bool            `json:"success"`
	OriginalText      string          `json:"original_text"`
	TranslationResult json.RawMessage `json:"translation_result,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	FilePath          string          `json:"file_path,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.translator == nil {
		writeError(w, http.StatusNotImplemented, "translation service is not configured")
		return
	}

	req := translateRequestBody{Index: "default"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := file.ClearFolder(s.dirs.TempTrans); err != nil {
		log.Warn("Failed to clear %s: %v", s.dirs.TempTrans, err)
	}

	result, err := s.translator.Translate(r.Context(), req.Text, req.Index)
	if err != nil {
		writeJSON(w, http.StatusOK, translateResponseBody{
			Success:      false,
			OriginalText: req.Text,
			ErrorMessage: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, translateResponseBody{
		Success:           true,
		OriginalText:      req.Text,
		TranslationResult: result.Raw,
		FilePath:          result.FilePath,
	})
}

func (s *Server) handleTranslateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.translator == nil {
		writeError(w, http.StatusNotImplemented, "translation service is not configured")
		return
	}

	var texts []string
	if err := json.NewDecoder(r.Body).Decode(&texts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := file.ClearFolder(s.dirs.TempTrans); err != nil {
		log.Warn("Failed to clear %s: %v", s.dirs.TempTrans, err)
	}

	writeJSON(w, http.StatusOK, s.translator.TranslateBatch(r.Context(), texts))
}

type courseTranslateRequest struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

type courseTranslateResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// handleTranslateCourse translates course chapters, which arrive as
// Markdown and must come back as Markdown.
func (s *Server) handleTranslateCourse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.translator == nil {
		writeError(w, http.StatusNotImplemented, "translation service is not configured")
		return
	}

	var req courseTranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	translated, err := s.translator.TranslateMarkdown(r.Context(), req.Text, strconv.Itoa(req.Index))
	if err != nil {
		writeJSON(w, http.StatusOK, courseTranslateResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, courseTranslateResponse{
		Success:        true,
		TranslatedText: translated,
	})
}

func (s *Server) handleTranslationFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := file.ClearFolder(s.dirs.TempTrans); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Translation files cleared successfully",
	})
}

func (s *Server) handleTranslationFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	index := strings.TrimPrefix(r.URL.Path, "/api/translate/files/")
	if index == "" || strings.ContainsAny(index, "/\\") || strings.Contains(index, "..") {
		writeError(w, http.StatusBadRequest, "invalid translation index")
		return
	}

	path := filepath.Join(s.dirs.TempTrans, "translation_"+index+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "translation file not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleCourseGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.courses == nil {
		writeError(w, http.StatusNotImplemented, "course generation is not configured")
		return
	}

	var req course.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	writeJSON(w, http.StatusOK, s.courses.Generate(r.Context(), req))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "history store is not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "history store is not configured")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing history id")
		return
	}

	record, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "history record not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.sweeper == nil {
		writeError(w, http.StatusNotImplemented, "cleanup is not configured")
		return
	}

	report := s.sweeper.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"report":   report,
		"next_run": s.sweeper.NextRun(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
