package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/imagegen"
	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/lesson"
	"github.com/edumagic/edumagic/internal/store"
)

type ctxKey int

const userIDKey ctxKey = 0

// requireUser extracts the student id from the X-User-ID header. The header
// is set by the frontend's auth proxy; requests without it are rejected.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth responds with a simple JSON status indicating the server
// is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Lesson generation
// ---------------------------------------------------------------------------

type generateLessonRequest struct {
	Topic    string `json:"topic"`
	Level    string `json:"level"`
	Language string `json:"language"`
}

// handleGenerateLesson handles POST /api/ai. It runs the full fallback chain
// and persists the resulting lesson before responding.
func (s *Server) handleGenerateLesson(w http.ResponseWriter, r *http.Request) {
	var req generateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	level := string(lesson.NormalizeLevel(req.Level))
	language := req.Language
	if language == "" {
		language = "English"
	}

	content, providerName, err := s.generator.GenerateLesson(r.Context(), req.Topic, level, language)
	if err != nil {
		log.Errorf("[server] lesson generation failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	row, err := s.store.CreateLesson(r.Context(), userID(r), req.Topic, level, language, providerName, content)
	if err != nil {
		log.Errorf("[server] saving lesson failed: %v", err)
		writeError(w, http.StatusInternalServerError, "saving lesson failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":       row.ID,
		"topic":    row.Topic,
		"level":    row.Level,
		"language": row.Language,
		"provider": providerName,
		"content":  content,
	})
}

// ---------------------------------------------------------------------------
// Chat assistant
// ---------------------------------------------------------------------------

type chatRequest struct {
	Text string `json:"text"`
}

// handleChat handles POST /api/ai/chat. The assistant degrades internally,
// so this handler never returns a provider error.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply := s.assistant.Explain(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// ---------------------------------------------------------------------------
// Image generation
// ---------------------------------------------------------------------------

type generateImageRequest struct {
	Provider string `json:"provider"`
	Prompt   string `json:"prompt"`
	APIKey   string `json:"apiKey"`
}

// handleGenerateImage handles POST /api/generate-image. The optional apiKey
// field bypasses rotation for a single attempt with that exact credential.
func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Provider == "" {
		req.Provider = imagegen.ProviderChatGPT42
	}

	result, err := s.images.Generate(r.Context(), req.Provider, req.Prompt, req.APIKey)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.Errorf("[server] image generation failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Lessons
// ---------------------------------------------------------------------------

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.LessonsByUser(r.Context(), userID(r))
	if err != nil {
		log.Errorf("[server] listing lessons failed: %v", err)
		writeError(w, http.StatusInternalServerError, "listing lessons failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": rows})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.LessonByID(r.Context(), userID(r), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		log.Errorf("[server] fetching lesson failed: %v", err)
		writeError(w, http.StatusInternalServerError, "fetching lesson failed")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type updateImageRequest struct {
	ImageURL  string `json:"imageUrl"`
	StepIndex *int   `json:"stepIndex"`
	Legacy    bool   `json:"legacy"`
}

// handleUpdateLessonImage handles POST /api/lessons/{id}/update-image.
// A stepIndex of -1 targets the introduction image; legacy switches the
// addressing to the old quizzes array.
func (s *Server) handleUpdateLessonImage(w http.ResponseWriter, r *http.Request) {
	var req updateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}
	if req.StepIndex == nil {
		writeError(w, http.StatusBadRequest, "stepIndex is required")
		return
	}

	row, err := s.store.UpdateLessonImage(r.Context(), userID(r), chi.URLParam(r, "id"), *req.StepIndex, req.Legacy, req.ImageURL)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.ProgressFor(r.Context(), userID(r))
	if err != nil {
		log.Errorf("[server] fetching progress failed: %v", err)
		writeError(w, http.StatusInternalServerError, "fetching progress failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type recordProgressRequest struct {
	LessonID  string `json:"lessonId"`
	QuizScore int    `json:"quizScore"`
}

func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	var req recordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.LessonID == "" {
		writeError(w, http.StatusBadRequest, "lessonId is required")
		return
	}

	result, err := s.store.RecordProgress(r.Context(), userID(r), req.LessonID, req.QuizScore)
	if err != nil {
		log.Errorf("[server] recording progress failed: %v", err)
		writeError(w, http.StatusInternalServerError, "recording progress failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ---------------------------------------------------------------------------
// Key inspection
// ---------------------------------------------------------------------------

// handleListKeys handles GET /api/keys. Every credential is masked; the
// endpoint exists so operators can verify which pools are populated without
// shelling into the container.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	prefixes := []string{
		lesson.GeminiKeyPrefix,
		lesson.OpenAIKeyPrefix,
		imagegen.GPTKeyPrefix,
		imagegen.RapidKeyPrefix,
	}

	pools := make(map[string][]string, len(prefixes))
	for _, prefix := range prefixes {
		pool := s.resolver.Pool(prefix)
		masked := make([]string, len(pool))
		for i, key := range pool {
			masked[i] = keys.Mask(key)
		}
		pools[prefix] = masked
	}

	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}
