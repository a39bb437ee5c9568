package lesson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumagic/edumagic/internal/keys"
)

const lessonJSON = `{
  "introduction": "Let's learn!",
  "steps": [
    {
      "title": "Step one",
      "explanation": "Because.",
      "quiz": {
        "question": "Pick A.",
        "options": ["A", "B", "C", "D"],
        "answer": "A"
      }
    }
  ]
}`

// geminiStub responds like Gemini's generateContent endpoint.
func geminiStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func geminiSuccessBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(b)
}

func openAISuccessBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": text}},
		},
	})
	return string(b)
}

func newGenerator(snap keys.Snapshot, geminiURL, openaiURL string) *Generator {
	rotator := keys.NewRotator(keys.NewResolver(snap))
	return NewGenerator(rotator, http.DefaultClient, GeneratorConfig{
		GeminiBaseURL: geminiURL,
		OpenAIBaseURL: openaiURL,
	})
}

func TestGenerateLessonGeminiFirstTry(t *testing.T) {
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "key=gem-key")
		w.Write([]byte(geminiSuccessBody(lessonJSON)))
	})
	defer srv.Close()

	gen := newGenerator(keys.Snapshot{"GEMINI_API_KEY": "gem-key"}, srv.URL, "http://127.0.0.1:1")

	content, providerName, err := gen.GenerateLesson(context.Background(), "Fractions", "beginner", "English")
	require.NoError(t, err)
	assert.Equal(t, "gemini", providerName)
	assert.Equal(t, "Let's learn!", content.Introduction)
	require.Len(t, content.Steps, 1)
	assert.Equal(t, "A", content.Steps[0].Quiz.Answer)
}

func TestGenerateLessonRotatesGeminiKeys(t *testing.T) {
	var seenKeys []string
	srv := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		seenKeys = append(seenKeys, key)
		if key == "gem-1" {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"quota"}`))
			return
		}
		w.Write([]byte(geminiSuccessBody(lessonJSON)))
	})
	defer srv.Close()

	gen := newGenerator(keys.Snapshot{
		"GEMINI_API_KEY":  "gem-1",
		"GEMINI_API_KEY1": "gem-2",
	}, srv.URL, "http://127.0.0.1:1")

	_, providerName, err := gen.GenerateLesson(context.Background(), "Fractions", "beginner", "English")
	require.NoError(t, err)
	assert.Equal(t, "gemini", providerName)
	assert.Equal(t, []string{"gem-1", "gem-2"}, seenKeys)
}

func TestGenerateLessonFallsBackToOpenAI(t *testing.T) {
	gemini := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer gemini.Close()

	openai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))
		w.Write([]byte(openAISuccessBody(lessonJSON)))
	}))
	defer openai.Close()

	gen := newGenerator(keys.Snapshot{
		"GEMINI_API_KEY": "gem-key",
		"OPENAI_API_KEY": "oa-key",
	}, gemini.URL, openai.URL)

	content, providerName, err := gen.GenerateLesson(context.Background(), "Gravity", "advanced", "English")
	require.NoError(t, err)
	assert.Equal(t, "openai", providerName)
	assert.NotNil(t, content)
}

func TestGenerateLessonInvalidContentTriggersFallback(t *testing.T) {
	// Gemini answers 200 but the quiz answer is not among the options, so
	// the content is rejected and OpenAI takes over.
	badLesson := `{"introduction":"x","steps":[{"title":"t","explanation":"e","quiz":{"question":"q","options":["A","B"],"answer":"Z"}}]}`

	gemini := geminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiSuccessBody(badLesson)))
	})
	defer gemini.Close()

	openai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openAISuccessBody(lessonJSON)))
	}))
	defer openai.Close()

	gen := newGenerator(keys.Snapshot{
		"GEMINI_API_KEY": "gem-key",
		"OPENAI_API_KEY": "oa-key",
	}, gemini.URL, openai.URL)

	_, providerName, err := gen.GenerateLesson(context.Background(), "Gravity", "medium", "English")
	require.NoError(t, err)
	assert.Equal(t, "openai", providerName)
}

func TestGenerateLessonNoCredentialsAnywhere(t *testing.T) {
	gen := newGenerator(keys.Snapshot{}, "http://127.0.0.1:1", "http://127.0.0.1:1")

	_, _, err := gen.GenerateLesson(context.Background(), "Anything", "beginner", "English")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all models and keys exhausted")
	assert.Contains(t, err.Error(), "gemini")
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "no credentials configured")
}

func TestGenerateLessonErrorOmitsCredentials(t *testing.T) {
	const geminiKey = "SECRET-GEMINI-KEY-1234567890"
	const openaiKey = "SECRET-OPENAI-KEY-0987654321"

	gen := newGenerator(keys.Snapshot{
		"GEMINI_API_KEY": geminiKey,
		"OPENAI_API_KEY": openaiKey,
	}, "http://127.0.0.1:1", "http://127.0.0.1:1")

	_, _, err := gen.GenerateLesson(context.Background(), "Anything", "beginner", "English")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), geminiKey)
	assert.NotContains(t, err.Error(), openaiKey)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"chatty prefix", "Here is your lesson:\n{\"a\":1}\nEnjoy!", `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"fences without braces", "```json\nnot json\n```", "not json"},
		{"plain text", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}
