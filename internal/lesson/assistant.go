package lesson

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/provider"
)

// apology is returned whenever the assistant cannot reach any provider.
// Conversational continuity beats surfacing a transport error to a student
// mid-chat.
const apology = "Oops! My magic fizzled for a second. What did you want to know?"

// Assistant is the lightweight chat companion. One provider family, one call
// per message, no fallback chain; a canned apology covers total failure.
type Assistant struct {
	rotator *keys.Rotator
	client  *http.Client
	baseURL string
	model   string
}

// NewAssistant creates the chat assistant on the Gemini family.
func NewAssistant(rotator *keys.Rotator, client *http.Client, baseURL, model string) *Assistant {
	if baseURL == "" {
		baseURL = provider.DefaultGeminiBaseURL
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Assistant{rotator: rotator, client: client, baseURL: baseURL, model: model}
}

// Explain answers a free-form user message in the companion persona. It
// never returns a transport error; when every credential fails the student
// gets the apology string.
func (a *Assistant) Explain(ctx context.Context, text string) string {
	reply, err := keys.Rotate(ctx, a.rotator, GeminiKeyPrefix, func(ctx context.Context, key string) (string, error) {
		p := provider.NewGemini(key, a.baseURL, a.model, a.client)
		return p.GenerateText(ctx, provider.TextRequest{Prompt: assistantPrompt(text)})
	})
	if err != nil {
		log.Errorf("[lesson] assistant call failed: %v", err)
		return apology
	}
	return reply
}
