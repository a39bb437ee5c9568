package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/metrics"
	"github.com/edumagic/edumagic/internal/provider"
)

// Credential-family prefixes for the text providers.
const (
	GeminiKeyPrefix = "GEMINI_API_KEY"
	OpenAIKeyPrefix = "OPENAI_API_KEY"
)

// GeneratorConfig holds the provider endpoints and models. Zero values fall
// back to the production defaults; tests point the base URLs at local stubs.
type GeneratorConfig struct {
	GeminiBaseURL string
	GeminiModel   string
	OpenAIBaseURL string
	OpenAIModel   string
}

func (c *GeneratorConfig) applyDefaults() {
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = provider.DefaultGeminiBaseURL
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash"
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = provider.DefaultOpenAIBaseURL
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
}

// Generator produces lessons with a Gemini-primary, OpenAI-fallback policy.
// Both families flow through credential rotation; only when every key of
// both families has failed does the caller see an error.
type Generator struct {
	rotator *keys.Rotator
	client  *http.Client
	cfg     GeneratorConfig
}

// NewGenerator creates a lesson Generator.
func NewGenerator(rotator *keys.Rotator, client *http.Client, cfg GeneratorConfig) *Generator {
	cfg.applyDefaults()
	return &Generator{rotator: rotator, client: client, cfg: cfg}
}

// GenerateLesson builds the level-calibrated prompt and runs the fallback
// chain: Gemini with key rotation first, then OpenAI with key rotation. Any
// primary failure, from missing credentials to a JSON parse error on the
// response, triggers the fallback.
// The second return value names the family that produced the lesson.
func (g *Generator) GenerateLesson(ctx context.Context, topic, level, language string) (*Content, string, error) {
	prompt := buildLessonPrompt(topic, level, language)

	content, primaryErr := g.generateVia(ctx, GeminiKeyPrefix, prompt, func(key string) provider.TextProvider {
		return provider.NewGemini(key, g.cfg.GeminiBaseURL, g.cfg.GeminiModel, g.client)
	})
	if primaryErr == nil {
		metrics.LessonsGenerated.WithLabelValues("gemini").Inc()
		return content, "gemini", nil
	}

	log.Warnf("[lesson] gemini generation failed, falling back to openai: %v", primaryErr)

	content, fallbackErr := g.generateVia(ctx, OpenAIKeyPrefix, prompt, func(key string) provider.TextProvider {
		return provider.NewOpenAI(key, g.cfg.OpenAIBaseURL, g.cfg.OpenAIModel, g.client)
	})
	if fallbackErr == nil {
		metrics.LessonsGenerated.WithLabelValues("openai").Inc()
		return content, "openai", nil
	}

	return nil, "", fmt.Errorf("lesson generation failed: all models and keys exhausted (gemini: %v; openai: %v)",
		primaryErr, fallbackErr)
}

// generateVia runs one provider family through rotation. A single attempt is
// call, extract, parse, validate; a failure at any of those stages rotates to
// the next credential.
func (g *Generator) generateVia(ctx context.Context, prefix, prompt string, build func(key string) provider.TextProvider) (*Content, error) {
	return keys.Rotate(ctx, g.rotator, prefix, func(ctx context.Context, key string) (*Content, error) {
		p := build(key)

		start := time.Now()
		raw, err := p.GenerateText(ctx, provider.TextRequest{Prompt: prompt, JSONMode: true})
		metrics.AttemptLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), keys.KindOf(err).String()).Inc()
			return nil, err
		}

		var content Content
		if err := json.Unmarshal([]byte(ExtractJSON(raw)), &content); err != nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), keys.KindInvalidResponse.String()).Inc()
			return nil, keys.InvalidResponse(fmt.Errorf("parsing lesson JSON: %w", err))
		}
		if err := Validate(&content); err != nil {
			metrics.ProviderAttempts.WithLabelValues(p.Name(), keys.KindInvalidResponse.String()).Inc()
			return nil, keys.InvalidResponse(err)
		}

		metrics.ProviderAttempts.WithLabelValues(p.Name(), "success").Inc()
		return &content, nil
	})
}

// ExtractJSON pulls a JSON object out of raw model output. First choice is
// the outermost brace span; when no braces are present it falls back to
// stripping code fences and trimming.
func ExtractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}

	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
