package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/edumagic/edumagic/internal/keys"
)

// DefaultGeminiBaseURL is the production Gemini REST endpoint.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements TextProvider for Google's Gemini API. It translates a
// TextRequest into Gemini's generateContent format, makes the HTTP call, and
// extracts the candidate text.
type Gemini struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGemini creates a Gemini adapter bound to one credential. The adapter is
// cheap to construct; rotation builds a fresh one per attempt.
func NewGemini(apiKey, baseURL, model string, client *http.Client) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
	}
}

// Name returns the provider identifier.
func (g *Gemini) Name() string {
	return "gemini"
}

// ---------------------------------------------------------------------------
// Gemini API types (unexported)
// ---------------------------------------------------------------------------

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiContent represents one message. Gemini uses "parts" because it
// supports multimodal input; for text we always send a single part.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	// ResponseMIMEType set to "application/json" switches Gemini into
	// JSON-only output mode.
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// ---------------------------------------------------------------------------
// GenerateText
// ---------------------------------------------------------------------------

// GenerateText sends a single-shot request to Gemini's generateContent
// endpoint and returns the first candidate's text.
func (g *Gemini) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	geminiReq := &geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
	}
	if req.JSONMode {
		geminiReq.GenerationConfig = &geminiGenerationConfig{
			ResponseMIMEType: "application/json",
		}
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", keys.Fatal(fmt.Errorf("marshaling gemini request: %w", err))
	}

	// The model lives in the URL path and the API key in a query parameter,
	// which is unusual; most APIs use an Authorization header.
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", keys.Fatal(fmt.Errorf("creating gemini request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-store")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request to gemini: %w", redactKey(err, g.apiKey))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", redactKey(err, g.apiKey))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", TagStatus(&StatusError{Provider: g.Name(), Status: httpResp.StatusCode, Body: string(respBody)})
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", keys.InvalidResponse(fmt.Errorf("decoding gemini response: %w", err))
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", keys.InvalidResponse(errors.New("gemini returned no candidates"))
	}

	text := geminiResp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", keys.InvalidResponse(errors.New("gemini returned an empty response"))
	}

	return text, nil
}
