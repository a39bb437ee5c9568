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

// DefaultOpenAIBaseURL is the production OpenAI REST endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI implements TextProvider for OpenAI's Chat Completions API. It is
// the secondary family in the lesson fallback chain.
//
// Differences from the Gemini adapter worth knowing:
//   - auth is a bearer token header, not a query parameter
//   - the model is in the request body, not the URL path
//   - JSON mode is requested via response_format
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI creates an OpenAI adapter bound to one credential.
func NewOpenAI(apiKey, baseURL, model string, client *http.Client) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  client,
	}
}

// Name returns the provider identifier.
func (o *OpenAI) Name() string {
	return "openai"
}

// ---------------------------------------------------------------------------
// OpenAI API types (unexported)
// ---------------------------------------------------------------------------

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ---------------------------------------------------------------------------
// GenerateText
// ---------------------------------------------------------------------------

// GenerateText sends a single-shot request to /chat/completions and returns
// the first choice's message content.
func (o *OpenAI) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	oaiReq := &openAIRequest{
		Model:    o.model,
		Messages: []openAIMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.JSONMode {
		oaiReq.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return "", keys.Fatal(fmt.Errorf("marshaling openai request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", keys.Fatal(fmt.Errorf("creating openai request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Cache-Control", "no-store")

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request to openai: %w", redactKey(err, o.apiKey))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading openai response: %w", redactKey(err, o.apiKey))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", TagStatus(&StatusError{Provider: o.Name(), Status: httpResp.StatusCode, Body: string(respBody)})
	}

	var oaiResp openAIResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", keys.InvalidResponse(fmt.Errorf("decoding openai response: %w", err))
	}

	if len(oaiResp.Choices) == 0 || oaiResp.Choices[0].Message.Content == "" {
		return "", keys.InvalidResponse(errors.New("openai returned no choices"))
	}

	return oaiResp.Choices[0].Message.Content, nil
}
