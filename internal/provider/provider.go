// Package provider contains the outbound adapters for the third-party
// text-generation APIs.
//
// Every backend (Gemini, OpenAI) exposes the same two-method surface, so the
// lesson generator and the chat assistant never need to know which provider
// is handling a request. Adapters are constructed per attempt with a single
// credential; the rotation executor in internal/keys decides which
// credential that is.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/edumagic/edumagic/internal/keys"
)

// TextProvider is the interface every text backend satisfies.
type TextProvider interface {
	// Name returns the provider identifier, e.g. "gemini" or "openai".
	// Used for logging and metrics labels.
	Name() string

	// GenerateText sends one prompt and returns the raw response text.
	// The context carries cancellation and deadlines; if the caller goes
	// away, the in-flight HTTP call is aborted.
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// TextRequest is the unified request shape for a single-shot generation.
type TextRequest struct {
	// Prompt is the full prompt text, system framing included.
	Prompt string

	// JSONMode asks the provider for a JSON-only response mode. Gemini maps
	// this to responseMimeType, OpenAI to response_format.
	JSONMode bool
}

// StatusError reports a non-2xx provider response. The body excerpt is kept
// for diagnostics; credentials never appear in it.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, excerpt(e.Body))
}

// excerpt truncates a response body for error messages and logs.
func excerpt(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// redactKey masks the credential wherever it appears in an error's text.
// Gemini carries the key in the request URL, so a transport failure echoes
// it back inside the url.Error message. The original error stays in the
// chain for errors.Is checks, but Error() only ever shows the masked form.
func redactKey(err error, key string) error {
	if err == nil || key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return &redactedError{
		msg: strings.ReplaceAll(err.Error(), key, keys.Mask(key)),
		err: err,
	}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

// TagStatus classifies a StatusError for the rotation executor.
func TagStatus(e *StatusError) error {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return keys.RateLimited(e)
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return keys.AuthRejected(e)
	case e.Status >= 400 && e.Status < 500:
		// Other 4xx responses indicate a request the next key cannot fix.
		return keys.Fatal(e)
	default:
		return keys.Tag(keys.KindTransient, e)
	}
}
