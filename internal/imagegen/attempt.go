package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/metrics"
	"github.com/edumagic/edumagic/internal/provider"
)

// Known image provider ids.
const (
	ProviderChatGPT42    = "chatgpt-42"
	ProviderHDAI         = "hd-ai-image-gen"
	ProviderHDAIStandard = "hd-ai-image-gen-standard"
	ProviderMidjourney   = "midjourney-imaginecraft"

	// ProviderPollinations and ProviderLexica are deprecated ids that map
	// straight to the fallback image without any network calls.
	ProviderPollinations = "pollinations"
	ProviderLexica       = "lexica"
)

// syncProviders describes the single-POST providers: one endpoint, one
// request body shape, an immediate response.
var syncProviders = map[string]struct {
	host string
	path string
	body func(prompt string) map[string]any
}{
	ProviderChatGPT42: {
		host: "chatgpt-42.p.rapidapi.com",
		path: "/texttoimage",
		body: func(prompt string) map[string]any {
			return map[string]any{"text": prompt, "width": 1024, "height": 1024}
		},
	},
	ProviderHDAI: {
		host: "hd-ai-image-gen-affordable-powerful.p.rapidapi.com",
		path: "/image_gen",
		body: func(prompt string) map[string]any {
			return map[string]any{"text": prompt, "prompt": prompt, "width": 1024, "height": 1024}
		},
	},
	ProviderHDAIStandard: {
		host: "hd-ai-image-gen.p.rapidapi.com",
		path: "/image_gen",
		body: func(prompt string) map[string]any {
			return map[string]any{"prompt": prompt, "width": 1024, "height": 1024}
		},
	},
}

const midjourneyHost = "midjourney-imaginecraft-generative-ai-api.p.rapidapi.com"

// Probing endpoints for the midjourney family, tried in order. The
// provider's actual route is not reliably known in advance.
var midjourneyEndpoints = []string{"/imagine", "/mj_imagine"}

// Poll endpoint templates for asynchronous midjourney jobs, tried in order
// each round.
var midjourneyPollPaths = []string{"/fetch_result?id=", "/result?id=", "/get_image?id="}

// attempt runs one generation try against one provider with one credential.
// The returned error is tagged for the rotation executor.
func (g *Gateway) attempt(ctx context.Context, providerID, prompt, key string) (*Result, error) {
	start := time.Now()
	res, err := g.attemptProvider(ctx, providerID, prompt, key)
	metrics.AttemptLatency.WithLabelValues(providerID).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderAttempts.WithLabelValues(providerID, keys.KindOf(err).String()).Inc()
		return nil, err
	}
	metrics.ProviderAttempts.WithLabelValues(providerID, "success").Inc()
	return res, nil
}

func (g *Gateway) attemptProvider(ctx context.Context, providerID, prompt, key string) (*Result, error) {
	if providerID == ProviderMidjourney {
		return g.attemptProbing(ctx, prompt, key)
	}
	if _, ok := syncProviders[providerID]; ok {
		return g.attemptSync(ctx, providerID, prompt, key)
	}
	return nil, keys.Fatal(fmt.Errorf("unknown provider %q", providerID))
}

// attemptSync issues the provider's single POST and extracts the image URL
// from the response.
func (g *Gateway) attemptSync(ctx context.Context, providerID, prompt, key string) (*Result, error) {
	spec := syncProviders[providerID]

	status, body, err := g.post(ctx, spec.host, spec.path, spec.body(prompt), key)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", providerID, err)
	}

	if status == http.StatusTooManyRequests {
		return nil, keys.RateLimited(&provider.StatusError{Provider: providerID, Status: status, Body: body})
	}

	data := map[string]any{}
	if body != "" {
		if err := json.Unmarshal([]byte(body), &data); err != nil {
			return nil, keys.InvalidResponse(fmt.Errorf("invalid JSON response from %s: %.100s", providerID, body))
		}
	}

	if status < 200 || status > 299 {
		return nil, provider.TagStatus(&provider.StatusError{Provider: providerID, Status: status, Body: body})
	}

	finalURL := extractImageURL(data)

	// The hd-ai family sometimes returns just a file identifier; the image
	// itself lives on a fixed host.
	if finalURL == "" && (providerID == ProviderHDAI || providerID == ProviderHDAIStandard) {
		for _, field := range []string{"id", "content", "filename"} {
			if s, ok := data[field].(string); ok && s != "" {
				finalURL = synthesizedImageURL(s)
				break
			}
			if n, ok := data[field].(float64); ok {
				finalURL = synthesizedImageURL(fmt.Sprintf("%.0f", n))
				break
			}
		}
	}

	if finalURL == "" {
		return nil, keys.InvalidResponse(fmt.Errorf("empty response format from %s", providerID))
	}

	return &Result{ImageURL: normalizeURL(finalURL), Provider: providerID, Raw: data}, nil
}

// attemptProbing tries each midjourney endpoint in order. A 2xx with an
// immediate URL wins; a 2xx with only a job id enters the polling protocol;
// anything else records the failure and moves to the next endpoint.
func (g *Gateway) attemptProbing(ctx context.Context, prompt, key string) (*Result, error) {
	lastErr := ""

	for _, path := range midjourneyEndpoints {
		status, body, err := g.post(ctx, midjourneyHost, path, map[string]any{"prompt": prompt}, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err.Error()
			continue
		}

		if status >= 200 && status <= 299 {
			data := map[string]any{}
			if jsonErr := json.Unmarshal([]byte(body), &data); jsonErr == nil {
				if imageURL := extractImageURL(data); imageURL != "" {
					return &Result{ImageURL: normalizeURL(imageURL), Provider: ProviderMidjourney, Raw: data}, nil
				}

				if jobID := extractJobID(data); jobID != "" {
					if res, pollErr := g.poll(ctx, jobID, key); pollErr == nil {
						return res, nil
					} else if ctx.Err() != nil {
						return nil, ctx.Err()
					}
				}
			}
		}

		lastErr = fmt.Sprintf("endpoint %s responded with %d: %.200s", path, status, body)
	}

	return nil, keys.InvalidResponse(fmt.Errorf(
		"midjourney probing failed, last status: %s (check subscription status on RapidAPI)", lastErr))
}

// poll implements the bounded job-polling protocol: up to pollRounds rounds,
// one pollInterval wait per round, every poll template tried per round. The
// first 2xx response that yields an extractable URL wins.
func (g *Gateway) poll(ctx context.Context, jobID, key string) (*Result, error) {
	for round := 0; round < g.pollRounds; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}

		for _, path := range midjourneyPollPaths {
			status, body, err := g.get(ctx, midjourneyHost, path+jobID, key)
			if err != nil || status < 200 || status > 299 {
				continue
			}

			data := map[string]any{}
			if err := json.Unmarshal([]byte(body), &data); err != nil {
				continue
			}

			if imageURL := extractImageURL(data); imageURL != "" {
				log.Debugf("[imagegen] job %s completed on round %d", jobID, round+1)
				return &Result{ImageURL: normalizeURL(imageURL), Provider: ProviderMidjourney, Raw: data}, nil
			}
		}
	}

	return nil, fmt.Errorf("job %s produced no image within %d polling rounds", jobID, g.pollRounds)
}

// post issues a cache-bypassing JSON POST with the rapidapi auth headers.
// When the gateway has a base URL override (tests), requests go there while
// the host header still names the real provider.
func (g *Gateway) post(ctx context.Context, host, path string, body map[string]any, key string) (int, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, "", keys.Fatal(fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(host, path), bytes.NewReader(payload))
	if err != nil {
		return 0, "", keys.Fatal(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	g.setAuthHeaders(req, host, key)

	return g.do(req)
}

// get issues a poll request.
func (g *Gateway) get(ctx context.Context, host, path, key string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(host, path), nil)
	if err != nil {
		return 0, "", keys.Fatal(fmt.Errorf("creating poll request: %w", err))
	}
	g.setAuthHeaders(req, host, key)

	return g.do(req)
}

func (g *Gateway) endpoint(host, path string) string {
	if g.baseURL != "" {
		return g.baseURL + path
	}
	return "https://" + host + path
}

func (g *Gateway) setAuthHeaders(req *http.Request, host, key string) {
	req.Header.Set("x-rapidapi-key", key)
	req.Header.Set("x-rapidapi-host", host)
	req.Header.Set("Cache-Control", "no-store")
}

func (g *Gateway) do(req *http.Request) (int, string, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
