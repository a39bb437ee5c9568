// Package imagegen is the outbound gateway for AI image generation. It
// fronts a set of RapidAPI-hosted providers with very different contracts
// (synchronous one-shot endpoints, endpoint probing, asynchronous job
// polling) and presents one uniform operation: a prompt in, a usable image
// URL out. The gateway never fails a caller outright; when every provider
// attempt is exhausted it degrades to a stock educational image with a
// warning attached.
package imagegen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/metrics"
)

// FallbackImageURL is the stock image served when generation fails.
const FallbackImageURL = "https://images.unsplash.com/photo-1503676260728-1c00da094a0b?w=1200&q=80"

// fallbackProvider labels results that carry the stock image.
const fallbackProvider = "default-educational"

// Credential pool prefixes. chatgpt-42 bills against its own subscription;
// every other provider shares the common RapidAPI pool.
const (
	GPTKeyPrefix   = "GPT_API_KEY"
	RapidKeyPrefix = "RAPID_API_KEY"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollRounds   = 10
)

// Result is the normalized outcome of an image generation request.
type Result struct {
	ImageURL string         `json:"imageUrl"`
	Provider string         `json:"provider"`
	Raw      map[string]any `json:"rawData,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

// URLCache stores generated image URLs keyed by request digest. Implemented
// by cache.RedisCache; a nil cache disables caching entirely.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Gateway resolves a provider id to its protocol, rotates credentials across
// attempts, and normalizes whatever comes back.
type Gateway struct {
	rotator      *keys.Rotator
	client       *http.Client
	cache        URLCache
	baseURL      string
	pollInterval time.Duration
	pollRounds   int
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithCache attaches a URL cache.
func WithCache(c URLCache) Option {
	return func(g *Gateway) { g.cache = c }
}

// WithBaseURL redirects all provider traffic to a single base URL. Intended
// for tests; the x-rapidapi-host header still names the real provider.
func WithBaseURL(u string) Option {
	return func(g *Gateway) { g.baseURL = u }
}

// WithPolling overrides the job-polling cadence.
func WithPolling(interval time.Duration, rounds int) Option {
	return func(g *Gateway) {
		g.pollInterval = interval
		g.pollRounds = rounds
	}
}

// NewGateway creates the image gateway.
func NewGateway(rotator *keys.Rotator, client *http.Client, opts ...Option) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	g := &Gateway{
		rotator:      rotator,
		client:       client,
		pollInterval: defaultPollInterval,
		pollRounds:   defaultPollRounds,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// keyPrefix maps a provider id to its credential pool.
func keyPrefix(providerID string) string {
	if providerID == ProviderChatGPT42 {
		return GPTKeyPrefix
	}
	return RapidKeyPrefix
}

// Generate produces an image URL for the prompt using the named provider.
//
// The flow, in order:
//
//  1. deprecated providers short-circuit to the fallback image
//  2. the cache is consulted
//  3. with an override key, exactly one attempt is made and its error is
//     returned as-is, so callers can debug a specific credential
//  4. otherwise the credential pool rotates; exhaustion degrades to the
//     fallback image with a warning rather than an error
//
// Context cancellation is the one failure that propagates: a caller that
// gave up should not receive a fabricated fallback result.
func (g *Gateway) Generate(ctx context.Context, providerID, prompt, overrideKey string) (*Result, error) {
	if providerID == ProviderPollinations || providerID == ProviderLexica {
		log.Infof("[imagegen] provider %s is retired, serving fallback image", providerID)
		return &Result{
			ImageURL: FallbackImageURL,
			Provider: fallbackProvider,
			Warning:  fmt.Sprintf("provider %s is no longer available", providerID),
		}, nil
	}

	cacheKey := requestDigest(providerID, prompt)

	// An override key is a deliberate single-credential attempt; it must hit
	// the provider even when the prompt is cached.
	if overrideKey != "" {
		res, err := g.attempt(ctx, providerID, prompt, overrideKey)
		if err != nil {
			return nil, fmt.Errorf("image generation with override key: %w", err)
		}
		g.store(ctx, cacheKey, res)
		return res, nil
	}

	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, cacheKey); ok {
			metrics.ImageCacheLookups.WithLabelValues("hit").Inc()
			return &Result{ImageURL: cached, Provider: providerID}, nil
		}
		metrics.ImageCacheLookups.WithLabelValues("miss").Inc()
	}

	res, err := keys.Rotate(ctx, g.rotator, keyPrefix(providerID), func(ctx context.Context, key string) (*Result, error) {
		return g.attempt(ctx, providerID, prompt, key)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		log.Warnf("[imagegen] %s exhausted, serving fallback image: %v", providerID, err)
		metrics.ImageFallbacks.Inc()
		return &Result{
			ImageURL: FallbackImageURL,
			Provider: fallbackProvider,
			Warning:  fmt.Sprintf("image generation failed (%v), using a stock educational image", err),
		}, nil
	}

	g.store(ctx, cacheKey, res)
	return res, nil
}

func (g *Gateway) store(ctx context.Context, cacheKey string, res *Result) {
	if g.cache != nil && res.ImageURL != "" {
		g.cache.Set(ctx, cacheKey, res.ImageURL)
	}
}

// requestDigest builds a stable cache key from the provider and prompt.
func requestDigest(providerID, prompt string) string {
	sum := sha256.Sum256([]byte(providerID + "\x00" + prompt))
	return "imagegen:" + hex.EncodeToString(sum[:])
}
