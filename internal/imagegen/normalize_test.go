package imagegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImageURLFieldOrder(t *testing.T) {
	// generated_image outranks image_url, which outranks url.
	data := map[string]any{
		"url":             "https://c.example/img.png",
		"image_url":       "https://b.example/img.png",
		"generated_image": "https://a.example/img.png",
	}
	assert.Equal(t, "https://a.example/img.png", extractImageURL(data))

	delete(data, "generated_image")
	assert.Equal(t, "https://b.example/img.png", extractImageURL(data))

	delete(data, "image_url")
	assert.Equal(t, "https://c.example/img.png", extractImageURL(data))
}

func TestExtractImageURLDataArrayFallback(t *testing.T) {
	data := map[string]any{
		"data": []any{
			map[string]any{"url": "https://d.example/img.png"},
		},
	}
	assert.Equal(t, "https://d.example/img.png", extractImageURL(data))
}

func TestExtractImageURLEmpty(t *testing.T) {
	assert.Equal(t, "", extractImageURL(map[string]any{"status": "processing"}))
	assert.Equal(t, "", extractImageURL(map[string]any{"url": ""}))
	assert.Equal(t, "", extractImageURL(map[string]any{"data": []any{}}))
}

func TestExtractJobID(t *testing.T) {
	assert.Equal(t, "abc-123", extractJobID(map[string]any{"id": "abc-123"}))
	assert.Equal(t, "j1", extractJobID(map[string]any{"job_id": "j1"}))
	assert.Equal(t, "t1", extractJobID(map[string]any{"task_id": "t1"}))
	assert.Equal(t, "m1", extractJobID(map[string]any{"messageId": "m1"}))

	// Numeric ids arrive as JSON numbers.
	assert.Equal(t, "42", extractJobID(map[string]any{"id": float64(42)}))

	// id outranks job_id.
	assert.Equal(t, "winner", extractJobID(map[string]any{"id": "winner", "job_id": "loser"}))

	assert.Equal(t, "", extractJobID(map[string]any{"status": "ok"}))
}

func TestNormalizeURLUpgradesToHTTPS(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.png", normalizeURL("http://cdn.example.com/a.png"))
}

func TestNormalizeURLKeepsIPLiteralHosts(t *testing.T) {
	assert.Equal(t, "http://154.12.252.57:4000/images/a.png", normalizeURL("http://154.12.252.57:4000/images/a.png"))
}

func TestNormalizeURLWrapsBareBase64(t *testing.T) {
	raw := strings.Repeat("iVBORw0KGgo", 100)
	got := normalizeURL(raw)
	assert.Equal(t, "data:image/png;base64,"+raw, got)
}

func TestNormalizeURLIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://cdn.example.com/a.png",
		"http://154.12.252.57:4000/images/a.png",
		"data:image/png;base64," + strings.Repeat("A", 2000),
		normalizeURL("http://cdn.example.com/a.png"),
	}
	for _, in := range inputs {
		assert.Equal(t, in, normalizeURL(in), "input %.60s", in)
	}
}

func TestNormalizeURLLeavesShortStringsAlone(t *testing.T) {
	assert.Equal(t, "not-a-url", normalizeURL("not-a-url"))
}

func TestSynthesizedImageURL(t *testing.T) {
	assert.Equal(t, "http://154.12.252.57:4000/images/abc.png", synthesizedImageURL("abc"))
	assert.Equal(t, "http://154.12.252.57:4000/images/abc.jpg", synthesizedImageURL("abc.jpg"))
	assert.Equal(t, "http://154.12.252.57:4000/images/abc.png", synthesizedImageURL("  abc  "))
}
