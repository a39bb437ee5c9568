package imagegen

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Ordered field names checked when extracting an image URL from a provider
// response. The order is fixed: providers in the same family disagree about
// which field carries the image, and the first populated one wins.
var imageURLFields = []string{
	"generated_image", "image_url", "url", "image", "imageUrl", "result",
}

// Ordered field names checked when a response carries an asynchronous job
// identifier instead of an image.
var jobIDFields = []string{"id", "job_id", "task_id", "messageId"}

// extractImageURL probes the known field names in order, then falls back to
// the first element of a "data" array. Returns "" when nothing matches.
func extractImageURL(data map[string]any) string {
	for _, field := range imageURLFields {
		if s, ok := data[field].(string); ok && s != "" {
			return s
		}
	}
	if arr, ok := data["data"].([]any); ok && len(arr) > 0 {
		if first, ok := arr[0].(map[string]any); ok {
			if s, ok := first["url"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// extractJobID probes the known job-id field names in order. Numeric ids are
// formatted as decimal strings.
func extractJobID(data map[string]any) string {
	for _, field := range jobIDFields {
		switch v := data[field].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// normalizeURL canonicalizes an extracted image locator:
//
//   - a very long string that is neither an absolute URL nor a data URI is
//     treated as raw base64 and wrapped as a PNG data URI
//   - an http URL pointing at a hostname is upgraded to https; literal IP
//     hosts are exempt because those providers serve plain http only
//
// Normalization is idempotent: https URLs and data URIs pass through
// unchanged.
func normalizeURL(raw string) string {
	if len(raw) > 1000 && !strings.HasPrefix(raw, "http") && !strings.HasPrefix(raw, "data:") {
		return "data:image/png;base64," + raw
	}

	if strings.HasPrefix(raw, "http://") && !hostIsIP(raw) {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}

	return raw
}

// hostIsIP reports whether the URL's host is a literal IP address.
func hostIsIP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return net.ParseIP(u.Hostname()) != nil
}

// synthesizedImageURL builds an image URL from a bare identifier returned by
// the hd-ai family, which serves results from a fixed image host. An
// extension is appended only when the identifier has none.
func synthesizedImageURL(id string) string {
	id = strings.TrimSpace(id)
	if !strings.Contains(id, ".") {
		id += ".png"
	}
	return "http://154.12.252.57:4000/images/" + id
}
