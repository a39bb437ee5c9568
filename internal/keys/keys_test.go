package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolDiscoveryOrder(t *testing.T) {
	snap := Snapshot{
		"GEMINI_API_KEY":   "bare",
		"GEMINI_API_KEY1":  "plain-one",
		"GEMINI_API_KEY_1": "under-one",
		"GEMINI_API_KEY2":  "plain-two",
		"GEMINI_API_KEY_7": "under-seven",
	}

	pool := NewResolver(snap).Pool("GEMINI_API_KEY")
	assert.Equal(t, []string{"bare", "plain-one", "under-one", "plain-two", "under-seven"}, pool)
}

func TestPoolSkipsEmptyValues(t *testing.T) {
	snap := Snapshot{
		"RAPID_API_KEY":   "",
		"RAPID_API_KEY1":  "first",
		"RAPID_API_KEY_2": "",
		"RAPID_API_KEY3":  "third",
	}

	pool := NewResolver(snap).Pool("RAPID_API_KEY")
	assert.Equal(t, []string{"first", "third"}, pool)
}

func TestPoolDeduplicatesKeepingFirst(t *testing.T) {
	snap := Snapshot{
		"OPENAI_API_KEY":   "same",
		"OPENAI_API_KEY1":  "same",
		"OPENAI_API_KEY_1": "other",
	}

	pool := NewResolver(snap).Pool("OPENAI_API_KEY")
	assert.Equal(t, []string{"same", "other"}, pool)
}

func TestPoolIgnoresUnrelatedAndOutOfRangeVariables(t *testing.T) {
	snap := Snapshot{
		"GEMINI_API_KEY":      "bare",
		"GEMINI_API_KEY11":    "too-high",
		"GEMINI_API_KEY_99":   "way-too-high",
		"GEMINI_API_KEYS":     "not-a-slot",
		"SOMETHING_UNRELATED": "nope",
	}

	pool := NewResolver(snap).Pool("GEMINI_API_KEY")
	assert.Equal(t, []string{"bare"}, pool)
}

func TestPoolEmptyWhenNothingConfigured(t *testing.T) {
	pool := NewResolver(Snapshot{}).Pool("GEMINI_API_KEY")
	assert.Empty(t, pool)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "AIzaSy...wxyz", Mask("AIzaSyExample1234567890wxyz"))
	assert.Equal(t, "****", Mask("short"))
	assert.Equal(t, "****", Mask("exactly10c"))
	assert.Equal(t, "****", Mask(""))
}
