package keys

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rotatorWith(snap Snapshot) *Rotator {
	return NewRotator(NewResolver(snap))
}

func TestRotateEmptyPoolNeverInvokesOp(t *testing.T) {
	r := rotatorWith(Snapshot{})

	invoked := false
	_, err := Rotate(context.Background(), r, "GEMINI_API_KEY", func(ctx context.Context, key string) (string, error) {
		invoked = true
		return "", nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.False(t, invoked)
}

func TestRotateSucceedsOnFirstKey(t *testing.T) {
	r := rotatorWith(Snapshot{"GEMINI_API_KEY": "k1", "GEMINI_API_KEY1": "k2"})

	var used []string
	result, err := Rotate(context.Background(), r, "GEMINI_API_KEY", func(ctx context.Context, key string) (string, error) {
		used = append(used, key)
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, []string{"k1"}, used)
}

func TestRotateAdvancesThroughPoolInOrder(t *testing.T) {
	r := rotatorWith(Snapshot{
		"GEMINI_API_KEY":  "k1",
		"GEMINI_API_KEY1": "k2",
		"GEMINI_API_KEY2": "k3",
	})

	var used []string
	result, err := Rotate(context.Background(), r, "GEMINI_API_KEY", func(ctx context.Context, key string) (string, error) {
		used = append(used, key)
		if key != "k3" {
			return "", RateLimited(errors.New("quota exceeded"))
		}
		return "third time lucky", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "third time lucky", result)
	assert.Equal(t, []string{"k1", "k2", "k3"}, used)
}

func TestRotateExhaustionWrapsLastError(t *testing.T) {
	r := rotatorWith(Snapshot{"RAPID_API_KEY": "k1", "RAPID_API_KEY1": "k2"})

	lastErr := errors.New("final failure")
	_, err := Rotate(context.Background(), r, "RAPID_API_KEY", func(ctx context.Context, key string) (int, error) {
		if key == "k2" {
			return 0, InvalidResponse(lastErr)
		}
		return 0, errors.New("earlier failure")
	})

	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, "RAPID_API_KEY", exhausted.Prefix)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.ErrorIs(t, err, lastErr)
}

func TestRotateFatalStopsImmediately(t *testing.T) {
	r := rotatorWith(Snapshot{"GPT_API_KEY": "k1", "GPT_API_KEY1": "k2"})

	attempts := 0
	_, err := Rotate(context.Background(), r, "GPT_API_KEY", func(ctx context.Context, key string) (string, error) {
		attempts++
		return "", Fatal(errors.New("malformed request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, IsFatal(err))

	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestRotateUntaggedErrorRotates(t *testing.T) {
	r := rotatorWith(Snapshot{"GPT_API_KEY": "k1", "GPT_API_KEY1": "k2"})

	attempts := 0
	result, err := Rotate(context.Background(), r, "GPT_API_KEY", func(ctx context.Context, key string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("connection reset")
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 2, attempts)
}

func TestRotateEachKeyUsedAtMostOnce(t *testing.T) {
	r := rotatorWith(Snapshot{"GEMINI_API_KEY": "k1", "GEMINI_API_KEY1": "k2"})

	used := map[string]int{}
	_, err := Rotate(context.Background(), r, "GEMINI_API_KEY", func(ctx context.Context, key string) (string, error) {
		used[key]++
		return "", AuthRejected(errors.New("revoked"))
	})

	require.Error(t, err)
	assert.Equal(t, map[string]int{"k1": 1, "k2": 1}, used)
}

func TestRotateHonorsContextCancellation(t *testing.T) {
	r := rotatorWith(Snapshot{"GEMINI_API_KEY": "k1", "GEMINI_API_KEY1": "k2"})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := Rotate(ctx, r, "GEMINI_API_KEY", func(ctx context.Context, key string) (string, error) {
		attempts++
		cancel()
		return "", errors.New("failed")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(errors.New("plain")))
	assert.Equal(t, KindRateLimited, KindOf(RateLimited(errors.New("429"))))
	assert.Equal(t, KindAuthRejected, KindOf(AuthRejected(errors.New("401"))))
	assert.Equal(t, KindInvalidResponse, KindOf(InvalidResponse(errors.New("garbage"))))
	assert.Equal(t, KindFatal, KindOf(Fatal(errors.New("bad request"))))

	// Tags survive wrapping with fmt.Errorf %w style chains.
	wrapped := Tag(KindRateLimited, errors.New("quota"))
	assert.Equal(t, KindRateLimited, KindOf(wrapped))

	assert.NoError(t, Tag(KindFatal, nil))
}
