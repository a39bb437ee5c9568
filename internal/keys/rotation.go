package keys

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/edumagic/edumagic/internal/metrics"
)

// Op is one provider attempt parameterized by a single credential.
// Timeout discipline belongs to the operation (or its context); the rotation
// executor imposes none of its own.
type Op[T any] func(ctx context.Context, key string) (T, error)

// Rotator executes operations against a credential family, advancing through
// the pool when attempts fail. It is stateless and safe for concurrent use:
// every call resolves its own local pool and iterates it independently, so
// two in-flight requests may legitimately use the same credential at once.
type Rotator struct {
	resolver *Resolver
}

// NewRotator creates a Rotator backed by the given resolver.
func NewRotator(resolver *Resolver) *Rotator {
	return &Rotator{resolver: resolver}
}

// Resolver exposes the underlying pool resolver, for callers that only need
// discovery (for example the masked key listing endpoint).
func (r *Rotator) Resolver() *Resolver { return r.resolver }

// Rotate resolves the credential pool for prefix and invokes op with each
// credential in discovery order until one succeeds.
//
// An empty pool fails immediately with ErrNoCredentials and op is never
// invoked. A fatal-tagged failure stops rotation at once; every other
// failure advances to the next credential. Each credential is used at most
// once per call. When the pool is exhausted the error from the last
// credential is returned wrapped in an ExhaustedError.
func Rotate[T any](ctx context.Context, r *Rotator, prefix string, op Op[T]) (T, error) {
	var zero T

	pool := r.resolver.Pool(prefix)
	if len(pool) == 0 {
		return zero, Fatal(fmt.Errorf("%w: %s", ErrNoCredentials, prefix))
	}

	var lastErr error
	for i, key := range pool {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		log.Debugf("[keys] %s: attempt %d/%d with key %s", prefix, i+1, len(pool), Mask(key))

		result, err := op(ctx, key)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsFatal(err) {
			return zero, err
		}

		if i < len(pool)-1 {
			metrics.KeyRotations.WithLabelValues(prefix).Inc()
			log.Warnf("[keys] %s: key %s failed (%s), rotating to key %d/%d: %v",
				prefix, Mask(key), KindOf(err), i+2, len(pool), err)
		}
	}

	return zero, &ExhaustedError{Prefix: prefix, Attempts: len(pool), Err: lastErr}
}
