package keys

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when a credential family has zero configured
// entries. It is fatal to the calling operation; there is nothing to rotate.
var ErrNoCredentials = errors.New("no credentials configured")

// Kind classifies a provider attempt failure for the rotation decision.
type Kind int

const (
	// KindTransient covers network failures and other errors worth retrying
	// with a different credential. Untagged errors are treated as transient.
	KindTransient Kind = iota

	// KindRateLimited marks an HTTP 429 from the provider. The current key
	// has burned its quota; the next key in the pool may still have room.
	KindRateLimited

	// KindAuthRejected marks a 401/403. The key is bad or revoked.
	KindAuthRejected

	// KindInvalidResponse marks a 2xx whose body could not be parsed or
	// carried none of the recognized fields. Rotates like a transient error.
	KindInvalidResponse

	// KindFatal marks errors the next credential cannot fix, such as a
	// malformed request. Rotation stops immediately instead of burning
	// through the pool.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindAuthRejected:
		return "auth_rejected"
	case KindInvalidResponse:
		return "invalid_response"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// TaggedError attaches a rotation Kind to an underlying error.
type TaggedError struct {
	Kind Kind
	Err  error
}

func (e *TaggedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TaggedError) Unwrap() error { return e.Err }

// Tag wraps err with the given kind. A nil err returns nil.
func Tag(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &TaggedError{Kind: kind, Err: err}
}

// RateLimited tags err as a rate-limit rejection.
func RateLimited(err error) error { return Tag(KindRateLimited, err) }

// AuthRejected tags err as an authentication rejection.
func AuthRejected(err error) error { return Tag(KindAuthRejected, err) }

// InvalidResponse tags err as an unparseable or unrecognized 2xx body.
func InvalidResponse(err error) error { return Tag(KindInvalidResponse, err) }

// Fatal tags err as non-rotatable.
func Fatal(err error) error { return Tag(KindFatal, err) }

// KindOf reports the rotation kind of err. Untagged errors are transient.
func KindOf(err error) Kind {
	var tagged *TaggedError
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindTransient
}

// IsFatal reports whether err must stop rotation immediately.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }

// ExhaustedError reports that every credential in a family failed. It wraps
// the error from the last credential tried, so callers can still inspect the
// original failure with errors.Is and errors.As.
type ExhaustedError struct {
	Prefix   string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d credentials for %s exhausted: %v", e.Attempts, e.Prefix, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }
