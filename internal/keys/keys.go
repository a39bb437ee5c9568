// Package keys discovers credential pools from the environment and runs
// operations with automatic rotation through a pool when attempts fail.
//
// Credentials are configured per provider family using a naming convention:
// the bare prefix (GEMINI_API_KEY), numbered variants (GEMINI_API_KEY1) and
// underscore-numbered variants (GEMINI_API_KEY_1). A family may hold up to
// 21 slots, and operators typically fill two or three.
package keys

import (
	"os"
	"strconv"
	"strings"
)

// maxIndexedSlots is the highest numbered credential slot scanned per prefix.
const maxIndexedSlots = 10

// Snapshot is an immutable view of the process configuration at the time it
// was captured. The resolver reads only from a Snapshot, never from the live
// environment, which keeps pool resolution a pure function of its input.
type Snapshot map[string]string

// SnapshotFromEnviron captures the current process environment.
// Call it once at startup; the gateway never mutates configuration at
// runtime, so a single capture is valid for the process lifetime.
func SnapshotFromEnviron() Snapshot {
	snap := make(Snapshot)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			snap[k] = v
		}
	}
	return snap
}

// Resolver turns a credential-family prefix into an ordered list of
// configured credentials.
type Resolver struct {
	snapshot Snapshot
}

// NewResolver creates a Resolver over the given configuration snapshot.
func NewResolver(snapshot Snapshot) *Resolver {
	return &Resolver{snapshot: snapshot}
}

// Pool returns every credential configured for the prefix, in discovery
// order: the bare prefix first, then for each index 1..10 the plain numbered
// form followed by the underscore form. Empty values are dropped and
// duplicates are removed keeping the first occurrence. The result may be
// empty; callers must treat that as "no credentials configured" rather than
// proceeding with a blank key.
func (r *Resolver) Pool(prefix string) []string {
	var pool []string
	seen := make(map[string]bool)

	add := func(name string) {
		v := r.snapshot[name]
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		pool = append(pool, v)
	}

	add(prefix)
	for i := 1; i <= maxIndexedSlots; i++ {
		add(prefix + strconv.Itoa(i))
		add(prefix + "_" + strconv.Itoa(i))
	}

	return pool
}

// Mask redacts a credential for logging, keeping the first six and last four
// characters. Short keys are fully redacted.
func Mask(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-4:]
}
