package job

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handle is a generational, sortable identifier for a Job instance. It
// survives across the lifetime of one instance only: once a job reaches
// waiting/stop and is destroyed, its handle is never reused, unlike a
// raw slice index into a registry (§9 design note).
type Handle struct {
	id ulid.ULID
}

var handleEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

// newHandle mints a fresh Handle. It is not safe for concurrent use,
// matching the engine's single-threaded main-loop invariant (§5).
func newHandle() Handle {
	return Handle{id: ulid.MustNew(ulid.Timestamp(time.Now()), handleEntropy)}
}

// String returns the handle's canonical ULID text form.
func (h Handle) String() string { return h.id.String() }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.id == (ulid.ULID{}) }
