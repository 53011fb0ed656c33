package store

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idSource guards the monotonic entropy so concurrent callers still
// get strictly increasing ULIDs within a millisecond.
var idSource = struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}{entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)}

// NewID returns a fresh ULID. IDs sort by creation time, which keeps
// id-ordered scans in rough chronological order.
func NewID() string {
	idSource.Lock()
	defer idSource.Unlock()
	return ulid.MustNew(ulid.Now(), idSource.entropy).String()
}
