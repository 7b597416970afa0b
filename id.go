package thoughtbot

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NewID generates a globally unique, time-sortable UUIDv7 (RFC 9562). It is
// used for branch ids.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewMessageID generates the 32-character random id every Message and
// Envelope carries. UUIDv7 is 36 characters including hyphens, which does
// not match that shape, so these get their own hex generator instead of
// NewID.
func NewMessageID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is
		// unavailable, which is not recoverable here.
		panic(fmt.Sprintf("thoughtbot: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// NowUnix returns the current time as Unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}

// SeqID produces strictly increasing counter ids scoped to a prefix, for
// callers that need ordering guarantees stronger than UUIDv7's
// millisecond-level time sortability.
type SeqID struct {
	prefix string
	n      atomic.Int64
}

// NewSeqID returns a SeqID generator for the given prefix.
func NewSeqID(prefix string) *SeqID {
	return &SeqID{prefix: prefix}
}

// Next returns the next id for this generator: "<prefix>-<n>", n starting at 1.
func (s *SeqID) Next() string {
	n := s.n.Add(1)
	return fmt.Sprintf("%s-%d", s.prefix, n)
}
