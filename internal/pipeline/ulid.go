package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job ids are ULIDs: 48-bit millisecond timestamp then 80 random bits, in
// Crockford base32. A per-millisecond counter in the first random bytes keeps
// ids from one process sortable.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	idMu  sync.Mutex
	idTS  uint64
	idSeq uint16
)

func newJobID() string {
	idMu.Lock()
	defer idMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == idTS {
		idSeq++
	} else {
		idTS = ts
		idSeq = 0
	}

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], ts<<16)
	rand.Read(b[6:])
	binary.BigEndian.PutUint16(b[6:8], idSeq)
	return encodeULID(b)
}

// encodeULID writes the 128-bit value as 26 base32 digits, most significant first.
func encodeULID(b [16]byte) string {
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	var out [26]byte
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}
