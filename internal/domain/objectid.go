package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"sync/atomic"
	"time"
)

// objectIDRE matches the 24-hex identifier format used for every entity.
var objectIDRE = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

var (
	processUnique = func() [5]byte {
		var b [5]byte
		_, _ = rand.Read(b[:])
		return b
	}()
	objectIDCounter = func() uint32 {
		var b [4]byte
		_, _ = rand.Read(b[:])
		return binary.BigEndian.Uint32(b[:])
	}()
)

// NewObjectID returns a 12-byte identifier encoded as 24 lowercase hex
// characters: 4-byte big-endian unix seconds, 5 process-random bytes and a
// 3-byte counter. IDs sort roughly by creation time.
func NewObjectID() string {
	return newObjectIDAt(time.Now())
}

func newObjectIDAt(t time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()))
	copy(b[4:9], processUnique[:])
	n := atomic.AddUint32(&objectIDCounter, 1)
	b[9] = byte(n >> 16)
	b[10] = byte(n >> 8)
	b[11] = byte(n)
	return hex.EncodeToString(b[:])
}

// IsObjectID reports whether s has the identifier format.
func IsObjectID(s string) bool {
	return objectIDRE.MatchString(s)
}
