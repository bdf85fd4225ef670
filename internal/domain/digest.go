package domain

import (
	"crypto/subtle"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest is the fixed, non-reversible fingerprint used for admin
// credentials and registration tokens. It is not a secrecy mechanism.
func Digest(s string) uint64 {
	return xxhash.Sum64String(s)
}

// DigestEqual compares two digests in constant time.
func DigestEqual(a, b uint64) bool {
	var ab, bb [8]byte
	binary.BigEndian.PutUint64(ab[:], a)
	binary.BigEndian.PutUint64(bb[:], b)
	return subtle.ConstantTimeCompare(ab[:], bb[:]) == 1
}
