package writer

import (
	"crypto/rand"

	"golang.org/x/crypto/blake2b"
)

// DocumentID returns the trailer /ID pair. Both halves are equal for a new
// file. Deterministic IDs hash only parts, so the same input gives the same
// bytes; otherwise 16 random bytes are mixed in.
func DocumentID(deterministic bool, parts ...[]byte) [2][]byte {
	h, _ := blake2b.New(16, nil)
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	if !deterministic {
		var nonce [16]byte
		_, _ = rand.Read(nonce[:])
		h.Write(nonce[:])
	}
	id := h.Sum(nil)
	return [2][]byte{id, append([]byte(nil), id...)}
}
