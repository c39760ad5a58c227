/*
Package hash implements the hash primitive of the CKB chain: blake2b-256 with
the "ckb-default-hash" personalization and its 20-byte truncation (blake160)
used as compact key identity.
*/
package hash

import (
	stdhash "hash"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Personalization is the blake2b personalization used by CKB.
const Personalization = "ckb-default-hash"

// Hasher is an incremental CKB hasher.
type Hasher struct {
	h stdhash.Hash
}

// NewHasher returns a fresh incremental CKB hasher.
func NewHasher() *Hasher {
	h, err := blake2b.New(&blake2b.Config{
		Size:   util.Uint256Size,
		Person: []byte(Personalization),
	})
	if err != nil {
		// Only possible with invalid static parameters above.
		panic(err)
	}
	return &Hasher{h: h}
}

// Write implements io.Writer, it never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Update appends data to the hashed stream and returns the hasher for chaining.
func (h *Hasher) Update(data ...[]byte) *Hasher {
	for _, d := range data {
		_, _ = h.h.Write(d)
	}
	return h
}

// Sum returns the digest of the data written so far.
func (h *Hasher) Sum() util.Uint256 {
	var u util.Uint256
	copy(u[:], h.h.Sum(nil))
	return u
}

// Hash returns CKB hash of the data.
func Hash(data []byte) util.Uint256 {
	return NewHasher().Update(data).Sum()
}

// Blake160 returns the first 20 bytes of CKB hash of the data.
func Blake160(data []byte) util.Uint160 {
	var u util.Uint160
	h := Hash(data)
	copy(u[:], h[:util.Uint160Size])
	return u
}
