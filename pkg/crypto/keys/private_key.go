package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// PrivateKeySize is the size of a serialized secp256k1 private key.
const PrivateKeySize = 32

// PrivateKey is a secp256k1 private key used to sign CKB sighashes.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given 32 bytes.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("invalid byte length: expected %d bytes got %d", PrivateKeySize, len(b))
	}
	k := secp256k1.PrivKeyFromBytes(b)
	if k.Key.IsZero() {
		return nil, fmt.Errorf("zero private key")
	}
	return &PrivateKey{key: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey from the given hex string,
// 0x prefix is optional.
func NewPrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// PublicKey returns the public key corresponding to the private one.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// PubkeyHash returns blake160 of the compressed public key.
func (p *PrivateKey) PubkeyHash() util.Uint160 {
	return p.PublicKey().Hash()
}

// Bytes returns the serialized private key.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// SignHash signs the digest and returns a recoverable signature in the CKB
// layout: r(32) | s(32) | recovery id(1).
func (p *PrivateKey) SignHash(digest util.Uint256) [SignatureSize]byte {
	compact := ecdsa.SignCompact(p.key, digest[:], true)
	return fromCompact(compact)
}
