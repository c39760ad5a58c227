package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// PublicKey is a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPublicKeyFromBytes parses a compressed or uncompressed public key.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return &PublicKey{key: k}, nil
}

// Bytes returns the compressed form of the public key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Hash returns blake160 of the compressed key, the signer identity used
// in multisig configs.
func (p *PublicKey) Hash() util.Uint160 {
	return hash.Blake160(p.Bytes())
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(other *PublicKey) bool {
	return p.key.IsEqual(other.key)
}

// String implements the fmt.Stringer interface.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.Bytes())
}
