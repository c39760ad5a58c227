package keys

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// SignatureSize is the size of a recoverable signature.
const SignatureSize = 65

const (
	// maxRecoveryID is the biggest valid recovery id value.
	maxRecoveryID = 3
	// compactMagic is the header offset of compact signatures for
	// compressed keys (27 + 4).
	compactMagic = 31
)

// ErrRecovery is returned (wrapped) when a public key can't be recovered
// from the signature.
var ErrRecovery = errors.New("signature recovery failed")

// RecoverPublicKey recovers the public key that produced the signature over
// the digest. The signature layout is r(32) | s(32) | recovery id(1).
func RecoverPublicKey(sig []byte, digest util.Uint256) (*PublicKey, error) {
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w: signature length %d", ErrRecovery, len(sig))
	}
	if sig[SignatureSize-1] > maxRecoveryID {
		return nil, fmt.Errorf("%w: recovery id %d is out of range", ErrRecovery, sig[SignatureSize-1])
	}
	k, _, err := ecdsa.RecoverCompact(toCompact(sig), digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecovery, err)
	}
	return &PublicKey{key: k}, nil
}

// RecoverPubkeyHash recovers the signer's blake160 pubkey hash.
func RecoverPubkeyHash(sig []byte, digest util.Uint256) (util.Uint160, error) {
	pub, err := RecoverPublicKey(sig, digest)
	if err != nil {
		return util.Uint160{}, err
	}
	return pub.Hash(), nil
}

// toCompact converts r|s|v into the compact format used by the secp256k1
// library: header | r | s.
func toCompact(sig []byte) []byte {
	res := make([]byte, SignatureSize)
	res[0] = compactMagic + sig[SignatureSize-1]
	copy(res[1:], sig[:SignatureSize-1])
	return res
}

func fromCompact(compact []byte) [SignatureSize]byte {
	var res [SignatureSize]byte
	copy(res[:], compact[1:])
	res[SignatureSize-1] = compact[0] - compactMagic
	return res
}
