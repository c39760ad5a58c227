package multisig

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/molecule"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// SignedPairSize is the size of serialized PubkeyHashSignaturePair struct.
const SignedPairSize = util.Uint160Size + keys.SignatureSize

// ErrMalformedAction is returned (wrapped) when MultisigAction data can't be
// decoded.
var ErrMalformedAction = errors.New("malformed multisig action")

// SignedPair is a signature attributed to the signer by recovery.
type SignedPair struct {
	PubkeyHash util.Uint160 `json:"pubkey_hash"`
	Signature  Signature    `json:"signature"`
}

// Action is the multisig lock action data: the config and the signatures
// collected so far, deduplicated by pubkey hash.
type Action struct {
	Config Config       `json:"config"`
	Signed []SignedPair `json:"signed"`
}

// NewAction returns an unsigned action for the config.
func NewAction(c Config) *Action {
	return &Action{Config: c.Copy()}
}

// Bytes returns molecule MultisigAction encoding.
func (a *Action) Bytes() []byte {
	hashes := make([][]byte, len(a.Config.Signers))
	for i := range a.Config.Signers {
		hashes[i] = a.Config.Signers[i][:]
	}
	config := molecule.Table(
		[]byte{a.Config.RequireFirstN},
		[]byte{a.Config.Threshold},
		molecule.FixVecOf(hashes),
	)
	pairs := make([][]byte, len(a.Signed))
	for i := range a.Signed {
		pairs[i] = molecule.Struct(a.Signed[i].PubkeyHash[:], a.Signed[i].Signature[:])
	}
	return molecule.Table(config, molecule.FixVecOf(pairs))
}

// DecodeAction decodes molecule MultisigAction.
func DecodeAction(data []byte) (*Action, error) {
	fields, err := molecule.ParseTable(data, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	cfields, err := molecule.ParseTable(fields[0], 3)
	if err != nil {
		return nil, fmt.Errorf("%w: config: %w", ErrMalformedAction, err)
	}
	if len(cfields[0]) != 1 || len(cfields[1]) != 1 {
		return nil, fmt.Errorf("%w: config counters are not bytes", ErrMalformedAction)
	}
	hashes, err := molecule.ParseFixVec(cfields[2], util.Uint160Size)
	if err != nil {
		return nil, fmt.Errorf("%w: signers: %w", ErrMalformedAction, err)
	}
	a := &Action{Config: Config{
		RequireFirstN: cfields[0][0],
		Threshold:     cfields[1][0],
		Signers:       make([]util.Uint160, len(hashes)),
	}}
	for i := range hashes {
		copy(a.Config.Signers[i][:], hashes[i])
	}
	if err := a.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAction, err)
	}
	pairs, err := molecule.ParseFixVec(fields[1], SignedPairSize)
	if err != nil {
		return nil, fmt.Errorf("%w: signed: %w", ErrMalformedAction, err)
	}
	a.Signed = make([]SignedPair, len(pairs))
	for i := range pairs {
		copy(a.Signed[i].PubkeyHash[:], pairs[i])
		copy(a.Signed[i].Signature[:], pairs[i][util.Uint160Size:])
	}
	return a, nil
}

// Add records the pair replacing the one of the same signer if any, the new
// pair goes to the end.
func (a *Action) Add(p SignedPair) {
	for i := range a.Signed {
		if a.Signed[i].PubkeyHash == p.PubkeyHash {
			a.Signed = append(a.Signed[:i], a.Signed[i+1:]...)
			break
		}
	}
	a.Signed = append(a.Signed, p)
}

// Merge adds all incoming pairs in order.
func (a *Action) Merge(incoming []SignedPair) {
	for _, p := range incoming {
		a.Add(p)
	}
}

// HasSigned checks whether there is a signature of the given signer.
func (a *Action) HasSigned(pkh util.Uint160) bool {
	for i := range a.Signed {
		if a.Signed[i].PubkeyHash == pkh {
			return true
		}
	}
	return false
}

// Lock returns the witness lock of the action with signatures in insertion
// order.
func (a *Action) Lock() *Lock {
	l := &Lock{Config: a.Config, Signatures: make([]Signature, len(a.Signed))}
	for i := range a.Signed {
		l.Signatures[i] = a.Signed[i].Signature
	}
	return l
}

// Copy returns a deep copy of the action.
func (a *Action) Copy() *Action {
	return &Action{
		Config: a.Config.Copy(),
		Signed: append([]SignedPair(nil), a.Signed...),
	}
}
