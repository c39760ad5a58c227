package envelope

import (
	"errors"

	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/sighash"
)

// Errors returned (wrapped) by envelope operations, check them with errors.Is.
var (
	// ErrMalformedWitness means a witness lock can't be decoded.
	ErrMalformedWitness = multisig.ErrMalformedWitness
	// ErrRecovery means a public key can't be recovered from a signature.
	ErrRecovery = keys.ErrRecovery
	// ErrMissingResolvedInputs means inputs are needed but not resolved yet.
	ErrMissingResolvedInputs = sighash.ErrMissingResolvedInputs
	// ErrUnknownMultisigConfig means there are signatures for a lock that has
	// no multisig lock action.
	ErrUnknownMultisigConfig = errors.New("unknown multisig config")
	// ErrPayloadMismatch means envelopes of different transactions are merged.
	ErrPayloadMismatch = errors.New("payload hash mismatch")
	// ErrUnauthorizedSigner means a signature belongs to a key that is not a
	// signer of the multisig config.
	ErrUnauthorizedSigner = errors.New("unauthorized signer")
	// ErrInvalidState means the state transition is not allowed.
	ErrInvalidState = errors.New("invalid state transition")
)
