/*
Package sighash computes the message signers of a multisig lock group commit
to. The message covers the transaction hash, a placeholder witness of the
group's first input, empty witnesses of other group inputs and all the
witnesses not belonging to any input.
*/
package sighash

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/io"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

var (
	// ErrMissingResolvedInputs is returned when the cells consumed by the
	// transaction are not known yet.
	ErrMissingResolvedInputs = errors.New("missing resolved inputs")
	// ErrEmptyGroup is returned for a lock that doesn't guard any input.
	ErrEmptyGroup = errors.New("lock group has no inputs")
)

// GroupInputs returns indices of the inputs guarded by lock in transaction
// order. resolved must describe every transaction input.
func GroupInputs(tx *transaction.Transaction, resolved []transaction.CellOutput, lock *transaction.Script) ([]int, error) {
	if len(resolved) != len(tx.Inputs) {
		return nil, fmt.Errorf("%w: %d of %d inputs resolved", ErrMissingResolvedInputs, len(resolved), len(tx.Inputs))
	}
	var group []int
	for i := range resolved {
		if resolved[i].Lock.Equals(lock) {
			group = append(group, i)
		}
	}
	if len(group) == 0 {
		return nil, ErrEmptyGroup
	}
	return group, nil
}

// Placeholder returns the witness the message is computed with for the first
// input of the group: the lock is replaced with lockSize zero bytes while
// input_type and output_type are kept. An undecodable witness is replaced
// completely.
func Placeholder(witness []byte, lockSize int) *transaction.WitnessArgs {
	w, err := transaction.DecodeWitnessArgs(witness)
	if err != nil {
		w = new(transaction.WitnessArgs)
	}
	w.Lock = make([]byte, lockSize)
	return w
}

// Compute returns the message for the group of inputs (given by indices in
// any order) with the placeholder lock of lockSize bytes.
func Compute(tx *transaction.Transaction, group []int, lockSize int) (util.Uint256, error) {
	if len(group) == 0 {
		return util.Uint256{}, ErrEmptyGroup
	}
	group = slices.Clone(group)
	slices.Sort(group)
	for _, i := range group {
		if i < 0 || i >= len(tx.Inputs) {
			return util.Uint256{}, fmt.Errorf("input index %d is out of range", i)
		}
	}

	var (
		h     = hash.NewHasher()
		w     = io.NewBinWriterFromIO(h)
		txh   = tx.Hash()
		first = Placeholder(tx.Witness(group[0]), lockSize)
	)
	w.WriteBytes(txh[:])
	w.WriteU64Bytes(first.Bytes())
	for range group[1:] {
		w.WriteU64LE(0)
	}
	for i := len(tx.Inputs); i < len(tx.Witnesses); i++ {
		w.WriteU64Bytes(tx.Witnesses[i])
	}
	if w.Err != nil {
		return util.Uint256{}, w.Err
	}
	return h.Sum(), nil
}

// ForMultisig returns the message signers of cfg have to sign for tx.
func ForMultisig(tx *transaction.Transaction, resolved []transaction.CellOutput, cfg *multisig.Config) (util.Uint256, error) {
	group, err := GroupInputs(tx, resolved, cfg.Lock())
	if err != nil {
		return util.Uint256{}, err
	}
	return Compute(tx, group, multisig.PlaceholderSize(cfg))
}
