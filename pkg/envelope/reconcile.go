package envelope

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/sighash"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Merge adds everything incoming knows about the same transaction to e:
// lock actions (signatures are superseded by signer), pending signatures,
// non-empty witnesses, script infos and resolved inputs if e has none.
// Pending signatures are not resolved here, see ResolvePendingSignatures.
func (e *Envelope) Merge(incoming *Envelope) error {
	if h, ih := e.Hash(), incoming.Hash(); h != ih {
		return fmt.Errorf("%w: %s vs %s", ErrPayloadMismatch, h.StringPrefixed(), ih.StringPrefixed())
	}
	d := e.Clone()
	if err := d.mergeLockActions(incoming.LockActions); err != nil {
		return err
	}
	d.Pending.Merge(incoming.Pending)
	for i := range incoming.ScriptInfos {
		d.addScriptInfo(incoming.ScriptInfos[i])
	}
	if !d.IsResolved() && incoming.IsResolved() {
		d.ResolvedInputs = incoming.Clone().ResolvedInputs
	}
	d.harvestWitnesses(incoming.Payload)
	d.mergeWitnesses(incoming.Payload)
	if err := d.regenerateWitnesses(); err != nil {
		return err
	}
	d.evaluate()
	e.commit(d)
	return nil
}

func (e *Envelope) mergeLockActions(incoming []LockAction) error {
	for i := range incoming {
		in := &incoming[i]
		existing := e.LockAction(in.ScriptHash)
		switch {
		case existing == nil:
			e.LockActions = append(e.LockActions, in.Copy())
		case !in.IsMultisig() || !existing.IsMultisig():
			*existing = in.Copy()
		default:
			ea, err := existing.Multisig()
			if err != nil {
				return err
			}
			ia, err := in.Multisig()
			if err != nil {
				return err
			}
			ea.Merge(ia.Signed)
			existing.Data = ea.Bytes()
		}
	}
	return nil
}

// mergeWitnesses copies non-empty witnesses of incoming. The witness list is
// sized once to hold the last of them.
func (e *Envelope) mergeWitnesses(incoming *transaction.Transaction) {
	last := -1
	for i := range incoming.Witnesses {
		if len(incoming.Witnesses[i]) != 0 {
			last = i
		}
	}
	if last < 0 {
		return
	}
	e.Payload.SetWitness(last, bytes.Clone(incoming.Witnesses[last]))
	for i := 0; i < last; i++ {
		if len(incoming.Witnesses[i]) != 0 {
			e.Payload.Witnesses[i] = bytes.Clone(incoming.Witnesses[i])
		}
	}
}

// ResolvePendingSignatures attributes pending signatures to signers by
// recovering their public keys and moves them into multisig lock actions.
// Unattributed signatures of the envelope's own multisig witnesses are
// resolved too. Every pending signature must belong to a known multisig lock
// and to one of its signers, otherwise nothing is changed. Readiness is
// evaluated on success.
func (e *Envelope) ResolvePendingSignatures() error {
	d := e.Clone()
	d.harvestWitnesses(d.Payload)
	if d.Pending.Len() != 0 {
		if !d.IsResolved() {
			return fmt.Errorf("%w: %d of %d inputs resolved", ErrMissingResolvedInputs,
				len(d.ResolvedInputs.Outputs), len(d.Payload.Inputs))
		}
		for _, args := range d.Pending.Args() {
			if err := d.resolve(args); err != nil {
				return fmt.Errorf("lock args %s: %w", args.StringPrefixed(), err)
			}
		}
		d.Pending = make(PendingPool)
	}
	if err := d.regenerateWitnesses(); err != nil {
		return err
	}
	d.evaluate()
	e.commit(d)
	return nil
}

func (e *Envelope) resolve(args util.Uint160) error {
	la := e.LockAction(transaction.NewMultisigLock(args).Hash())
	if la == nil || !la.IsMultisig() {
		return ErrUnknownMultisigConfig
	}
	a, err := la.Multisig()
	if err != nil {
		return err
	}
	msg, err := sighash.ForMultisig(e.Payload, e.ResolvedInputs.Outputs, &a.Config)
	if err != nil {
		return err
	}
	for _, sig := range e.Pending[args] {
		pkh, err := keys.RecoverPubkeyHash(sig[:], msg)
		if err != nil {
			return err
		}
		if !a.Config.Contains(pkh) {
			return fmt.Errorf("%w: %s", ErrUnauthorizedSigner, pkh.StringPrefixed())
		}
		a.Add(multisig.SignedPair{PubkeyHash: pkh, Signature: sig})
	}
	la.Data = a.Bytes()
	return nil
}

// AddSignature signs every multisig lock the key is a signer of and returns
// the number of signed locks.
func (e *Envelope) AddSignature(priv *keys.PrivateKey) (int, error) {
	d := e.Clone()
	if !d.IsResolved() {
		return 0, ErrMissingResolvedInputs
	}
	var (
		pkh = priv.PubkeyHash()
		n   int
	)
	for i := range d.LockActions {
		la := &d.LockActions[i]
		if !la.IsMultisig() {
			continue
		}
		a, err := la.Multisig()
		if err != nil {
			return 0, err
		}
		if !a.Config.Contains(pkh) {
			continue
		}
		msg, err := sighash.ForMultisig(d.Payload, d.ResolvedInputs.Outputs, &a.Config)
		if errors.Is(err, sighash.ErrEmptyGroup) {
			continue
		}
		if err != nil {
			return 0, err
		}
		a.Add(multisig.SignedPair{PubkeyHash: pkh, Signature: priv.SignHash(msg)})
		la.Data = a.Bytes()
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s doesn't sign any multisig input", ErrUnauthorizedSigner, pkh.StringPrefixed())
	}
	if err := d.regenerateWitnesses(); err != nil {
		return 0, err
	}
	d.evaluate()
	e.commit(d)
	return n, nil
}

// SetResolvedInputs sets the cells consumed by transaction inputs, cells may
// come in any order. Every input must have its cell. Signatures found in
// multisig witnesses are moved to the pending pool before witnesses are
// regenerated, readiness isn't changed until they're resolved.
func (e *Envelope) SetResolvedInputs(cells map[transaction.OutPoint]transaction.CellWithData) error {
	var (
		n = len(e.Payload.Inputs)
		r = ResolvedInputs{
			Outputs:     make([]transaction.CellOutput, n),
			OutputsData: make([]util.Bytes, n),
		}
	)
	for i := range e.Payload.Inputs {
		op := e.Payload.Inputs[i].PreviousOutput
		c, ok := cells[op]
		if !ok {
			return fmt.Errorf("%w: no cell for %s", ErrMissingResolvedInputs, op)
		}
		r.Outputs[i] = c.Output.Copy()
		r.OutputsData[i] = bytes.Clone(c.Data)
		if r.OutputsData[i] == nil {
			r.OutputsData[i] = util.Bytes{}
		}
	}
	d := e.Clone()
	d.ResolvedInputs = r
	d.harvestWitnesses(d.Payload)
	if err := d.regenerateWitnesses(); err != nil {
		return err
	}
	e.commit(d)
	return nil
}
