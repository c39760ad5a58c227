package envelope

import (
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/sighash"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// setGroupWitnesses puts the action lock into the witness of the first group
// input keeping its input_type and output_type, other group inputs get empty
// witnesses.
func (e *Envelope) setGroupWitnesses(group []int, a *multisig.Action) {
	w, err := transaction.DecodeWitnessArgs(e.Payload.Witness(group[0]))
	if err != nil {
		w = new(transaction.WitnessArgs)
	}
	w.Lock = a.Lock().Bytes()
	e.Payload.SetWitness(group[0], w.Bytes())
	for _, i := range group[1:] {
		e.Payload.SetWitness(i, util.Bytes{})
	}
}

// regenerateWitnesses rebuilds witnesses of every signed multisig group.
// It does nothing until inputs are resolved.
func (e *Envelope) regenerateWitnesses() error {
	if !e.IsResolved() {
		return nil
	}
	for i := range e.LockActions {
		if !e.LockActions[i].IsMultisig() {
			continue
		}
		a, err := e.LockActions[i].Multisig()
		if err != nil {
			return err
		}
		if len(a.Signed) == 0 {
			continue
		}
		group, err := sighash.GroupInputs(e.Payload, e.ResolvedInputs.Outputs, a.Config.Lock())
		if err != nil {
			// Lock actions for locks not used by inputs have no witness.
			continue
		}
		e.setGroupWitnesses(group, a)
	}
	return nil
}

// harvestWitnesses moves signatures found in multisig witnesses of the
// incoming transaction to the pending pool unless they're attributed
// already. Witnesses that can't be decoded are ignored.
func (e *Envelope) harvestWitnesses(incoming *transaction.Transaction) {
	if !e.IsResolved() {
		return
	}
	for i := range e.LockActions {
		if !e.LockActions[i].IsMultisig() {
			continue
		}
		a, err := e.LockActions[i].Multisig()
		if err != nil {
			continue
		}
		group, err := sighash.GroupInputs(e.Payload, e.ResolvedInputs.Outputs, a.Config.Lock())
		if err != nil {
			continue
		}
		w, err := transaction.DecodeWitnessArgs(incoming.Witness(group[0]))
		if err != nil {
			continue
		}
		l, err := multisig.DecodeLock(w.Lock)
		if err != nil || !l.Config.Equals(&a.Config) {
			continue
		}
		args := a.Config.Args()
		for _, sig := range l.Signatures {
			if !hasSignature(a, sig) {
				e.Pending.Add(args, sig)
			}
		}
	}
}

func hasSignature(a *multisig.Action, sig multisig.Signature) bool {
	for i := range a.Signed {
		if a.Signed[i].Signature == sig {
			return true
		}
	}
	return false
}
