package envelope

import (
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Cell is a resolved input or an output of the transaction.
type Cell struct {
	// Index is the position among inputs or outputs.
	Index  int
	Output transaction.CellOutput
	Data   []byte
}

// IsAssetBearing checks whether the cell carries something beyond capacity:
// a type script or data.
func (c *Cell) IsAssetBearing() bool {
	return c.Output.Type != nil || len(c.Data) != 0
}

// CellGroup is a set of cells sharing the same lock script.
type CellGroup struct {
	ScriptHash util.Uint256
	Lock       transaction.Script
	Inputs     []Cell
	Outputs    []Cell
	// Witness is the witness of the first input, nil for groups with no
	// inputs.
	Witness []byte
	// Action is the decoded multisig action for multisig locks that have one.
	Action *multisig.Action
}

// WitnessLock decodes the multisig lock of the group witness.
func (g *CellGroup) WitnessLock() (*multisig.Lock, error) {
	w, err := transaction.DecodeWitnessArgs(g.Witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedWitness, err)
	}
	return multisig.DecodeLock(w.Lock)
}

// InputIndices returns indices of the group inputs.
func (g *CellGroup) InputIndices() []int {
	res := make([]int, len(g.Inputs))
	for i := range g.Inputs {
		res[i] = g.Inputs[i].Index
	}
	return res
}

// GroupByLockScript partitions resolved inputs and then outputs by lock
// script hash. Groups are ordered by the first appearance of their lock,
// cells keep transaction order. Unresolved inputs are skipped.
func (e *Envelope) GroupByLockScript() []*CellGroup {
	var (
		groups []*CellGroup
		byHash = make(map[util.Uint256]*CellGroup)
	)
	get := func(lock *transaction.Script) *CellGroup {
		h := lock.Hash()
		g, ok := byHash[h]
		if !ok {
			g = &CellGroup{ScriptHash: h, Lock: *lock.Copy()}
			if lock.IsMultisigLock() {
				if la := e.LockAction(h); la != nil && la.IsMultisig() {
					// Undecodable data is just not shown.
					g.Action, _ = la.Multisig()
				}
			}
			byHash[h] = g
			groups = append(groups, g)
		}
		return g
	}
	for i := range e.ResolvedInputs.Outputs {
		out := &e.ResolvedInputs.Outputs[i]
		g := get(&out.Lock)
		if len(g.Inputs) == 0 {
			g.Witness = e.Payload.Witness(i)
		}
		var data []byte
		if i < len(e.ResolvedInputs.OutputsData) {
			data = e.ResolvedInputs.OutputsData[i]
		}
		g.Inputs = append(g.Inputs, Cell{Index: i, Output: out.Copy(), Data: data})
	}
	for i := range e.Payload.Outputs {
		out := &e.Payload.Outputs[i]
		g := get(&out.Lock)
		var data []byte
		if i < len(e.Payload.OutputsData) {
			data = e.Payload.OutputsData[i]
		}
		g.Outputs = append(g.Outputs, Cell{Index: i, Output: out.Copy(), Data: data})
	}
	return groups
}
