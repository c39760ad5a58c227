package envelope

import (
	"bytes"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// LockAction is the data a lock script needs to produce its witness. Its
// ScriptInfoHash tells how to interpret Data.
type LockAction struct {
	ScriptInfoHash util.Uint256 `json:"script_info_hash"`
	ScriptHash     util.Uint256 `json:"script_hash"`
	Data           util.Bytes   `json:"data"`
}

// NewMultisigLockAction returns a lock action for the multisig action.
func NewMultisigLockAction(a *multisig.Action) LockAction {
	return LockAction{
		ScriptInfoHash: multisig.ScriptInfoHash,
		ScriptHash:     a.Config.Lock().Hash(),
		Data:           a.Bytes(),
	}
}

// IsMultisig checks whether the action carries multisig data.
func (la *LockAction) IsMultisig() bool {
	return la.ScriptInfoHash == multisig.ScriptInfoHash
}

// Multisig decodes multisig action data.
func (la *LockAction) Multisig() (*multisig.Action, error) {
	if !la.IsMultisig() {
		return nil, fmt.Errorf("lock action %s is not a multisig one", la.ScriptHash.StringPrefixed())
	}
	a, err := multisig.DecodeAction(la.Data)
	if err != nil {
		return nil, fmt.Errorf("lock action %s: %w", la.ScriptHash.StringPrefixed(), err)
	}
	if h := a.Config.Lock().Hash(); h != la.ScriptHash {
		return nil, fmt.Errorf("lock action %s: config belongs to %s", la.ScriptHash.StringPrefixed(), h.StringPrefixed())
	}
	return a, nil
}

// Copy returns a deep copy of the action.
func (la *LockAction) Copy() LockAction {
	return LockAction{
		ScriptInfoHash: la.ScriptInfoHash,
		ScriptHash:     la.ScriptHash,
		Data:           bytes.Clone(la.Data),
	}
}
