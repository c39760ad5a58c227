/*
Package envelope implements the transaction envelope multisig participants
exchange: the transaction itself, the cells it consumes, per-lock signing
data and the signatures that are not attributed to signers yet. Envelopes are
merged and reconciled until every multisig lock has enough signatures.

An Envelope is not safe for concurrent use. Every mutating method works on a
draft copy that replaces the envelope contents only on success, so failed
calls leave the envelope untouched.
*/
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// BuildingPacketType is the only supported building packet version.
const BuildingPacketType = "BuildingPacketV1"

// ResolvedInputs are the cells consumed by transaction inputs, aligned by
// index with them.
type ResolvedInputs struct {
	Outputs     []transaction.CellOutput `json:"outputs"`
	OutputsData []util.Bytes             `json:"outputs_data"`
}

// Envelope is a transaction being signed by multisig participants.
type Envelope struct {
	Payload        *transaction.Transaction
	ResolvedInputs ResolvedInputs
	ScriptInfos    []multisig.ScriptInfo
	LockActions    []LockAction
	Pending        PendingPool
	State          State
}

type (
	envelopeAux struct {
		State             State          `json:"state"`
		PendingSignatures PendingPool    `json:"pending_signatures"`
		BuildingPacket    buildingPacket `json:"building_packet"`
	}
	buildingPacket struct {
		Type  string              `json:"type"`
		Value buildingPacketValue `json:"value"`
	}
	buildingPacketValue struct {
		Payload        *transaction.Transaction `json:"payload"`
		ResolvedInputs ResolvedInputs           `json:"resolved_inputs"`
		ScriptInfos    []multisig.ScriptInfo    `json:"script_infos"`
		LockActions    []LockAction             `json:"lock_actions"`
	}
)

// New returns a pending envelope for tx. The envelope owns tx after that.
func New(tx *transaction.Transaction) *Envelope {
	return &Envelope{
		Payload: tx,
		Pending: make(PendingPool),
		State:   StatePending,
	}
}

// Hash returns the payload hash, the identity of the envelope.
func (e *Envelope) Hash() util.Uint256 {
	return e.Payload.Hash()
}

// IsResolved checks whether every input has its consumed cell.
func (e *Envelope) IsResolved() bool {
	return len(e.ResolvedInputs.Outputs) == len(e.Payload.Inputs) &&
		len(e.ResolvedInputs.OutputsData) == len(e.Payload.Inputs)
}

// Clone returns a deep copy of the envelope sharing nothing with it.
func (e *Envelope) Clone() *Envelope {
	return &Envelope{
		Payload: e.Payload.Copy(),
		ResolvedInputs: ResolvedInputs{
			Outputs:     copyEach(e.ResolvedInputs.Outputs, (*transaction.CellOutput).Copy),
			OutputsData: copyEach(e.ResolvedInputs.OutputsData, func(b *util.Bytes) util.Bytes { return slices.Clone(*b) }),
		},
		ScriptInfos: slices.Clone(e.ScriptInfos),
		LockActions: copyEach(e.LockActions, (*LockAction).Copy),
		Pending:     e.Pending.Copy(),
		State:       e.State,
	}
}

func copyEach[E any](s []E, cp func(*E) E) []E {
	if s == nil {
		return nil
	}
	res := make([]E, len(s))
	for i := range s {
		res[i] = cp(&s[i])
	}
	return res
}

// commit replaces the envelope contents with the draft.
func (e *Envelope) commit(draft *Envelope) {
	*e = *draft
}

// LockAction returns the lock action of the script or nil.
func (e *Envelope) LockAction(scriptHash util.Uint256) *LockAction {
	for i := range e.LockActions {
		if e.LockActions[i].ScriptHash == scriptHash {
			return &e.LockActions[i]
		}
	}
	return nil
}

// AddMultisigConfig makes sure there is a multisig lock action for cfg,
// existing signatures are kept.
func (e *Envelope) AddMultisigConfig(cfg multisig.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.addScriptInfo(multisig.NewScriptInfo())
	if e.LockAction(cfg.Lock().Hash()) != nil {
		return nil
	}
	e.LockActions = append(e.LockActions, NewMultisigLockAction(multisig.NewAction(cfg)))
	return nil
}

func (e *Envelope) addScriptInfo(info multisig.ScriptInfo) {
	h := info.Hash()
	for i := range e.ScriptInfos {
		if e.ScriptInfos[i].Hash() == h {
			return
		}
	}
	e.ScriptInfos = append(e.ScriptInfos, info)
}

// MultisigActions decodes all multisig lock actions in order.
func (e *Envelope) MultisigActions() ([]*multisig.Action, error) {
	var res []*multisig.Action
	for i := range e.LockActions {
		if !e.LockActions[i].IsMultisig() {
			continue
		}
		a, err := e.LockActions[i].Multisig()
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	aux := envelopeAux{
		State:             e.State,
		PendingSignatures: e.Pending,
		BuildingPacket: buildingPacket{
			Type: BuildingPacketType,
			Value: buildingPacketValue{
				Payload: e.Payload,
				ResolvedInputs: ResolvedInputs{
					Outputs:     nonNil(e.ResolvedInputs.Outputs),
					OutputsData: nonNil(e.ResolvedInputs.OutputsData),
				},
				ScriptInfos: nonNil(e.ScriptInfos),
				LockActions: nonNil(e.LockActions),
			},
		},
	}
	if aux.PendingSignatures == nil {
		aux.PendingSignatures = PendingPool{}
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	aux := new(envelopeAux)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.BuildingPacket.Type != BuildingPacketType {
		return fmt.Errorf("unsupported building packet type %q", aux.BuildingPacket.Type)
	}
	v := aux.BuildingPacket.Value
	if v.Payload == nil {
		return errors.New("no payload")
	}
	if len(v.ResolvedInputs.Outputs) != len(v.ResolvedInputs.OutputsData) {
		return fmt.Errorf("%d resolved outputs with %d data items",
			len(v.ResolvedInputs.Outputs), len(v.ResolvedInputs.OutputsData))
	}
	if aux.PendingSignatures == nil {
		aux.PendingSignatures = make(PendingPool)
	}
	if aux.State == "" {
		aux.State = StatePending
	}
	*e = Envelope{
		Payload:        v.Payload,
		ResolvedInputs: v.ResolvedInputs,
		ScriptInfos:    v.ScriptInfos,
		LockActions:    v.LockActions,
		Pending:        aux.PendingSignatures,
		State:          aux.State,
	}
	return nil
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
