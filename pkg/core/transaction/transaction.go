package transaction

import (
	"bytes"
	"encoding/json"

	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/molecule"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Transaction is a CKB transaction payload. Everything except witnesses is
// covered by its hash.
type Transaction struct {
	Version     util.Uint32    `json:"version"`
	CellDeps    []CellDep      `json:"cell_deps"`
	HeaderDeps  []util.Uint256 `json:"header_deps"`
	Inputs      []CellInput    `json:"inputs"`
	Outputs     []CellOutput   `json:"outputs"`
	OutputsData []util.Bytes   `json:"outputs_data"`
	Witnesses   []util.Bytes   `json:"witnesses"`

	hash   util.Uint256
	hashed bool
}

// transactionAux prevents MarshalJSON/UnmarshalJSON recursion.
type transactionAux Transaction

// RawBytes returns molecule serialization of the RawTransaction, i.e. the
// transaction without witnesses.
func (t *Transaction) RawBytes() []byte {
	deps := make([][]byte, len(t.CellDeps))
	for i := range t.CellDeps {
		deps[i] = t.CellDeps[i].Bytes()
	}
	headers := make([][]byte, len(t.HeaderDeps))
	for i := range t.HeaderDeps {
		headers[i] = t.HeaderDeps[i].BytesBE()
	}
	inputs := make([][]byte, len(t.Inputs))
	for i := range t.Inputs {
		inputs[i] = t.Inputs[i].Bytes()
	}
	outputs := make([][]byte, len(t.Outputs))
	for i := range t.Outputs {
		outputs[i] = t.Outputs[i].Bytes()
	}
	data := make([][]byte, len(t.OutputsData))
	for i := range t.OutputsData {
		data[i] = molecule.Bytes(t.OutputsData[i])
	}
	return molecule.Table(
		molecule.Uint32(uint32(t.Version)),
		molecule.FixVecOf(deps),
		molecule.FixVecOf(headers),
		molecule.FixVecOf(inputs),
		molecule.DynVec(outputs),
		molecule.DynVec(data),
	)
}

// Bytes returns molecule serialization of the whole transaction, the form
// accepted by the chain.
func (t *Transaction) Bytes() []byte {
	witnesses := make([][]byte, len(t.Witnesses))
	for i := range t.Witnesses {
		witnesses[i] = molecule.Bytes(t.Witnesses[i])
	}
	return molecule.Table(t.RawBytes(), molecule.DynVec(witnesses))
}

// Hash returns the transaction hash. It's computed once, the transaction
// is not supposed to change its hashed part after that.
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashed {
		t.hash = hash.Hash(t.RawBytes())
		t.hashed = true
	}
	return t.hash
}

// SetWitness puts w at the given index. The witness list is reallocated to
// max(input count, index+1) entries when it's too short, missing entries are
// empty witnesses.
func (t *Transaction) SetWitness(index int, w []byte) {
	size := len(t.Inputs)
	if index+1 > size {
		size = index + 1
	}
	if size > len(t.Witnesses) {
		ws := make([]util.Bytes, size)
		copy(ws, t.Witnesses)
		for i := len(t.Witnesses); i < size; i++ {
			ws[i] = util.Bytes{}
		}
		t.Witnesses = ws
	}
	t.Witnesses[index] = w
}

// Witness returns the witness at index or nil when there is none.
func (t *Transaction) Witness(index int) []byte {
	if index < len(t.Witnesses) {
		return t.Witnesses[index]
	}
	return nil
}

// Copy returns a deep copy of the transaction including the cached hash.
func (t *Transaction) Copy() *Transaction {
	cp := &Transaction{
		Version:     t.Version,
		CellDeps:    append([]CellDep(nil), t.CellDeps...),
		HeaderDeps:  append([]util.Uint256(nil), t.HeaderDeps...),
		Inputs:      append([]CellInput(nil), t.Inputs...),
		Outputs:     make([]CellOutput, len(t.Outputs)),
		OutputsData: make([]util.Bytes, len(t.OutputsData)),
		Witnesses:   make([]util.Bytes, len(t.Witnesses)),
		hash:        t.hash,
		hashed:      t.hashed,
	}
	for i := range t.Outputs {
		cp.Outputs[i] = t.Outputs[i].Copy()
	}
	for i := range t.OutputsData {
		cp.OutputsData[i] = bytes.Clone(t.OutputsData[i])
	}
	for i := range t.Witnesses {
		cp.Witnesses[i] = bytes.Clone(t.Witnesses[i])
	}
	return cp
}

// MarshalJSON implements the json.Marshaler interface. Nil slices are
// marshaled as empty arrays, the way CKB RPC expects.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	aux := transactionAux{
		Version:     t.Version,
		CellDeps:    nonNil(t.CellDeps),
		HeaderDeps:  nonNil(t.HeaderDeps),
		Inputs:      nonNil(t.Inputs),
		Outputs:     nonNil(t.Outputs),
		OutputsData: nonNil(t.OutputsData),
		Witnesses:   nonNil(t.Witnesses),
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	aux := new(transactionAux)
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	*t = Transaction(*aux)
	t.hashed = false
	return nil
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
