package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/molecule"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// DepType is a type of cell dependency.
type DepType byte

// Valid DepType values.
const (
	DepTypeCode     DepType = 0
	DepTypeDepGroup DepType = 1
)

// MarshalJSON implements the json.Marshaler interface.
func (d DepType) MarshalJSON() ([]byte, error) {
	switch d {
	case DepTypeCode:
		return json.Marshal("code")
	case DepTypeDepGroup:
		return json.Marshal("dep_group")
	}
	return nil, fmt.Errorf("unknown dep type %d", byte(d))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *DepType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "code":
		*d = DepTypeCode
	case "dep_group":
		*d = DepTypeDepGroup
	default:
		return fmt.Errorf("unknown dep type %q", s)
	}
	return nil
}

// OutPoint references an output of some transaction.
type OutPoint struct {
	TxHash util.Uint256 `json:"tx_hash"`
	Index  util.Uint32  `json:"index"`
}

// Bytes returns molecule serialization of the out point.
func (o OutPoint) Bytes() []byte {
	return molecule.Struct(o.TxHash.BytesBE(), molecule.Uint32(uint32(o.Index)))
}

// String implements the fmt.Stringer interface.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxHash.StringPrefixed(), o.Index)
}

// CellDep is a transaction cell dependency.
type CellDep struct {
	OutPoint OutPoint `json:"out_point"`
	DepType  DepType  `json:"dep_type"`
}

// Bytes returns molecule serialization of the cell dep.
func (c CellDep) Bytes() []byte {
	return molecule.Struct(c.OutPoint.Bytes(), []byte{byte(c.DepType)})
}

// CellInput is a transaction input.
type CellInput struct {
	Since          util.Uint64 `json:"since"`
	PreviousOutput OutPoint    `json:"previous_output"`
}

// Bytes returns molecule serialization of the input.
func (c CellInput) Bytes() []byte {
	return molecule.Struct(molecule.Uint64(uint64(c.Since)), c.PreviousOutput.Bytes())
}

// CellOutput is a transaction output; resolved inputs reuse it to describe
// the consumed cells.
type CellOutput struct {
	Capacity util.Uint64 `json:"capacity"`
	Lock     Script      `json:"lock"`
	Type     *Script     `json:"type"`
}

// Bytes returns molecule serialization of the output.
func (c *CellOutput) Bytes() []byte {
	var typ []byte
	if c.Type != nil {
		typ = c.Type.Bytes()
	}
	return molecule.Table(
		molecule.Uint64(uint64(c.Capacity)),
		c.Lock.Bytes(),
		molecule.Option(typ),
	)
}

// Copy returns a deep copy of the output.
func (c *CellOutput) Copy() CellOutput {
	return CellOutput{
		Capacity: c.Capacity,
		Lock:     *c.Lock.Copy(),
		Type:     c.Type.Copy(),
	}
}

// Equals checks whether two outputs are identical.
func (c *CellOutput) Equals(other *CellOutput) bool {
	return c.Capacity == other.Capacity && c.Lock.Equals(&other.Lock) && c.Type.Equals(other.Type)
}

// CellWithData is an output along with its data, it's what the chain returns
// for a live cell.
type CellWithData struct {
	Output CellOutput
	Data   []byte
}

// Copy returns a deep copy of the cell.
func (c *CellWithData) Copy() CellWithData {
	return CellWithData{Output: c.Output.Copy(), Data: bytes.Clone(c.Data)}
}
