package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/hash"
	"github.com/nspcc-dev/ckb-multisig/pkg/encoding/molecule"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// HashType denotes how Script.CodeHash is matched against cell deps.
type HashType byte

// Valid HashType values.
const (
	HashTypeData  HashType = 0
	HashTypeType  HashType = 1
	HashTypeData1 HashType = 2
	HashTypeData2 HashType = 4
)

var hashTypeNames = map[HashType]string{
	HashTypeData:  "data",
	HashTypeType:  "type",
	HashTypeData1: "data1",
	HashTypeData2: "data2",
}

// String implements the fmt.Stringer interface.
func (h HashType) String() string {
	if s, ok := hashTypeNames[h]; ok {
		return s
	}
	return fmt.Sprintf("HashType(%d)", byte(h))
}

// MarshalJSON implements the json.Marshaler interface.
func (h HashType) MarshalJSON() ([]byte, error) {
	s, ok := hashTypeNames[h]
	if !ok {
		return nil, fmt.Errorf("unknown hash type %d", byte(h))
	}
	return json.Marshal(s)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *HashType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range hashTypeNames {
		if v == s {
			*h = k
			return nil
		}
	}
	return fmt.Errorf("unknown hash type %q", s)
}

// Script is a CKB lock or type script.
type Script struct {
	CodeHash util.Uint256 `json:"code_hash"`
	HashType HashType     `json:"hash_type"`
	Args     util.Bytes   `json:"args"`
}

// Bytes returns molecule serialization of the script.
func (s *Script) Bytes() []byte {
	return molecule.Table(
		s.CodeHash.BytesBE(),
		[]byte{byte(s.HashType)},
		molecule.Bytes(s.Args),
	)
}

// Hash returns script hash, the CKB hash of its serialization.
func (s *Script) Hash() util.Uint256 {
	return hash.Hash(s.Bytes())
}

// Equals checks whether two scripts are identical.
func (s *Script) Equals(other *Script) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.CodeHash == other.CodeHash && s.HashType == other.HashType &&
		bytes.Equal(s.Args, other.Args)
}

// Copy returns a deep copy of the script, nil for nil.
func (s *Script) Copy() *Script {
	if s == nil {
		return nil
	}
	return &Script{
		CodeHash: s.CodeHash,
		HashType: s.HashType,
		Args:     bytes.Clone(s.Args),
	}
}
