package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// Uint256 is a 32 byte long value used for all CKB hashes (transaction hash,
// script hash, code hash).
type Uint256 [Uint256Size]uint8

// Uint256DecodeString attempts to decode the given hex string (with or
// without 0x prefix) into an Uint256.
func Uint256DecodeString(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint256Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytes(b)
}

// Uint256DecodeBytes attempts to decode the given bytes into an Uint256.
func Uint256DecodeBytes(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("expected []byte of size %d got %d", Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// BytesBE returns a byte slice representation of u.
func (u Uint256) BytesBE() []byte {
	return u[:]
}

// Equals returns true if both Uint256 values are the same.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// String implements the stringer interface.
func (u Uint256) String() string {
	return hex.EncodeToString(u[:])
}

// StringPrefixed returns 0x-prefixed hex representation of u.
func (u Uint256) StringPrefixed() string {
	return "0x" + u.String()
}

// MarshalText implements the encoding.TextMarshaler interface.
func (u Uint256) MarshalText() ([]byte, error) {
	return []byte(u.StringPrefixed()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (u *Uint256) UnmarshalText(data []byte) (err error) {
	*u, err = Uint256DecodeString(string(data))
	return err
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint256DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.StringPrefixed() + `"`), nil
}
