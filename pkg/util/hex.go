package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Bytes is a byte slice marshaled to JSON as a 0x-prefixed hex string.
type Bytes []byte

// DecodeHex decodes a 0x-prefixed (or bare) hex string.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// EncodeHex returns 0x-prefixed hex representation of b.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// MarshalJSON implements the json.Marshaler interface.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeHex(b))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := DecodeHex(s)
	if err != nil {
		return fmt.Errorf("invalid hex bytes: %w", err)
	}
	*b = raw
	return nil
}

// Uint32 is a number marshaled to JSON as a 0x-prefixed hex quantity, the
// way CKB RPC represents integers.
type Uint32 uint32

// Uint64 is a 64-bit Uint32 counterpart.
type Uint64 uint64

// MarshalJSON implements the json.Marshaler interface.
func (u Uint32) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + strconv.FormatUint(uint64(u), 16))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *Uint32) UnmarshalJSON(data []byte) error {
	v, err := unmarshalQuantity(data, 32)
	*u = Uint32(v)
	return err
}

// MarshalJSON implements the json.Marshaler interface.
func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + strconv.FormatUint(uint64(u), 16))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *Uint64) UnmarshalJSON(data []byte) error {
	v, err := unmarshalQuantity(data, 64)
	*u = Uint64(v)
	return err
}

func unmarshalQuantity(data []byte, bits int) (uint64, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("quantity %q lacks 0x prefix", s)
	}
	return strconv.ParseUint(s[2:], 16, bits)
}
