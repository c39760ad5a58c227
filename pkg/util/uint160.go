package util

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Uint160Size is the size of Uint160 in bytes.
const Uint160Size = 20

// Uint160 is a 20 byte long value. It's used for blake160 pubkey hashes and
// multisig lock args.
type Uint160 [Uint160Size]uint8

// Uint160DecodeString attempts to decode the given hex string (with or
// without 0x prefix) into an Uint160.
func Uint160DecodeString(s string) (u Uint160, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint160Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Uint160Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint160DecodeBytes(b)
}

// Uint160DecodeBytes attempts to decode the given bytes into an Uint160.
func Uint160DecodeBytes(b []byte) (u Uint160, err error) {
	if len(b) != Uint160Size {
		return u, fmt.Errorf("expected byte size of %d got %d", Uint160Size, len(b))
	}
	copy(u[:], b)
	return
}

// BytesBE returns a byte slice representation of u.
func (u Uint160) BytesBE() []byte {
	return u[:]
}

// String implements the stringer interface.
func (u Uint160) String() string {
	return hex.EncodeToString(u[:])
}

// StringPrefixed returns 0x-prefixed hex representation of u as used by CKB
// JSON documents.
func (u Uint160) StringPrefixed() string {
	return "0x" + u.String()
}

// Equals returns true if both Uint160 values are the same.
func (u Uint160) Equals(other Uint160) bool {
	return u == other
}

// Less returns true if u is lexicographically smaller than other.
func (u Uint160) Less(other Uint160) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

// MarshalText implements the encoding.TextMarshaler interface, it allows to
// use Uint160 as a JSON map key.
func (u Uint160) MarshalText() ([]byte, error) {
	return []byte(u.StringPrefixed()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (u *Uint160) UnmarshalText(data []byte) (err error) {
	*u, err = Uint160DecodeString(string(data))
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint160) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.StringPrefixed() + `"`), nil
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint160) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint160DecodeString(js)
	return err
}
