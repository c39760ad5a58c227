/*
Package address implements CKB address encoding. New addresses are always
produced in the full format (bech32m), deprecated short and full formats
(bech32) are accepted on decoding since external tools still emit them.
*/
package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

// Address prefixes (human-readable parts).
const (
	PrefixMainnet = "ckb"
	PrefixTestnet = "ckt"
)

// Payload format types.
const (
	formatFull     byte = 0x00
	formatShort    byte = 0x01
	formatFullData byte = 0x02
	formatFullType byte = 0x04
)

// Code hash indices of the deprecated short format.
const (
	shortIndexSecp256k1 byte = 0x00
	shortIndexMultisig  byte = 0x01
)

const fullFormatHeaderSize = 1 + util.Uint256Size + 1

// ErrInvalidAddress is returned (wrapped) for undecodable addresses.
var ErrInvalidAddress = errors.New("invalid CKB address")

// Encode returns full-format address of the script.
func Encode(script *transaction.Script, prefix string) (string, error) {
	payload := make([]byte, 0, fullFormatHeaderSize+len(script.Args))
	payload = append(payload, formatFull)
	payload = append(payload, script.CodeHash[:]...)
	payload = append(payload, byte(script.HashType))
	payload = append(payload, script.Args...)
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(prefix, data)
}

// Decode returns address prefix and the lock script it represents.
func Decode(addr string) (string, *transaction.Script, error) {
	prefix, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if prefix != PrefixMainnet && prefix != PrefixTestnet {
		return "", nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidAddress, prefix)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(payload) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidAddress)
	}
	script, err := decodePayload(payload)
	if err != nil {
		return "", nil, err
	}
	return prefix, script, nil
}

func decodePayload(payload []byte) (*transaction.Script, error) {
	switch payload[0] {
	case formatFull:
		if len(payload) < fullFormatHeaderSize {
			return nil, fmt.Errorf("%w: short full payload", ErrInvalidAddress)
		}
		s := &transaction.Script{
			HashType: transaction.HashType(payload[1+util.Uint256Size]),
			Args:     append(util.Bytes{}, payload[fullFormatHeaderSize:]...),
		}
		copy(s.CodeHash[:], payload[1:])
		return s, nil
	case formatShort:
		if len(payload) != 2+util.Uint160Size {
			return nil, fmt.Errorf("%w: bad short payload length", ErrInvalidAddress)
		}
		args, _ := util.Uint160DecodeBytes(payload[2:])
		switch payload[1] {
		case shortIndexSecp256k1:
			return transaction.NewSecp256k1Lock(args), nil
		case shortIndexMultisig:
			return transaction.NewMultisigLock(args), nil
		}
		return nil, fmt.Errorf("%w: unsupported code hash index %d", ErrInvalidAddress, payload[1])
	case formatFullData, formatFullType:
		if len(payload) < 1+util.Uint256Size {
			return nil, fmt.Errorf("%w: short full payload", ErrInvalidAddress)
		}
		s := &transaction.Script{
			HashType: transaction.HashTypeData,
			Args:     append(util.Bytes{}, payload[1+util.Uint256Size:]...),
		}
		if payload[0] == formatFullType {
			s.HashType = transaction.HashTypeType
		}
		copy(s.CodeHash[:], payload[1:])
		return s, nil
	}
	return nil, fmt.Errorf("%w: unknown format type %d", ErrInvalidAddress, payload[0])
}

// DecodeSecp256k1 decodes an address that must be a single-signature lock
// and returns its pubkey hash.
func DecodeSecp256k1(addr string) (util.Uint160, error) {
	_, s, err := Decode(addr)
	if err != nil {
		return util.Uint160{}, err
	}
	if !s.IsSecp256k1Lock() {
		return util.Uint160{}, fmt.Errorf("%w: %s is not a secp256k1 address", ErrInvalidAddress, addr)
	}
	return util.Uint160DecodeBytes(s.Args)
}

// encodeShort produces a deprecated short address, it's only needed to test
// legacy decoding.
func encodeShort(index byte, args util.Uint160, prefix string) (string, error) {
	payload := append([]byte{formatShort, index}, args[:]...)
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, data)
}
