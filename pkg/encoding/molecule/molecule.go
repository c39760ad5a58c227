/*
Package molecule implements the subset of the molecule serialization format
used by CKB transactions and cobuild messages: fixed structs, fixvec, dynvec,
table and option.

All integers are little-endian, a fixvec is prefixed with its item count, a
dynvec and a table share the "total size | offsets | items" layout.
*/
package molecule

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const headerUnit = 4

// ErrInvalid is returned (wrapped) for every structural decoding failure.
var ErrInvalid = errors.New("invalid molecule data")

// Uint32 encodes v as molecule Uint32.
func Uint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint64 encodes v as molecule Uint64.
func Uint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Struct concatenates fixed-size fields.
func Struct(fields ...[]byte) []byte {
	var n int
	for _, f := range fields {
		n += len(f)
	}
	res := make([]byte, 0, n)
	for _, f := range fields {
		res = append(res, f...)
	}
	return res
}

// Bytes encodes b as molecule Bytes (fixvec<byte>).
func Bytes(b []byte) []byte {
	return FixVec(len(b), b)
}

// FixVec encodes count fixed-size items that are already concatenated.
func FixVec(count int, items []byte) []byte {
	res := make([]byte, headerUnit, headerUnit+len(items))
	binary.LittleEndian.PutUint32(res, uint32(count))
	return append(res, items...)
}

// FixVecOf encodes a list of fixed-size items.
func FixVecOf(items [][]byte) []byte {
	return FixVec(len(items), Struct(items...))
}

// Table encodes a table with the given serialized fields.
func Table(fields ...[]byte) []byte {
	return dynamic(fields)
}

// DynVec encodes a vector of dynamically sized items.
func DynVec(items [][]byte) []byte {
	return dynamic(items)
}

// Option encodes an optional value, nil means none.
func Option(item []byte) []byte {
	if item == nil {
		return []byte{}
	}
	return item
}

func dynamic(items [][]byte) []byte {
	header := headerUnit * (len(items) + 1)
	total := header
	for _, it := range items {
		total += len(it)
	}
	res := make([]byte, header, total)
	binary.LittleEndian.PutUint32(res, uint32(total))
	offset := header
	for i, it := range items {
		binary.LittleEndian.PutUint32(res[headerUnit*(i+1):], uint32(offset))
		offset += len(it)
	}
	for _, it := range items {
		res = append(res, it...)
	}
	return res
}

// ParseTable splits a table into exactly fieldCount serialized fields.
func ParseTable(data []byte, fieldCount int) ([][]byte, error) {
	fields, err := parseDynamic(data)
	if err != nil {
		return nil, err
	}
	if len(fields) != fieldCount {
		return nil, fmt.Errorf("%w: table has %d fields, expected %d", ErrInvalid, len(fields), fieldCount)
	}
	return fields, nil
}

// ParseDynVec splits a dynvec into its items.
func ParseDynVec(data []byte) ([][]byte, error) {
	return parseDynamic(data)
}

// ParseFixVec splits a fixvec into items of itemSize bytes each.
func ParseFixVec(data []byte, itemSize int) ([][]byte, error) {
	if len(data) < headerUnit {
		return nil, fmt.Errorf("%w: fixvec header is too short", ErrInvalid)
	}
	count := int(binary.LittleEndian.Uint32(data))
	body := data[headerUnit:]
	if uint64(count)*uint64(itemSize) != uint64(len(body)) {
		return nil, fmt.Errorf("%w: fixvec of %d items has %d bytes", ErrInvalid, count, len(body))
	}
	items := make([][]byte, count)
	for i := range items {
		items[i] = body[i*itemSize : (i+1)*itemSize]
	}
	return items, nil
}

// ParseBytes decodes molecule Bytes.
func ParseBytes(data []byte) ([]byte, error) {
	if len(data) < headerUnit {
		return nil, fmt.Errorf("%w: bytes header is too short", ErrInvalid)
	}
	n := binary.LittleEndian.Uint32(data)
	if uint64(n) != uint64(len(data)-headerUnit) {
		return nil, fmt.Errorf("%w: bytes length %d mismatch", ErrInvalid, n)
	}
	return data[headerUnit:], nil
}

// ParseUint32 decodes molecule Uint32.
func ParseUint32(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("%w: uint32 of %d bytes", ErrInvalid, len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseUint64 decodes molecule Uint64.
func ParseUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: uint64 of %d bytes", ErrInvalid, len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

func parseDynamic(data []byte) ([][]byte, error) {
	if len(data) < headerUnit {
		return nil, fmt.Errorf("%w: header is too short", ErrInvalid)
	}
	total := binary.LittleEndian.Uint32(data)
	if uint64(total) != uint64(len(data)) {
		return nil, fmt.Errorf("%w: total size %d, got %d bytes", ErrInvalid, total, len(data))
	}
	if total == headerUnit {
		return [][]byte{}, nil
	}
	if len(data) < 2*headerUnit {
		return nil, fmt.Errorf("%w: missing offsets", ErrInvalid)
	}
	first := binary.LittleEndian.Uint32(data[headerUnit:])
	if first%headerUnit != 0 || first < 2*headerUnit || first > total {
		return nil, fmt.Errorf("%w: bad first offset %d", ErrInvalid, first)
	}
	count := int(first/headerUnit) - 1
	offsets := make([]uint32, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = binary.LittleEndian.Uint32(data[headerUnit*(i+1):])
	}
	offsets[count] = total
	items := make([][]byte, count)
	for i := 0; i < count; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, fmt.Errorf("%w: offsets are not ordered", ErrInvalid)
		}
		items[i] = data[offsets[i]:offsets[i+1]]
	}
	return items, nil
}
