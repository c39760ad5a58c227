package io

// Serializable defines the binary encoding/decoding interface.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}

// ToByteArray serializes s into a byte slice.
func ToByteArray(s Serializable) ([]byte, error) {
	w := NewBufBinWriter()
	s.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// FromByteArray deserializes data into s requiring the whole buffer to be
// consumed.
func FromByteArray(data []byte, s Serializable) error {
	r := NewBinReaderFromBuf(data)
	s.DecodeBinary(r)
	if r.Err != nil {
		return r.Err
	}
	if r.Len() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
