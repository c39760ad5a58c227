package transaction

import (
	"bytes"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/io"
)

// WitnessArgs is a generic witness wrapper carrying lock, input_type and
// output_type fields. Each field is prefixed with its length encoded as
// little-endian uint64, an absent field is encoded as zero length.
type WitnessArgs struct {
	Lock       []byte
	InputType  []byte
	OutputType []byte
}

// EncodeBinary implements the io.Serializable interface.
func (w *WitnessArgs) EncodeBinary(bw *io.BinWriter) {
	bw.WriteU64Bytes(w.Lock)
	bw.WriteU64Bytes(w.InputType)
	bw.WriteU64Bytes(w.OutputType)
}

// DecodeBinary implements the io.Serializable interface.
func (w *WitnessArgs) DecodeBinary(br *io.BinReader) {
	w.Lock = br.ReadU64Bytes()
	w.InputType = br.ReadU64Bytes()
	w.OutputType = br.ReadU64Bytes()
}

// Bytes returns serialized witness.
func (w *WitnessArgs) Bytes() []byte {
	b, err := io.ToByteArray(w)
	if err != nil {
		// Writing into a buffer never fails.
		panic(err)
	}
	return b
}

// IsEmpty returns true if all witness fields are empty.
func (w *WitnessArgs) IsEmpty() bool {
	return len(w.Lock) == 0 && len(w.InputType) == 0 && len(w.OutputType) == 0
}

// Copy returns a deep copy of the witness.
func (w *WitnessArgs) Copy() *WitnessArgs {
	return &WitnessArgs{
		Lock:       bytes.Clone(w.Lock),
		InputType:  bytes.Clone(w.InputType),
		OutputType: bytes.Clone(w.OutputType),
	}
}

// DecodeWitnessArgs decodes a serialized witness. A zero-length witness is
// treated as an empty wrapper.
func DecodeWitnessArgs(data []byte) (*WitnessArgs, error) {
	w := new(WitnessArgs)
	if len(data) == 0 {
		return w, nil
	}
	if err := io.FromByteArray(data, w); err != nil {
		return nil, fmt.Errorf("bad witness: %w", err)
	}
	return w, nil
}
