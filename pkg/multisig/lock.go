package multisig

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/ckb-multisig/pkg/crypto/keys"
	"github.com/nspcc-dev/ckb-multisig/pkg/io"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
)

const lockHeaderSize = 4

// ErrMalformedWitness is returned (wrapped) when a multisig witness lock
// can't be decoded.
var ErrMalformedWitness = errors.New("malformed multisig witness")

// Signature is a recoverable secp256k1 signature: r | s | recovery id.
type Signature [keys.SignatureSize]byte

// SignatureFromBytes converts b into a Signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	var s Signature
	if len(b) != keys.SignatureSize {
		return s, fmt.Errorf("%w: signature length %d", ErrMalformedWitness, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// String returns 0x-prefixed hex representation of the signature.
func (s Signature) String() string {
	return util.EncodeHex(s[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Signature) UnmarshalText(data []byte) error {
	b, err := util.DecodeHex(string(data))
	if err != nil {
		return err
	}
	*s, err = SignatureFromBytes(b)
	return err
}

// Lock is the content of a multisig witness lock field:
//
//	reserved(1)=0 | R(1) | M(1) | N(1) | pubkey_hash[20]×N | signature[65]×k
//
// Signatures are not positionally bound to signers, attribution is done by
// recovering the pubkey hash.
type Lock struct {
	Config     Config
	Signatures []Signature
}

// EncodeBinary implements the io.Serializable interface.
func (l *Lock) EncodeBinary(w *io.BinWriter) {
	w.WriteB(0)
	w.WriteB(l.Config.RequireFirstN)
	w.WriteB(l.Config.Threshold)
	w.WriteB(byte(len(l.Config.Signers)))
	for i := range l.Config.Signers {
		w.WriteBytes(l.Config.Signers[i][:])
	}
	for i := range l.Signatures {
		w.WriteBytes(l.Signatures[i][:])
	}
}

// DecodeBinary implements the io.Serializable interface. Signatures take the
// rest of the buffer.
func (l *Lock) DecodeBinary(r *io.BinReader) {
	if r.Len() < lockHeaderSize {
		r.Err = fmt.Errorf("%w: %d bytes is less than header size", ErrMalformedWitness, r.Len())
		return
	}
	if reserved := r.ReadB(); reserved != 0 {
		r.Err = fmt.Errorf("%w: reserved byte is %d", ErrMalformedWitness, reserved)
		return
	}
	l.Config = Config{RequireFirstN: r.ReadB(), Threshold: r.ReadB()}
	n := int(r.ReadB())
	if l.Config.RequireFirstN > l.Config.Threshold || int(l.Config.Threshold) > n {
		r.Err = fmt.Errorf("%w: inconsistent counters R=%d M=%d N=%d", ErrMalformedWitness,
			l.Config.RequireFirstN, l.Config.Threshold, n)
		return
	}
	if r.Len() < n*util.Uint160Size {
		r.Err = fmt.Errorf("%w: %d signers don't fit into %d bytes", ErrMalformedWitness, n, r.Len())
		return
	}
	l.Config.Signers = make([]util.Uint160, n)
	for i := range l.Config.Signers {
		r.ReadBytes(l.Config.Signers[i][:])
	}
	if r.Len()%keys.SignatureSize != 0 {
		r.Err = fmt.Errorf("%w: %d trailing bytes are not a signature list", ErrMalformedWitness, r.Len())
		return
	}
	l.Signatures = make([]Signature, r.Len()/keys.SignatureSize)
	for i := range l.Signatures {
		r.ReadBytes(l.Signatures[i][:])
	}
}

// Bytes encodes the lock.
func (l *Lock) Bytes() []byte {
	b, err := io.ToByteArray(l)
	if err != nil {
		// Writing into a buffer never fails.
		panic(err)
	}
	return b
}

// DecodeLock decodes a multisig witness lock validating its structure.
func DecodeLock(data []byte) (*Lock, error) {
	l := new(Lock)
	if err := io.FromByteArray(data, l); err != nil {
		if !errors.Is(err, ErrMalformedWitness) {
			err = fmt.Errorf("%w: %w", ErrMalformedWitness, err)
		}
		return nil, err
	}
	return l, nil
}

// PlaceholderSize returns the size of the lock with exactly M signatures,
// 4 + 20·N + 65·M. Signers commit to a zero-filled lock of this size.
func PlaceholderSize(c *Config) int {
	return lockHeaderSize + util.Uint160Size*len(c.Signers) + keys.SignatureSize*int(c.Threshold)
}
