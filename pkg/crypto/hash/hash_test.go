package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashEmpty(t *testing.T) {
	// Well-known CKB hash of the empty input.
	require.Equal(t, "44f4c69744d5f8c55d642062949dcae49bc4e7ef43d388c5a12f42b5633d163e", Hash(nil).String())
}

func TestHasherIncremental(t *testing.T) {
	data := []byte("multisig")
	require.Equal(t, Hash(data), NewHasher().Update(data[:5], data[5:]).Sum())

	h := NewHasher()
	_, err := h.Write(data)
	require.NoError(t, err)
	require.Equal(t, Hash(data), h.Sum())
}

func TestBlake160(t *testing.T) {
	data := []byte{1, 2, 3}
	full := Hash(data)
	short := Blake160(data)
	require.Equal(t, full[:20], short[:])
}
