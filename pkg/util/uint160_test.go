package util_test

import (
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestUint160DecodeString(t *testing.T) {
	hexStr := "4cb239d9575deb2f62c998b74e7f0a8ee12daaaa"
	val, err := util.Uint160DecodeString(hexStr)
	require.NoError(t, err)
	require.Equal(t, hexStr, val.String())

	prefixed, err := util.Uint160DecodeString("0x" + hexStr)
	require.NoError(t, err)
	require.Equal(t, val, prefixed)

	_, err = util.Uint160DecodeString(hexStr[1:])
	require.Error(t, err)

	_, err = util.Uint160DecodeString("zz" + hexStr[2:])
	require.Error(t, err)
}

func TestUint160MapKeyJSON(t *testing.T) {
	u, err := util.Uint160DecodeString("2910442b8955ddcc0d4c43919b2c98d7e5435434")
	require.NoError(t, err)

	m := map[util.Uint160]int{u: 1}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"0x2910442b8955ddcc0d4c43919b2c98d7e5435434":1}`, string(data))

	var actual map[util.Uint160]int
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, m, actual)
}

func TestUint256JSON(t *testing.T) {
	u, err := util.Uint256DecodeString("0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8")
	require.NoError(t, err)

	data, err := json.Marshal(u)
	require.NoError(t, err)
	require.Equal(t, `"0x5c5069eb0857efc65e1bca0c07df34c31663b3622fd3876c876320fc9634e2a8"`, string(data))

	var actual util.Uint256
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, u, actual)

	require.Error(t, json.Unmarshal([]byte(`123`), &actual))
}

func TestQuantityJSON(t *testing.T) {
	var v util.Uint64
	require.NoError(t, json.Unmarshal([]byte(`"0x174876e800"`), &v))
	require.Equal(t, util.Uint64(100000000000), v)

	data, err := json.Marshal(util.Uint32(0))
	require.NoError(t, err)
	require.Equal(t, `"0x0"`, string(data))

	require.Error(t, json.Unmarshal([]byte(`"12"`), &v))

	var b util.Bytes
	require.NoError(t, json.Unmarshal([]byte(`"0x"`), &b))
	require.Empty(t, b)
}
