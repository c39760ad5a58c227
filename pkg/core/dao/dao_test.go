package dao

import (
	"testing"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage"
	"github.com/nspcc-dev/ckb-multisig/pkg/core/transaction"
	"github.com/nspcc-dev/ckb-multisig/pkg/envelope"
	"github.com/nspcc-dev/ckb-multisig/pkg/multisig"
	"github.com/nspcc-dev/ckb-multisig/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestDAO(t *testing.T) *Simple {
	dao, err := NewSimple(storage.NewMemoryStore())
	require.NoError(t, err)
	return dao
}

func TestVersion(t *testing.T) {
	s := storage.NewMemoryStore()
	_, err := NewSimple(s)
	require.NoError(t, err)
	v, err := storage.Version(s)
	require.NoError(t, err)
	require.Equal(t, Version, v)

	_, err = NewSimple(s)
	require.NoError(t, err)

	require.NoError(t, storage.PutVersion(s, "0.0.1"))
	_, err = NewSimple(s)
	require.Error(t, err)
}

func TestEnvelopes(t *testing.T) {
	dao := newTestDAO(t)
	var hashes []util.Uint256
	for i := 0; i < 3; i++ {
		tx := &transaction.Transaction{Version: util.Uint32(i)}
		e := envelope.New(tx)
		require.NoError(t, dao.PutEnvelope(e))
		hashes = append(hashes, e.Hash())
	}

	e, err := dao.GetEnvelope(hashes[1])
	require.NoError(t, err)
	require.Equal(t, hashes[1], e.Hash())
	require.Equal(t, envelope.StatePending, e.State)

	list, err := dao.EnvelopeHashes()
	require.NoError(t, err)
	require.ElementsMatch(t, hashes, list)

	require.NoError(t, dao.DeleteEnvelope(hashes[1]))
	_, err = dao.GetEnvelope(hashes[1])
	require.ErrorIs(t, err, ErrNotFound)
	list, err = dao.EnvelopeHashes()
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestMultisigConfigs(t *testing.T) {
	dao := newTestDAO(t)
	cfg := &multisig.Config{Threshold: 1, Signers: []util.Uint160{{1}, {2}}}
	require.NoError(t, dao.PutMultisigConfig(cfg))
	require.Error(t, dao.PutMultisigConfig(&multisig.Config{Threshold: 3, Signers: []util.Uint160{{1}}}))

	actual, err := dao.GetMultisigConfig(cfg.Args())
	require.NoError(t, err)
	require.Equal(t, cfg, actual)

	other := &multisig.Config{RequireFirstN: 1, Threshold: 1, Signers: []util.Uint160{{3}}}
	require.NoError(t, dao.PutMultisigConfig(other))
	list, err := dao.MultisigConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, dao.DeleteMultisigConfig(cfg.Args()))
	_, err = dao.GetMultisigConfig(cfg.Args())
	require.ErrorIs(t, err, ErrNotFound)
}
