package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/ckb-multisig/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

type dbSetup struct {
	name   string
	create func(testing.TB) Store
}

type dbTestFunction func(*testing.T, Store)

func newBoltStoreForTesting(t testing.TB) Store {
	d := t.TempDir()
	testFileName := filepath.Join(d, "test_bolt_db")
	boltDBStore, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: testFileName})
	require.NoError(t, err)
	return boltDBStore
}

func newMemoryStoreForTesting(t testing.TB) Store {
	return NewMemoryStore()
}

func testStoreGetNonExistent(t *testing.T, s Store) {
	_, err := s.Get([]byte("sparse"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func testStorePutGetDelete(t *testing.T, s Store) {
	key, value := []byte("foo"), []byte("bar")
	require.NoError(t, s.Put(key, value))
	actual, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, actual)

	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.NoError(t, s.Delete(key))
}

func testStoreChangeSet(t *testing.T, s Store) {
	require.NoError(t, s.Put([]byte("gone"), []byte{1}))
	require.NoError(t, s.PutChangeSet(map[string][]byte{
		"a":    {1},
		"b":    {2},
		"gone": nil,
	}))
	v, err := s.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, v)
	_, err = s.Get([]byte("gone"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func testStoreSeek(t *testing.T, s Store) {
	kvs := []KeyValue{
		{[]byte("10"), []byte("bar")},
		{[]byte("21"), []byte("barc")},
		{[]byte("20"), []byte("barb")},
		{[]byte("22"), []byte("bard")},
		{[]byte("30"), []byte("bare")},
	}
	for _, kv := range kvs {
		require.NoError(t, s.Put(kv.Key, kv.Value))
	}
	var actual []KeyValue
	s.Seek([]byte("2"), func(k, v []byte) bool {
		actual = append(actual, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		return true
	})
	require.Equal(t, []KeyValue{kvs[2], kvs[1], kvs[3]}, actual)

	actual = actual[:0]
	s.Seek([]byte("2"), func(k, v []byte) bool {
		actual = append(actual, KeyValue{Key: bytes.Clone(k), Value: bytes.Clone(v)})
		return false
	})
	require.Equal(t, []KeyValue{kvs[2]}, actual)

	var n int
	s.Seek([]byte("4"), func(k, v []byte) bool {
		n++
		return true
	})
	require.Zero(t, n)
}

func TestAllDBs(t *testing.T) {
	var DBs = []dbSetup{
		{"BoltDB", newBoltStoreForTesting},
		{"Memory", newMemoryStoreForTesting},
	}
	var tests = []struct {
		name string
		f    dbTestFunction
	}{
		{"GetNonExistent", testStoreGetNonExistent},
		{"PutGetDelete", testStorePutGetDelete},
		{"ChangeSet", testStoreChangeSet},
		{"Seek", testStoreSeek},
	}
	for _, db := range DBs {
		for _, test := range tests {
			s := db.create(t)
			t.Run(db.name+"/"+test.name, func(t *testing.T) {
				test.f(t, s)
			})
			require.NoError(t, s.Close())
		}
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(dbconfig.DBConfiguration{Type: "unknown"})
	require.Error(t, err)

	s, err = NewStore(dbconfig.DBConfiguration{
		Type:          dbconfig.BoltDB,
		BoltDBOptions: dbconfig.BoltDBOptions{FilePath: filepath.Join(t.TempDir(), "sub", "db")},
	})
	require.NoError(t, err)
	require.NoError(t, PutVersion(s, "1.0"))
	v, err := Version(s)
	require.NoError(t, err)
	require.Equal(t, "1.0", v)
	require.NoError(t, s.Close())
}
