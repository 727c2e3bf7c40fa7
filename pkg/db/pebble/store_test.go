package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonform/canon/pkg/db"
)

func TestKVStore(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{
			name: "basic_put_get",
			fn:   testBasicPutGet,
		},
		{
			name: "has_and_delete",
			fn:   testHasAndDelete,
		},
		{
			name: "batch_operations",
			fn:   testBatchOperations,
		},
		{
			name: "iteration_in_key_byte_order",
			fn:   testIterationOrder,
		},
		{
			name: "store_closure",
			fn:   testStoreClosure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewMemStore()
			require.NoError(t, err)
			defer store.Close()

			tc.fn(t, store)
		})
	}
}

func testBasicPutGet(t *testing.T, store db.KVStore) {
	key := []byte("test-key")
	value := []byte("test-value")

	err := store.Put(key, value)
	require.NoError(t, err)

	retrieved, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, retrieved)

	_, err = store.Get([]byte("non-existent"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testHasAndDelete(t *testing.T, store db.KVStore) {
	key := []byte("delete-test")

	ok, err := store.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Put(key, []byte("to-be-deleted"))
	require.NoError(t, err)

	ok, err = store.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)

	err = store.Delete(key)
	require.NoError(t, err)

	_, err = store.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)

	// Delete of a non-existent key should not error
	err = store.Delete([]byte("non-existent"))
	assert.NoError(t, err)
}

func testBatchOperations(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	defer batch.Close()

	keys := [][]byte{[]byte("key1"), []byte("key2"), []byte("key3")}
	for i, k := range keys {
		err := batch.Put(k, []byte{byte(i)})
		require.NoError(t, err)
	}
	err := batch.Delete(keys[1])
	require.NoError(t, err)

	// Nothing visible before commit
	_, err = store.Get(keys[0])
	assert.ErrorIs(t, err, ErrNotFound)

	err = batch.Commit()
	require.NoError(t, err)

	val, err := store.Get(keys[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, val)

	_, err = store.Get(keys[1])
	assert.ErrorIs(t, err, ErrNotFound)

	// A spent batch rejects further use
	err = batch.Put([]byte("late"), []byte("x"))
	assert.ErrorIs(t, err, ErrBatchDone)
	err = batch.Commit()
	assert.ErrorIs(t, err, ErrBatchDone)
	assert.NoError(t, batch.Close())
}

// Pebble iterates in ascending key byte order, the same order canonical
// map encodings use, so a scan over stored objects is deterministic.
func testIterationOrder(t *testing.T, store db.KVStore) {
	// Inserted out of order on purpose.
	keys := [][]byte{{0x02}, {0x00, 0x01}, {0x01}, {0x00}}
	for _, k := range keys {
		require.NoError(t, store.Put(k, append([]byte("v"), k...)))
	}

	iter, err := store.NewIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	assert.False(t, iter.Valid())

	var scanned [][]byte
	for iter.Next() {
		require.True(t, iter.Valid())
		val, err := iter.Value()
		require.NoError(t, err)
		assert.Equal(t, append([]byte("v"), iter.Key()...), val)
		scanned = append(scanned, iter.Key())
	}
	assert.False(t, iter.Valid())

	expected := [][]byte{{0x00}, {0x00, 0x01}, {0x01}, {0x02}}
	assert.Equal(t, expected, scanned)

	_, err = iter.Value()
	assert.ErrorIs(t, err, ErrIteratorInvalid)

	// Bounded range excludes the upper bound.
	bounded, err := store.NewIterator([]byte{0x00, 0x01}, []byte{0x02})
	require.NoError(t, err)
	defer bounded.Close()

	var inRange [][]byte
	for bounded.Next() {
		inRange = append(inRange, bounded.Key())
	}
	assert.Equal(t, [][]byte{{0x00, 0x01}, {0x01}}, inRange)
}

func testStoreClosure(t *testing.T, store db.KVStore) {
	err := store.Close()
	require.NoError(t, err)

	_, err = store.Get([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	_, err = store.Has([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	err = store.Put([]byte("key"), []byte("value"))
	assert.ErrorIs(t, err, ErrClosed)

	err = store.Delete([]byte("key"))
	assert.ErrorIs(t, err, ErrClosed)

	// Double close should not error
	err = store.Close()
	assert.NoError(t, err)
}
