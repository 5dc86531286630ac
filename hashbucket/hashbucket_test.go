package hashbucket

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/recordbag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{AvgBucketSize: 0.9}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{AvgBucketSize: 0.5}.Validate())
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{AvgBucketSize: -1}.Validate())

	var cfgErr *index.ConfigError
	assert.ErrorAs(t, Config{}.Validate(), &cfgErr)
}

func TestAddRejectsNegativeRecordID(t *testing.T) {
	w, err := NewWriter(testConfig())
	require.NoError(t, err)

	err = w.Add([]byte("key"), 1, -2)
	var idErr *index.InvalidRecordIDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, int64(-2), idErr.ID)
}

func TestWriteEmptyIndex(t *testing.T) {
	w, err := NewWriter(testConfig())
	require.NoError(t, err)

	err = w.Write(filepath.Join(t.TempDir(), "empty.bag"))
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
}

func TestLookupRoundTrip(t *testing.T) {
	w, err := NewWriter(testConfig())
	require.NoError(t, err)

	// Duplicates and unsorted order must not matter.
	require.NoError(t, w.Add([]byte("alpha"), 5, 1, 3))
	require.NoError(t, w.Add([]byte("alpha"), 3, 2))
	require.NoError(t, w.Add([]byte("beta"), 7))
	require.NoError(t, w.Add([]byte("gamma"), 0, 1<<40))
	assert.Equal(t, 3, w.NumKeys())

	path := filepath.Join(t.TempDir(), "keys.bag")
	require.NoError(t, w.Write(path))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.RequiresPostFiltering())
	assert.Equal(t, testConfig(), r.Config())

	ids, err := r.Lookup([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 5}, ids)

	ids, err = r.Lookup([]byte("beta"))
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	ids, err = r.Lookup([]byte("gamma"))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1 << 40}, ids)

	// Absence is silent.
	ids, err = r.Lookup([]byte("delta"))
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestManyKeys(t *testing.T) {
	w, err := NewWriter(testConfig(), WithCompression(recordbag.CompressionZstd))
	require.NoError(t, err)

	const n = 1000
	for i := 0; i < n; i++ {
		require.NoError(t, w.Add([]byte(fmt.Sprintf("key-%04d", i)), int64(i), int64(i+n)))
	}

	path := filepath.Join(t.TempDir(), "many.bag")
	require.NoError(t, w.Write(path))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < n; i++ {
		ids, err := r.Lookup([]byte(fmt.Sprintf("key-%04d", i)))
		require.NoError(t, err)
		require.Equal(t, []int64{int64(i), int64(i + n)}, ids)
	}
}

func TestOpenWrongFooterType(t *testing.T) {
	bag := recordbag.NewWriter()
	_, err := bag.Append(nil)
	require.NoError(t, err)
	_, err = bag.Append([]byte(`{"type":"trigram","character_set":"abc"}`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wrong.bag")
	require.NoError(t, bag.Flush(path))

	_, err = Open(path)
	var cfgErr *index.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestWriteBlobAndOpenBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := NewWriter(testConfig())
	require.NoError(t, err)
	require.NoError(t, w.Add([]byte("alpha"), 1, 2))
	require.NoError(t, w.WriteBlob(ctx, store, "idx/keys.bag"))

	blob, err := store.Open(ctx, "idx/keys.bag")
	require.NoError(t, err)

	r, err := OpenBlob(blob)
	require.NoError(t, err)
	defer r.Close()

	ids, err := r.Lookup([]byte("alpha"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()

	build := func(name string, add func(w *Writer)) string {
		w, err := NewWriter(testConfig())
		require.NoError(t, err)
		add(w)
		path := filepath.Join(dir, name)
		require.NoError(t, w.Write(path))
		return path
	}

	p1 := build("a.bag", func(w *Writer) {
		require.NoError(t, w.Add([]byte("shared"), 1, 3))
		require.NoError(t, w.Add([]byte("only-a"), 10))
	})
	p2 := build("b.bag", func(w *Writer) {
		require.NoError(t, w.Add([]byte("shared"), 2, 3))
		require.NoError(t, w.Add([]byte("only-b"), 20))
	})

	r1, err := Open(p1)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := Open(p2)
	require.NoError(t, err)
	defer r2.Close()

	out := filepath.Join(dir, "merged.bag")
	require.NoError(t, Merge(out, []*Reader{r1, r2}))

	m, err := Open(out)
	require.NoError(t, err)
	defer m.Close()

	ids, err := m.Lookup([]byte("shared"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = m.Lookup([]byte("only-a"))
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids)

	ids, err = m.Lookup([]byte("only-b"))
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, ids)
}

func TestMergeConfigMismatch(t *testing.T) {
	dir := t.TempDir()

	w1, err := NewWriter(Config{AvgBucketSize: 0.9})
	require.NoError(t, err)
	require.NoError(t, w1.Add([]byte("k"), 1))
	p1 := filepath.Join(dir, "a.bag")
	require.NoError(t, w1.Write(p1))

	w2, err := NewWriter(Config{AvgBucketSize: 2})
	require.NoError(t, err)
	require.NoError(t, w2.Add([]byte("k"), 2))
	p2 := filepath.Join(dir, "b.bag")
	require.NoError(t, w2.Write(p2))

	r1, err := Open(p1)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := Open(p2)
	require.NoError(t, err)
	defer r2.Close()

	err = Merge(filepath.Join(dir, "out.bag"), []*Reader{r1, r2})
	var cfgErr *index.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
