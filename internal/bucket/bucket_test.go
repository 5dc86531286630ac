package bucket

import (
	"fmt"
	"testing"

	"github.com/bagidx/bagidx/recordbag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTable(t *testing.T, b *Builder) (*recordbag.Reader, Stats) {
	t.Helper()

	w := recordbag.NewWriter()
	stats, err := b.Build(w)
	require.NoError(t, err)

	path := t.TempDir() + "/table.bag"
	require.NoError(t, w.Flush(path))

	r, err := recordbag.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	require.Equal(t, stats.NumBuckets, r.Count())
	return r, stats
}

func TestNumBuckets(t *testing.T) {
	assert.Equal(t, int64(1), NumBuckets(0, 8))
	assert.Equal(t, int64(1), NumBuckets(7, 8))
	assert.Equal(t, int64(1), NumBuckets(8, 8))
	assert.Equal(t, int64(2), NumBuckets(16, 8))
	assert.Equal(t, int64(12), NumBuckets(100, 8))
	assert.Equal(t, int64(100), NumBuckets(100, 0))
	// Occupancy below one spreads keys over more buckets than keys.
	assert.Equal(t, int64(20), NumBuckets(10, 0.5))
}

func TestBuildAndLookup(t *testing.T) {
	b := NewBuilder(4)
	const n = 100
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%03d", i)
		payload := fmt.Sprintf("payload-%03d", i)
		b.Add([]byte(key), []byte(payload))
	}
	require.Equal(t, n, b.Len())

	r, stats := buildTable(t, b)
	assert.Equal(t, int64(n), stats.NumKeys)
	assert.Equal(t, int64(25), stats.NumBuckets)
	assert.Positive(t, stats.OccupiedBuckets)
	assert.Positive(t, stats.MaxBucketLen)

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%03d", i)
		payload, ok, err := Lookup(r, stats.NumBuckets, []byte(key))
		require.NoError(t, err)
		require.True(t, ok, "key %q", key)
		assert.Equal(t, fmt.Sprintf("payload-%03d", i), string(payload))
	}

	_, ok, err := Lookup(r, stats.NumBuckets, []byte("absent"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyTable(t *testing.T) {
	r, stats := buildTable(t, NewBuilder(8))
	assert.Equal(t, int64(1), stats.NumBuckets)
	assert.Equal(t, int64(0), stats.OccupiedBuckets)

	_, ok, err := Lookup(r, stats.NumBuckets, []byte("anything"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyPayload(t *testing.T) {
	b := NewBuilder(8)
	b.Add([]byte("key"), nil)

	r, stats := buildTable(t, b)
	payload, ok, err := Lookup(r, stats.NumBuckets, []byte("key"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, payload)
}

func TestDuplicateKeyRejected(t *testing.T) {
	b := NewBuilder(8)
	b.Add([]byte("key"), []byte("one"))
	b.Add([]byte("key"), []byte("two"))

	_, err := b.Build(recordbag.NewWriter())
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestIterate(t *testing.T) {
	b := NewBuilder(4)
	want := map[string]string{}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%02d", i)
		want[key] = fmt.Sprintf("p%02d", i)
		b.Add([]byte(key), []byte(want[key]))
	}

	r, stats := buildTable(t, b)

	got := map[string]string{}
	err := Iterate(r, stats.NumBuckets, func(key, payload []byte) error {
		got[string(key)] = string(payload)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
