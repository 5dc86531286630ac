package trigram

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lowercase = "abcdefghijklmnopqrstuvwxyz"

func buildIndex(t *testing.T, config Config, docs map[int64]string, optFns ...Option) *Reader {
	t.Helper()

	w, err := NewWriter(config, optFns...)
	require.NoError(t, err)
	for id, text := range docs {
		require.NoError(t, w.AddText(text, id))
	}

	path := filepath.Join(t.TempDir(), "text.bag")
	require.NoError(t, w.Write(path))

	r, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{CharacterSet: lowercase}.Validate())
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{NGramSize: -1}.Validate())
	assert.Error(t, Config{Normalize: true}.Validate())
}

func TestNormalize(t *testing.T) {
	norm := newNormalizer(Config{CharacterSet: lowercase, Normalize: true})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Hello World", "hello world"},
		{"collapses runs", "a--_-b", "a b"},
		{"trims edges", "  hello!  ", "hello"},
		{"digits replaced", "abc123def", "abc def"},
		{"empty", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, norm.normalize(tt.in))
		})
	}

	verbatim := newNormalizer(Config{CharacterSet: lowercase})
	assert.Equal(t, "Hello, World!", verbatim.normalize("Hello, World!"))
}

func TestSearchCandidates(t *testing.T) {
	r := buildIndex(t, Config{CharacterSet: lowercase}, map[int64]string{
		0: "hello world",
		1: "world of wonders",
		2: "hello there",
	})

	assert.True(t, r.RequiresPostFiltering())

	ids, err := r.Search("world")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids)

	ids, err = r.Search("hello")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 2}, ids)

	ids, err = r.Search("missing")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestSearchPositional(t *testing.T) {
	config := Config{CharacterSet: lowercase, Normalize: true, StorePositions: true}
	r := buildIndex(t, config, map[int64]string{
		0: "Hello World",
		1: "world of wonders",
		2: "hello there",
	})

	assert.False(t, r.RequiresPostFiltering())

	ids, err := r.Search("world")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids)

	ids, err = r.Search("hello there")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)

	ids, err = r.Search("world of")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	// All n-grams present across documents but never contiguous.
	ids, err = r.Search("there world")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestPositionalEliminatesFalsePositives(t *testing.T) {
	// Contains every n-gram of "search" ("sea", "ear", "arc", "rch")
	// without containing the substring itself.
	docs := map[int64]string{
		3: "sea hearing arch",
		4: "the sea archers",
	}

	simple := buildIndex(t, Config{CharacterSet: lowercase, Normalize: true}, docs)
	ids, err := simple.Search("search")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids, "candidate search expected a false positive")

	positional := buildIndex(t, Config{CharacterSet: lowercase, Normalize: true, StorePositions: true}, docs)
	ids, err = positional.Search("search")
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = positional.Search("sea archers")
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)
}

func TestQueryTooShort(t *testing.T) {
	r := buildIndex(t, Config{CharacterSet: lowercase, Normalize: true}, map[int64]string{
		0: "hello world",
	})

	_, err := r.Search("he")
	var tooShort *index.QueryTooShortError
	require.ErrorAs(t, err, &tooShort)
	assert.Equal(t, 2, tooShort.Length)
	assert.Equal(t, 3, tooShort.NGramSize)

	// Normalization can shrink a query below the threshold.
	_, err = r.Search("ab!!!")
	assert.ErrorAs(t, err, &tooShort)
}

func TestShortDocumentContributesNothing(t *testing.T) {
	r := buildIndex(t, Config{CharacterSet: lowercase}, map[int64]string{
		0: "ab",
		1: "abcd",
	})

	ids, err := r.Search("abc")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestWriteEmptyIndex(t *testing.T) {
	w, err := NewWriter(Config{CharacterSet: lowercase})
	require.NoError(t, err)

	err = w.Write(filepath.Join(t.TempDir(), "empty.bag"))
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
}

func TestAddTextRejectsNegativeRecordID(t *testing.T) {
	w, err := NewWriter(Config{CharacterSet: lowercase})
	require.NoError(t, err)

	err = w.AddText("hello", -1)
	var idErr *index.InvalidRecordIDError
	assert.ErrorAs(t, err, &idErr)
}

func TestDeltaEncodingTransparent(t *testing.T) {
	docs := map[int64]string{
		0:   "hello world",
		5:   "world of wonders",
		999: "another world entirely",
	}

	for _, positions := range []bool{false, true} {
		config := Config{
			CharacterSet:         lowercase,
			Normalize:            true,
			StorePositions:       positions,
			DeltaEncodeRecordIDs: true,
		}
		r := buildIndex(t, config, docs)

		ids, err := r.Search("world")
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 5, 999}, ids)
	}
}

func TestDuplicateDocumentIdempotent(t *testing.T) {
	config := Config{CharacterSet: lowercase, Normalize: true, StorePositions: true}
	w, err := NewWriter(config)
	require.NoError(t, err)
	require.NoError(t, w.AddText("hello world", 0))
	require.NoError(t, w.AddText("hello world", 0))

	path := filepath.Join(t.TempDir(), "dup.bag")
	require.NoError(t, w.Write(path))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	ids, err := r.Search("hello world")
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, ids)
}

func TestWriteBlobAndOpenBlob(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w, err := NewWriter(Config{CharacterSet: lowercase, Normalize: true, StorePositions: true})
	require.NoError(t, err)
	require.NoError(t, w.AddText("hello world", 0))
	require.NoError(t, w.WriteBlob(ctx, store, "idx/text.bag"))

	blob, err := store.Open(ctx, "idx/text.bag")
	require.NoError(t, err)

	r, err := OpenBlob(blob)
	require.NoError(t, err)
	defer r.Close()

	ids, err := r.Search("hello")
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, ids)
}

func TestMergeEquivalentToSingleBuild(t *testing.T) {
	dir := t.TempDir()
	config := Config{CharacterSet: lowercase, Normalize: true, StorePositions: true}

	build := func(name string, docs map[int64]string) string {
		w, err := NewWriter(config)
		require.NoError(t, err)
		for id, text := range docs {
			require.NoError(t, w.AddText(text, id))
		}
		path := filepath.Join(dir, name)
		require.NoError(t, w.Write(path))
		return path
	}

	p1 := build("a.bag", map[int64]string{0: "hello world", 1: "world of wonders"})
	p2 := build("b.bag", map[int64]string{2: "hello there"})

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

	for query, want := range map[string][]int64{
		"world":       {0, 1},
		"hello":       {0, 2},
		"hello there": {2},
		"wonders":     {1},
	} {
		ids, err := m.Search(query)
		require.NoError(t, err)
		assert.Equal(t, want, ids, "query %q", query)
	}
}

func TestMergeConfigMismatch(t *testing.T) {
	dir := t.TempDir()

	w1, err := NewWriter(Config{CharacterSet: lowercase})
	require.NoError(t, err)
	require.NoError(t, w1.AddText("hello", 0))
	p1 := filepath.Join(dir, "a.bag")
	require.NoError(t, w1.Write(p1))

	w2, err := NewWriter(Config{CharacterSet: lowercase, StorePositions: true})
	require.NoError(t, err)
	require.NoError(t, w2.AddText("hello", 1))
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
