package store

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

func TestSQLiteIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatial.db")

	// Given: an index written and closed
	idx, err := NewSQLiteIndex(path)
	require.NoError(t, err)
	require.NoError(t, idx.Index(t.Context(), sampleDocs()))
	require.NoError(t, idx.Close())

	// When: reopening
	idx, err = NewSQLiteIndex(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	// Then: documents are still searchable
	hits, err := idx.Search(t.Context(), query.TermPrefix{Field: "geo", Prefix: "u4"}, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, hitIDs(hits))
}

func TestSQLiteIndex_CorruptFileIsRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatial.db")

	// Given: a file that is not a SQLite database
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0644))

	// When: opening
	idx, err := NewSQLiteIndex(path)
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	// Then: a fresh empty index is usable
	ids, err := idx.AllIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
	require.NoError(t, idx.Index(t.Context(), sampleDocs()))
}

func TestSQLiteIndex_LargeBatchesSpanChunks(t *testing.T) {
	idx, err := NewSQLiteIndex("")
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	// Given: more documents than one IN list holds
	n := sqliteChunkSize*2 + 7
	docs := make([]*Document, n)
	tokens := make([]query.Expression, n)
	ids := make([]string, n)
	for i := range n {
		id := strconv.Itoa(100000 + i)
		ids[i] = id
		docs[i] = &Document{ID: id, Fields: []query.Field{
			query.TokenField("geo", "t"+id),
			query.NumericField("geo__x", float64(i)),
		}}
		tokens[i] = query.TermEquals{Field: "geo", Token: "t" + id}
	}
	require.NoError(t, idx.Index(t.Context(), docs))

	// When: searching an OR of every token and loading values
	hits, err := idx.Search(t.Context(), query.Or{Clauses: tokens}, SearchOptions{Fields: []string{"geo__x"}})

	// Then: every document matches with its value
	require.NoError(t, err)
	require.Len(t, hits, n)
	assert.Equal(t, []float64{float64(n - 1)}, hits[n-1].Values["geo__x"])

	// When: deleting all of them
	require.NoError(t, idx.Delete(t.Context(), ids))

	// Then: the index is empty
	assert.Equal(t, 0, idx.Stats().DocumentCount)
	assert.Equal(t, 0, idx.Stats().TokenCount)
}

func TestValidateSQLiteIntegrity_MissingFileIsValid(t *testing.T) {
	err := validateSQLiteIntegrity(filepath.Join(t.TempDir(), "none.db"))

	assert.NoError(t, err)
}
