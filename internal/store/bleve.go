package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveq "github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// BleveIndex is a SpatialIndex backed by Bleve v2. Token fields are indexed
// unanalysed so every token is one term; numeric fields are indexed as
// numbers. Expressions compile to native Bleve queries.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ SpatialIndex = (*BleveIndex)(nil)

// validateIndexIntegrity checks if a Bleve index is valid before opening.
// Returns nil if valid, error describing corruption if not.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Index doesn't exist, will be created
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleveIndex opens or creates a Bleve index at path.
// If path is empty, creates an in-memory index.
// A corrupted index directory is cleared and recreated.
func NewBleveIndex(path string) (*BleveIndex, error) {
	indexMapping := createIndexMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("spatial_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("spatial index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("spatial_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("spatial_index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("spatial index corrupted, cannot clear: %w (original: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &BleveIndex{index: idx, path: path}, nil
}

// createIndexMapping maps dynamic string fields with the keyword analyzer so
// tokens are indexed verbatim, and stores fields so numeric values can be
// returned with hits.
func createIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = keyword.Name
	indexMapping.StoreDynamic = true
	indexMapping.IndexDynamic = true
	indexMapping.DocValuesDynamic = false
	return indexMapping
}

// bleveDocument converts fields to the dynamic document Bleve indexes.
func bleveDocument(doc *Document) map[string]interface{} {
	tokens := map[string][]string{}
	nums := map[string][]float64{}
	for _, f := range doc.Fields {
		if f.Numeric {
			nums[f.Name] = append(nums[f.Name], f.Value)
		} else {
			tokens[f.Name] = append(tokens[f.Name], f.Token)
		}
	}
	out := make(map[string]interface{}, len(tokens)+len(nums))
	for name, values := range tokens {
		out[name] = values
	}
	for name, values := range nums {
		out[name] = values
	}
	return out
}

// Index adds or replaces documents.
func (b *BleveIndex) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range dedupeDocs(docs) {
		if err := batch.Index(doc.ID, bleveDocument(doc)); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// Delete removes documents from the index.
func (b *BleveIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// Search compiles expr to a Bleve query and returns every match.
func (b *BleveIndex) Search(ctx context.Context, expr query.Expression, opts SearchOptions) ([]*Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	q, err := compileBleve(expr)
	if err != nil {
		return nil, err
	}
	docCount, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if docCount == 0 {
		return []*Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(q, int(docCount), 0, false)
	req.Fields = opts.Fields
	req.SortBy([]string{"_id"})

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := &Hit{ID: h.ID}
		if len(opts.Fields) > 0 {
			hit.Values = storedNumbers(h.Fields, opts.Fields)
		}
		hits = append(hits, hit)
	}
	return finishHits(hits, opts.Limit), nil
}

// storedNumbers reads numeric stored fields. Bleve returns a single value as
// a float64 and several as a slice.
func storedNumbers(stored map[string]interface{}, fields []string) map[string][]float64 {
	values := make(map[string][]float64, len(fields))
	for _, name := range fields {
		switch v := stored[name].(type) {
		case float64:
			values[name] = []float64{v}
		case []interface{}:
			for _, item := range v {
				if f, ok := item.(float64); ok {
					values[name] = append(values[name], f)
				}
			}
		}
	}
	return values
}

// compileBleve translates an expression into a Bleve query.
func compileBleve(e query.Expression) (bleveq.Query, error) {
	switch e := e.(type) {
	case query.TermEquals:
		q := bleve.NewTermQuery(e.Token)
		q.SetField(e.Field)
		return q, nil
	case query.TermPrefix:
		q := bleve.NewPrefixQuery(e.Prefix)
		q.SetField(e.Field)
		return q, nil
	case query.Range:
		if e.Min > e.Max {
			return bleve.NewMatchNoneQuery(), nil
		}
		lo, hi := e.Min, e.Max
		inclusive := true
		q := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		q.SetField(e.Field)
		return q, nil
	case query.MatchAll:
		return bleve.NewMatchAllQuery(), nil
	case query.MatchNone:
		return bleve.NewMatchNoneQuery(), nil
	case query.Or:
		clauses, err := compileAll(e.Clauses)
		if err != nil {
			return nil, err
		}
		return bleve.NewDisjunctionQuery(clauses...), nil
	case query.Not:
		inner, err := compileBleve(e.Clause)
		if err != nil {
			return nil, err
		}
		bq := bleve.NewBooleanQuery()
		bq.AddMust(bleve.NewMatchAllQuery())
		bq.AddMustNot(inner)
		return bq, nil
	case query.And:
		bq := bleve.NewBooleanQuery()
		must := 0
		for _, c := range e.Clauses {
			if n, ok := c.(query.Not); ok {
				inner, err := compileBleve(n.Clause)
				if err != nil {
					return nil, err
				}
				bq.AddMustNot(inner)
				continue
			}
			q, err := compileBleve(c)
			if err != nil {
				return nil, err
			}
			bq.AddMust(q)
			must++
		}
		if must == 0 {
			bq.AddMust(bleve.NewMatchAllQuery())
		}
		return bq, nil
	case nil:
		return nil, fmt.Errorf("nil expression")
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func compileAll(exprs []query.Expression) ([]bleveq.Query, error) {
	out := make([]bleveq.Query, 0, len(exprs))
	for _, e := range exprs {
		q, err := compileBleve(e)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// AllIDs returns all document IDs in the index, sorted.
func (b *BleveIndex) AllIDs() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	docCount, _ := b.index.DocCount()
	if docCount == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(docCount)
	req.Fields = []string{}
	req.SortBy([]string{"_id"})

	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search for all IDs: %w", err)
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// Stats returns index statistics. Bleve does not expose posting counts.
func (b *BleveIndex) Stats() *IndexStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return &IndexStats{Backend: string(BackendBleve)}
	}

	docCount, _ := b.index.DocCount()
	return &IndexStats{
		Backend:       string(BackendBleve),
		DocumentCount: int(docCount),
	}
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}
