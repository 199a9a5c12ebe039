package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// termSep separates field and token in term dictionary keys. It sorts below
// every printable byte so a field's keys are contiguous.
const termSep = "\x00"

// numEntry is one numeric posting, ordered by field, value, then ID.
type numEntry struct {
	field string
	value float64
	id    string
}

func numLess(a, b numEntry) bool {
	if a.field != b.field {
		return a.field < b.field
	}
	if a.value != b.value {
		return a.value < b.value
	}
	return a.id < b.id
}

// MemoryIndex is an in-memory SpatialIndex. Tokens live in an ordered term
// dictionary so prefix lookups are range scans; numeric values live in an
// ordered tree keyed by field and value.
type MemoryIndex struct {
	mu     sync.RWMutex
	terms  btree.Map[string, idSet]
	nums   *btree.BTreeG[numEntry]
	docs   map[string]*Document
	closed bool
}

// Verify interface implementation at compile time
var _ SpatialIndex = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		nums: btree.NewBTreeG(numLess),
		docs: make(map[string]*Document),
	}
}

func termKey(field, token string) string {
	return field + termSep + token
}

// Index adds or replaces documents.
func (m *MemoryIndex) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("index is closed")
	}

	for _, doc := range dedupeDocs(docs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.remove(doc.ID)
		for _, f := range doc.Fields {
			if f.Numeric {
				m.nums.Set(numEntry{field: f.Name, value: f.Value, id: doc.ID})
				continue
			}
			key := termKey(f.Name, f.Token)
			ids, ok := m.terms.Get(key)
			if !ok {
				ids = idSet{}
				m.terms.Set(key, ids)
			}
			ids[doc.ID] = struct{}{}
		}
		m.docs[doc.ID] = doc
	}
	return nil
}

// remove drops a document's postings. Caller holds the write lock.
func (m *MemoryIndex) remove(id string) {
	doc, ok := m.docs[id]
	if !ok {
		return
	}
	for _, f := range doc.Fields {
		if f.Numeric {
			m.nums.Delete(numEntry{field: f.Name, value: f.Value, id: id})
			continue
		}
		key := termKey(f.Name, f.Token)
		if ids, ok := m.terms.Get(key); ok {
			delete(ids, id)
			if len(ids) == 0 {
				m.terms.Delete(key)
			}
		}
	}
	delete(m.docs, id)
}

// Delete removes documents from the index.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("index is closed")
	}
	for _, id := range ids {
		m.remove(id)
	}
	return nil
}

// Search returns the documents matching expr.
func (m *MemoryIndex) Search(ctx context.Context, expr query.Expression, opts SearchOptions) ([]*Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("index is closed")
	}

	ids, err := evaluate(ctx, m, expr)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(ids))
	for id := range ids {
		hit := &Hit{ID: id}
		if len(opts.Fields) > 0 {
			hit.Values = numericValues(m.docs[id], opts.Fields)
		}
		hits = append(hits, hit)
	}
	return finishHits(hits, opts.Limit), nil
}

// numericValues collects the values of the wanted numeric fields.
func numericValues(doc *Document, fields []string) map[string][]float64 {
	values := make(map[string][]float64, len(fields))
	if doc == nil {
		return values
	}
	for _, f := range doc.Fields {
		if !f.Numeric {
			continue
		}
		for _, want := range fields {
			if f.Name == want {
				values[want] = append(values[want], f.Value)
			}
		}
	}
	return values
}

func (m *MemoryIndex) universe(context.Context) (idSet, error) {
	out := make(idSet, len(m.docs))
	for id := range m.docs {
		out[id] = struct{}{}
	}
	return out, nil
}

func (m *MemoryIndex) termEquals(_ context.Context, field, token string) (idSet, error) {
	out := idSet{}
	if ids, ok := m.terms.Get(termKey(field, token)); ok {
		for id := range ids {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemoryIndex) termPrefix(_ context.Context, field, prefix string) (idSet, error) {
	out := idSet{}
	pivot := termKey(field, prefix)
	m.terms.Ascend(pivot, func(key string, ids idSet) bool {
		if !strings.HasPrefix(key, pivot) {
			return false
		}
		for id := range ids {
			out[id] = struct{}{}
		}
		return true
	})
	return out, nil
}

func (m *MemoryIndex) numericRange(_ context.Context, field string, lo, hi float64) (idSet, error) {
	out := idSet{}
	m.nums.Ascend(numEntry{field: field, value: lo}, func(e numEntry) bool {
		if e.field != field || e.value > hi {
			return false
		}
		out[e.id] = struct{}{}
		return true
	})
	return out, nil
}

// AllIDs returns all document IDs, sorted.
func (m *MemoryIndex) AllIDs() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("index is closed")
	}
	return slices.Sorted(maps.Keys(m.docs)), nil
}

// Stats returns index statistics.
func (m *MemoryIndex) Stats() *IndexStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return &IndexStats{Backend: string(BackendMemory)}
	}
	tokens := 0
	m.terms.Scan(func(_ string, ids idSet) bool {
		tokens += len(ids)
		return true
	})
	return &IndexStats{
		Backend:       string(BackendMemory),
		DocumentCount: len(m.docs),
		TokenCount:    tokens,
		NumericCount:  m.nums.Len(),
	}
}

// Close releases the index contents.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.docs = nil
	m.nums = nil
	m.terms = btree.Map[string, idSet]{}
	return nil
}
