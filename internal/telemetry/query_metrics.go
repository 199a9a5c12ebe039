// Package telemetry records local statistics about spatial queries.
// All telemetry data is stored in the data directory - no external reporting.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// Dimensions name the counters persisted per day.
const (
	DimensionOperation = "operation"
	DimensionShape     = "shape"
	DimensionLatency   = "latency"
	DimensionResults   = "results" // keys "zero" and "hits"
)

// dimensions lists every persisted dimension.
var dimensions = []string{DimensionOperation, DimensionShape, DimensionLatency, DimensionResults}

// =============================================================================
// Query Event
// =============================================================================

// QueryEvent represents a single spatial search for telemetry recording.
type QueryEvent struct {
	// Args is the printed SpatialArgs, used for repeat detection and the
	// zero-result buffer.
	Args        string
	Operation   string
	Shape       string // "point", "circle" or "rectangle"
	Clauses     int
	ResultCount int
	Latency     time.Duration
}

// IsZeroResult returns true if this query returned no results.
func (e QueryEvent) IsZeroResult() bool {
	return e.ResultCount == 0
}

// =============================================================================
// Circular Buffer
// =============================================================================

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // Next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in the buffer in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		// Buffer full - oldest item is at head
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Clear removes all items from the buffer.
func (b *CircularBuffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
}

// =============================================================================
// Query Metrics Snapshot
// =============================================================================

// QueryMetricsSnapshot is an immutable snapshot of query metrics.
type QueryMetricsSnapshot struct {
	OperationCounts     map[string]int64        `json:"operation_counts"`
	ShapeCounts         map[string]int64        `json:"shape_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	MaxClauses          int                     `json:"max_clauses"`
	MeanClauses         float64                 `json:"mean_clauses"`
	RepeatCount         int64                   `json:"repeat_count"`
	RepeatRate          float64                 `json:"repeat_rate"`
	UniqueQueryCount    int64                   `json:"unique_query_count"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the percentage of zero-result queries.
func (s *QueryMetricsSnapshot) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}

// =============================================================================
// Query Metrics Store (Interface)
// =============================================================================

// QueryMetricsStore defines persistence operations for query metrics.
type QueryMetricsStore interface {
	// SaveCounts adds daily counts of one dimension.
	SaveCounts(date, dimension string, counts map[string]int64) error

	// GetCounts sums the counts of one dimension over a date range.
	GetCounts(dimension, from, to string) (map[string]int64, error)

	// AddZeroResultQueries appends to the bounded zero-result buffer.
	AddZeroResultQueries(queries []string, timestamp time.Time) error

	// GetZeroResultQueries retrieves recent zero-result queries, newest first.
	GetZeroResultQueries(limit int) ([]string, error)

	// Close releases resources.
	Close() error
}

// =============================================================================
// Query Metrics Configuration
// =============================================================================

// QueryMetricsConfig configures the query metrics collector.
type QueryMetricsConfig struct {
	ZeroResultsCapacity   int           // Max zero-result queries to keep (default: 100)
	RecentQueriesCapacity int           // Max queries tracked for repeats (default: 500)
	FlushInterval         time.Duration // How often to flush to store (0 = flush on Close only)
}

// DefaultQueryMetricsConfig returns sensible defaults.
func DefaultQueryMetricsConfig() QueryMetricsConfig {
	return QueryMetricsConfig{
		ZeroResultsCapacity:   100,
		RecentQueriesCapacity: 500,
		FlushInterval:         60 * time.Second,
	}
}

// =============================================================================
// Query Metrics
// =============================================================================

// pending holds counts not yet flushed to the store.
type pending struct {
	counts      map[string]map[string]int64 // dimension -> key -> count
	zeroResults []string
}

func newPending() pending {
	p := pending{counts: make(map[string]map[string]int64, len(dimensions))}
	for _, dim := range dimensions {
		p.counts[dim] = map[string]int64{}
	}
	return p
}

// QueryMetrics collects spatial query telemetry.
// Thread-safe for concurrent access.
type QueryMetrics struct {
	mu sync.Mutex

	// In-memory aggregates since start
	operations      map[string]int64
	shapes          map[string]int64
	latencies       map[LatencyBucket]int64
	zeroResults     *CircularBuffer[string]
	totalQueries    int64
	zeroResultCount int64
	totalClauses    int64
	maxClauses      int
	startTime       time.Time

	recentQueries *lru.Cache[string, struct{}] // LRU of args hashes
	repeatCount   int64

	// Persistence
	unflushed   pending
	store       QueryMetricsStore
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closed      bool
}

// NewQueryMetrics creates a new metrics collector with default configuration.
// If store is nil, metrics are only kept in memory.
func NewQueryMetrics(store QueryMetricsStore) *QueryMetrics {
	return NewQueryMetricsWithConfig(store, DefaultQueryMetricsConfig())
}

// NewQueryMetricsWithConfig creates a new metrics collector with custom configuration.
func NewQueryMetricsWithConfig(store QueryMetricsStore, cfg QueryMetricsConfig) *QueryMetrics {
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 100
	}
	if cfg.RecentQueriesCapacity <= 0 {
		cfg.RecentQueriesCapacity = 500
	}

	recentQueries, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)

	m := &QueryMetrics{
		operations:    make(map[string]int64),
		shapes:        make(map[string]int64),
		latencies:     make(map[LatencyBucket]int64),
		zeroResults:   NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		startTime:     time.Now(),
		recentQueries: recentQueries,
		unflushed:     newPending(),
		store:         store,
		stopCh:        make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.flushTicker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}

	return m
}

// flushLoop periodically flushes metrics to storage.
func (m *QueryMetrics) flushLoop() {
	for {
		select {
		case <-m.flushTicker.C:
			_ = m.Flush()
		case <-m.stopCh:
			return
		}
	}
}

// Record captures metrics from a search.
// This method is thread-safe and non-blocking.
func (m *QueryMetrics) Record(event QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	bucket := LatencyToBucket(event.Latency)

	m.operations[event.Operation]++
	m.shapes[event.Shape]++
	m.latencies[bucket]++
	m.totalQueries++
	m.totalClauses += int64(event.Clauses)
	m.maxClauses = max(m.maxClauses, event.Clauses)

	m.unflushed.counts[DimensionOperation][event.Operation]++
	m.unflushed.counts[DimensionShape][event.Shape]++
	m.unflushed.counts[DimensionLatency][string(bucket)]++

	if event.IsZeroResult() {
		m.zeroResults.Add(event.Args)
		m.zeroResultCount++
		m.unflushed.zeroResults = append(m.unflushed.zeroResults, event.Args)
		m.unflushed.counts[DimensionResults]["zero"]++
	} else {
		m.unflushed.counts[DimensionResults]["hits"]++
	}

	key := hashArgs(event.Args)
	if _, exists := m.recentQueries.Get(key); exists {
		m.repeatCount++
	}
	m.recentQueries.Add(key, struct{}{})
}

// hashArgs shortens printed args to a fixed-size LRU key.
func hashArgs(args string) string {
	hash := sha256.Sum256([]byte(args))
	return hex.EncodeToString(hash[:16])
}

// Snapshot returns current metrics for reporting.
func (m *QueryMetrics) Snapshot() *QueryMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &QueryMetricsSnapshot{
		OperationCounts:     maps.Clone(m.operations),
		ShapeCounts:         maps.Clone(m.shapes),
		LatencyDistribution: maps.Clone(m.latencies),
		ZeroResultQueries:   m.zeroResults.Items(),
		TotalQueries:        m.totalQueries,
		ZeroResultCount:     m.zeroResultCount,
		MaxClauses:          m.maxClauses,
		RepeatCount:         m.repeatCount,
		UniqueQueryCount:    int64(m.recentQueries.Len()),
		Since:               m.startTime,
	}
	if m.totalQueries > 0 {
		s.MeanClauses = float64(m.totalClauses) / float64(m.totalQueries)
		s.RepeatRate = float64(m.repeatCount) / float64(m.totalQueries)
	}
	return s
}

// Flush persists the counts recorded since the last flush.
// Safe to call even if no store is configured. On a store error the
// unflushed counts are kept for the next attempt.
func (m *QueryMetrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	batch := m.unflushed
	m.unflushed = newPending()
	m.mu.Unlock()

	now := time.Now()
	today := now.Format("2006-01-02")

	for _, dim := range dimensions {
		if len(batch.counts[dim]) == 0 {
			continue
		}
		if err := m.store.SaveCounts(today, dim, batch.counts[dim]); err != nil {
			m.requeue(batch)
			return err
		}
		delete(batch.counts, dim)
	}

	if len(batch.zeroResults) > 0 {
		if err := m.store.AddZeroResultQueries(batch.zeroResults, now); err != nil {
			m.requeue(batch)
			return err
		}
	}
	return nil
}

// requeue merges an unsaved batch back into the pending counts.
func (m *QueryMetrics) requeue(batch pending) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dim, counts := range batch.counts {
		for k, v := range counts {
			m.unflushed.counts[dim][k] += v
		}
	}
	m.unflushed.zeroResults = append(batch.zeroResults, m.unflushed.zeroResults...)
}

// Close flushes and stops the flush loop. The store is not closed.
func (m *QueryMetrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopCh)
	}

	return m.Flush()
}
