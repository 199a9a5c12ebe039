package telemetry

import "fmt"

// Summary aggregates persisted query statistics over a date range.
type Summary struct {
	TotalQueries      int64            `json:"total_queries"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	Operations        map[string]int64 `json:"operations"`
	Shapes            map[string]int64 `json:"shapes"`
	Latency           map[string]int64 `json:"latency"`
	RecentZeroResults []string         `json:"recent_zero_results,omitempty"`
}

// LoadSummary reads the counters between from and to (YYYY-MM-DD,
// inclusive) plus up to recent zero-result queries.
func LoadSummary(store QueryMetricsStore, from, to string, recent int) (*Summary, error) {
	var s Summary
	var err error

	if s.Operations, err = store.GetCounts(DimensionOperation, from, to); err != nil {
		return nil, fmt.Errorf("load telemetry summary: %w", err)
	}
	if s.Shapes, err = store.GetCounts(DimensionShape, from, to); err != nil {
		return nil, fmt.Errorf("load telemetry summary: %w", err)
	}
	if s.Latency, err = store.GetCounts(DimensionLatency, from, to); err != nil {
		return nil, fmt.Errorf("load telemetry summary: %w", err)
	}
	results, err := store.GetCounts(DimensionResults, from, to)
	if err != nil {
		return nil, fmt.Errorf("load telemetry summary: %w", err)
	}
	s.TotalQueries = results["zero"] + results["hits"]
	s.ZeroResultCount = results["zero"]

	if recent > 0 {
		if s.RecentZeroResults, err = store.GetZeroResultQueries(recent); err != nil {
			return nil, fmt.Errorf("load telemetry summary: %w", err)
		}
	}
	return &s, nil
}

// ZeroResultPercentage returns the percentage of zero-result queries.
func (s *Summary) ZeroResultPercentage() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalQueries) * 100
}
