package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/geoprefix/internal/config"
	"github.com/Aman-CERP/geoprefix/internal/telemetry"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// summaryRecent is how many zero-result queries stats shows.
const summaryRecent = 5

func shapeKind(s geo.Shape) string {
	switch s.(type) {
	case geo.Point:
		return "point"
	case geo.Circle:
		return "circle"
	case geo.Rectangle:
		return "rectangle"
	}
	return "unknown"
}

// recordQuery persists one search event. Telemetry failures are logged and
// never fail the command.
func recordQuery(cfg *config.Config, event telemetry.QueryEvent) {
	if !cfg.Telemetry.Enabled {
		return
	}

	st, err := telemetry.OpenSQLiteMetricsStore(cfg.Store.DataDir)
	if err != nil {
		slog.Debug("telemetry_open_failed", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = st.Close() }()

	m := telemetry.NewQueryMetricsWithConfig(st, telemetry.QueryMetricsConfig{})
	m.Record(event)
	if err := m.Close(); err != nil {
		slog.Debug("telemetry_flush_failed", slog.String("error", err.Error()))
	}
}

// loadQuerySummary returns the all-time query summary, or nil when no
// search has been recorded.
func loadQuerySummary(cfg *config.Config) (*telemetry.Summary, error) {
	if !fileExists(filepath.Join(cfg.Store.DataDir, telemetry.FileName)) {
		return nil, nil
	}

	st, err := telemetry.OpenSQLiteMetricsStore(cfg.Store.DataDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	return telemetry.LoadSummary(st, "0000-01-01", "9999-12-31", summaryRecent)
}
