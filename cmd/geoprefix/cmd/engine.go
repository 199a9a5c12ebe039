package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/geoprefix/internal/config"
	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/pkg/indexer"
	"github.com/Aman-CERP/geoprefix/pkg/searcher"
	"github.com/Aman-CERP/geoprefix/pkg/strategy"
	"github.com/Aman-CERP/geoprefix/pkg/version"
)

// manifestName is the file recording how an index directory was built.
const manifestName = "manifest.yaml"

// manifest pins the strategy an index was written with. Tokens from one
// grid or field are meaningless to another, so searches against a
// different configuration are refused.
type manifest struct {
	Format    int    `yaml:"format"`
	Strategy  string `yaml:"strategy"`
	Field     string `yaml:"field"`
	GridKind  string `yaml:"grid_kind,omitempty"`
	MaxLevels int    `yaml:"max_levels,omitempty"`
	Context   string `yaml:"context"`
	Backend   string `yaml:"backend"`
}

func manifestFor(cfg *config.Config) manifest {
	m := manifest{
		Format:   version.IndexFormat,
		Strategy: cfg.Strategy.Name,
		Field:    cfg.Strategy.Field,
		Context:  cfg.Context.Model,
		Backend:  cfg.Store.Backend,
	}
	if cfg.Strategy.Name != string(strategy.NamePointVector) {
		m.GridKind = cfg.Grid.Kind
		m.MaxLevels = cfg.Grid.MaxLevels
	}
	return m
}

func readManifest(dataDir string) (manifest, bool, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return manifest{}, false, nil
	}
	if err != nil {
		return manifest{}, false, fmt.Errorf("failed to read index manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, false, geoerrors.New(geoerrors.ErrCodeCorruptIndex, "invalid index manifest", err).
			WithDetail("path", filepath.Join(dataDir, manifestName))
	}
	return m, true, nil
}

func writeManifest(dataDir string, m manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal index manifest: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, manifestName), data, 0644)
}

// checkManifest fails when the index on disk was built with a different
// strategy configuration than cfg.
func checkManifest(cfg *config.Config) error {
	onDisk, ok, err := readManifest(cfg.Store.DataDir)
	if err != nil || !ok {
		return err
	}
	want := manifestFor(cfg)
	if onDisk.Format != want.Format {
		return geoerrors.ConfigurationError(
			fmt.Sprintf("index format %d is not supported by this build (format %d)", onDisk.Format, want.Format), nil).
			WithDetail("version", version.Short()).
			WithSuggestion("Re-run 'geoprefix index --reset' to rebuild the index")
	}
	if onDisk != want {
		return geoerrors.ConfigurationError("index was built with a different strategy configuration", nil).
			WithDetail("index", fmt.Sprintf("%+v", onDisk)).
			WithDetail("config", fmt.Sprintf("%+v", want)).
			WithSuggestion("Re-run 'geoprefix index --reset' or restore the original configuration")
	}
	return nil
}

// engine wires a configuration to a store, an indexer and a searcher.
type engine struct {
	cfg      *config.Config
	strategy strategy.Strategy
	store    store.SpatialIndex
	indexer  *indexer.SpatialIndexer
	searcher *searcher.SpatialSearcher
}

// loadConfig loads the configuration for the project directory.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	return config.Load(dir)
}

// openEngine builds the strategy and opens the store named by cfg.
func openEngine(cfg *config.Config) (*engine, error) {
	strat, err := cfg.NewStrategy()
	if err != nil {
		return nil, err
	}

	idx, err := store.NewSpatialIndexWithBackend(store.IndexBasePath(cfg.Store.DataDir), cfg.Store.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open spatial index: %w", err)
	}

	ix, err := indexer.NewSpatialIndexer(
		indexer.WithStrategy(strat),
		indexer.WithStore(idx),
		indexer.WithWorkers(cfg.Indexing.Workers),
	)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	srch, err := searcher.NewSpatialSearcher(
		searcher.WithStrategy(strat),
		searcher.WithStore(idx),
	)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	slog.Debug("engine_opened",
		slog.String("strategy", fmt.Sprint(strat)),
		slog.String("backend", cfg.Store.Backend),
		slog.String("data_dir", cfg.Store.DataDir))

	return &engine{cfg: cfg, strategy: strat, store: idx, indexer: ix, searcher: srch}, nil
}

// Close closes the store through the indexer.
func (e *engine) Close() error {
	return e.indexer.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
