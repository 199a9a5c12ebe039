// Package config loads geoprefix configuration: the geo context, the grid,
// the strategy, the store backend and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
)

// CurrentVersion is the config schema version written by WriteYAML.
const CurrentVersion = 1

// ProjectConfigName is the per-directory config file.
const ProjectConfigName = ".geoprefix.yaml"

// Config represents the complete geoprefix configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version" validate:"gte=0"`
	Context   ContextConfig   `yaml:"context" json:"context"`
	Grid      GridConfig      `yaml:"grid" json:"grid"`
	Strategy  StrategyConfig  `yaml:"strategy" json:"strategy"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Indexing  IndexingConfig  `yaml:"indexing" json:"indexing"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// ContextConfig selects the distance model.
type ContextConfig struct {
	// Model is "geo" (great-circle, degrees) or "euclidean".
	Model string `yaml:"model" json:"model" validate:"oneof=geo euclidean"`

	// RadiusKm is the earth radius used for km conversions.
	RadiusKm float64 `yaml:"radius_km" json:"radius_km" validate:"gt=0"`
}

// GridConfig configures the prefix grid.
type GridConfig struct {
	// Kind is "geohash" or "quad".
	Kind string `yaml:"kind" json:"kind" validate:"oneof=geohash quad"`

	// MaxLevels is the deepest level; capped per kind (geohash 24, quad 50).
	MaxLevels int `yaml:"max_levels" json:"max_levels" validate:"gte=1"`

	// CellCacheSize bounds the cell extent cache (0 disables it).
	CellCacheSize int `yaml:"cell_cache_size" json:"cell_cache_size" validate:"gte=0"`
}

// StrategyConfig configures how shapes become fields.
type StrategyConfig struct {
	// Name is "recursive", "term" or "pointvector".
	Name string `yaml:"name" json:"name" validate:"oneof=recursive term pointvector"`

	// Field is the base field name.
	Field string `yaml:"field" json:"field" validate:"required"`

	// DistErrPct is the default precision as a fraction of shape size.
	DistErrPct float64 `yaml:"dist_err_pct" json:"dist_err_pct" validate:"gte=0,lte=0.5"`

	// PointsOnly tells the recursive strategy every indexed shape is a point.
	PointsOnly bool `yaml:"points_only" json:"points_only"`

	// MaxTerms bounds generated query clauses (0 = strategy default).
	MaxTerms int `yaml:"max_terms" json:"max_terms" validate:"gte=0"`
}

// StoreConfig selects the posting store.
type StoreConfig struct {
	// Backend is "sqlite" (default), "bleve" or "memory".
	Backend string `yaml:"backend" json:"backend" validate:"oneof=sqlite bleve memory"`

	// DataDir holds on-disk indexes. Relative paths resolve against the
	// directory the config was loaded for.
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// IndexingConfig tunes bulk indexing.
type IndexingConfig struct {
	// Workers bounds concurrent shape conversion (0 = GOMAXPROCS).
	Workers int `yaml:"workers" json:"workers" validate:"gte=0"`

	// BatchSize is the number of documents written per store batch.
	BatchSize int `yaml:"batch_size" json:"batch_size" validate:"gt=0"`
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb" validate:"gt=0"`
	MaxFiles  int    `yaml:"max_files" json:"max_files" validate:"gt=0"`
}

// TelemetryConfig controls local query statistics. Nothing leaves the
// data directory.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Context: ContextConfig{
			Model:    "geo",
			RadiusKm: geo.EarthMeanRadiusKm,
		},
		Grid: GridConfig{
			Kind:          "geohash",
			MaxLevels:     11,
			CellCacheSize: 4096,
		},
		Strategy: StrategyConfig{
			Name:       "recursive",
			Field:      "geo",
			DistErrPct: 0.025,
		},
		Store: StoreConfig{
			Backend: "sqlite",
			DataDir: ".geoprefix",
		},
		Indexing: IndexingConfig{
			Workers:   0,
			BatchSize: 1000,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/geoprefix/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/geoprefix/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "geoprefix", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "geoprefix", "config.yaml")
	}
	return filepath.Join(home, ".config", "geoprefix", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/geoprefix/config.yaml)
//  3. Project config (.geoprefix.yaml in dir)
//  4. Environment variables (GEOPREFIX_*)
//
// The result is validated; an invalid configuration is a
// ConfigurationError.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if cfg.Store.DataDir != "" && !filepath.IsAbs(cfg.Store.DataDir) && dir != "" {
		cfg.Store.DataDir = filepath.Join(dir, cfg.Store.DataDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads .geoprefix.yaml or .geoprefix.yml from dir, if present.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectConfigName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".geoprefix.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML overlays the keys present in the file onto c. Absent keys keep
// their current values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return geoerrors.New(geoerrors.ErrCodeConfigNotFound,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return geoerrors.ConfigurationError(
			fmt.Sprintf("failed to parse config file %s", path), err).
			WithDetail("path", path)
	}
	return nil
}

// applyEnvOverrides applies GEOPREFIX_* environment variable overrides.
// Malformed numbers are configuration errors rather than silently ignored.
func (c *Config) applyEnvOverrides() error {
	strs := []struct {
		env    string
		target *string
		lower  bool // enum values are case-insensitive
	}{
		{"GEOPREFIX_CONTEXT", &c.Context.Model, true},
		{"GEOPREFIX_GRID_KIND", &c.Grid.Kind, true},
		{"GEOPREFIX_STRATEGY", &c.Strategy.Name, true},
		{"GEOPREFIX_FIELD", &c.Strategy.Field, false},
		{"GEOPREFIX_STORE_BACKEND", &c.Store.Backend, true},
		{"GEOPREFIX_DATA_DIR", &c.Store.DataDir, false},
		{"GEOPREFIX_LOG_LEVEL", &c.Logging.Level, true},
	}
	for _, s := range strs {
		v := strings.TrimSpace(os.Getenv(s.env))
		if v == "" {
			continue
		}
		if s.lower {
			v = strings.ToLower(v)
		}
		*s.target = v
	}

	ints := []struct {
		env    string
		target *int
	}{
		{"GEOPREFIX_GRID_MAX_LEVELS", &c.Grid.MaxLevels},
		{"GEOPREFIX_MAX_TERMS", &c.Strategy.MaxTerms},
		{"GEOPREFIX_WORKERS", &c.Indexing.Workers},
	}
	for _, n := range ints {
		if v := os.Getenv(n.env); v != "" {
			i, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return geoerrors.ConfigurationError(fmt.Sprintf("%s: not an integer: %q", n.env, v), err)
			}
			*n.target = i
		}
	}

	if v := os.Getenv("GEOPREFIX_DIST_ERR_PCT"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return geoerrors.ConfigurationError(fmt.Sprintf("GEOPREFIX_DIST_ERR_PCT: not a number: %q", v), err)
		}
		c.Strategy.DistErrPct = f
	}
	if v := os.Getenv("GEOPREFIX_POINTS_ONLY"); v != "" {
		c.Strategy.PointsOnly = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("GEOPREFIX_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = strings.EqualFold(v, "true") || v == "1"
	}

	return nil
}

// Validate checks field constraints and cross-field rules:
//   - grid.max_levels must not exceed the ceiling of grid.kind
//   - points_only applies to the recursive strategy only
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return geoerrors.ConfigurationError(
				fmt.Sprintf("%s fails %q (got %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value()), err)
		}
		return geoerrors.ConfigurationError("invalid configuration", err)
	}

	kind, err := prefixtree.ParseKind(c.Grid.Kind)
	if err != nil {
		return geoerrors.ConfigurationError("grid.kind", err)
	}
	if ceiling := prefixtree.MaxLevelsCeiling(kind); c.Grid.MaxLevels > ceiling {
		return geoerrors.GridLevelsError(c.Grid.MaxLevels, ceiling)
	}

	if c.Strategy.PointsOnly && c.Strategy.Name != "recursive" {
		return geoerrors.ConfigurationError(
			fmt.Sprintf("strategy.points_only applies to the recursive strategy, not %s", c.Strategy.Name), nil)
	}

	return nil
}

// fieldPath turns "Config.Grid.MaxLevels" into "grid.maxlevels".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}
	return strings.ToLower(rest)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a regular file exists at path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
