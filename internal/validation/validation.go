// Package validation runs data-driven spatial query suites against an index.
//
// Suites are YAML files listing queries with the document IDs they should
// return, so a known dataset can be checked after reindexing or after a
// strategy or grid change without rebuilding the binary:
//
//	exact:
//	  - id: E1
//	    name: near origin
//	    circle: [1, 1, 175]
//	    expected: ["5", "6", "7"]
//	contains:
//	  - id: C1
//	    rect: [-1, 1, -1, 1]
//	    expected: ["5"]
//	negative:
//	  - id: N1
//	    op: contains
//	    circle: [0, 0, 10]
package validation

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/query"
	"github.com/Aman-CERP/geoprefix/pkg/searcher"
)

// Suite names how a query's results are checked.
type Suite string

const (
	// SuiteExact requires the results to equal the expected IDs.
	SuiteExact Suite = "exact"
	// SuiteContains requires every expected ID among the results.
	SuiteContains Suite = "contains"
	// SuiteNegative requires the query to be rejected with an error.
	SuiteNegative Suite = "negative"
)

// QuerySpec defines a test query with expected results. Exactly one of
// Circle, BBox or Rect is set.
type QuerySpec struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Op         string    `yaml:"op"`     // default "intersects"
	Circle     []float64 `yaml:"circle"` // lon, lat, km
	BBox       []float64 `yaml:"bbox"`   // bounding box of lon, lat, km
	Rect       []float64 `yaml:"rect"`   // minX, maxX, minY, maxY
	DistErrPct *float64  `yaml:"dist_err_pct"`
	Expected   []string  `yaml:"expected"`
	Notes      string    `yaml:"notes"` // Optional explanation for maintainers
	Suite      Suite     `yaml:"-"`     // Set from the section it was loaded from
}

// QueryConfig holds all validation queries loaded from YAML.
type QueryConfig struct {
	Exact    []QuerySpec `yaml:"exact"`
	Contains []QuerySpec `yaml:"contains"`
	Negative []QuerySpec `yaml:"negative"`
}

// LoadQueries reads a suite file.
func LoadQueries(path string) (*QueryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, geoerrors.IOError(fmt.Sprintf("cannot open %s", path), err)
		}
		return nil, fmt.Errorf("failed to read queries file %s: %w", path, err)
	}
	return ParseQueries(data)
}

// ParseQueries parses suite YAML and tags each query with its suite.
func ParseQueries(data []byte) (*QueryConfig, error) {
	var cfg QueryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, geoerrors.InvalidArgumentError("failed to parse queries YAML: %v", err)
	}

	for i := range cfg.Exact {
		cfg.Exact[i].Suite = SuiteExact
	}
	for i := range cfg.Contains {
		cfg.Contains[i].Suite = SuiteContains
	}
	for i := range cfg.Negative {
		cfg.Negative[i].Suite = SuiteNegative
	}

	if len(cfg.All()) == 0 {
		return nil, geoerrors.InvalidArgumentError("queries file defines no queries")
	}
	return &cfg, nil
}

// All returns every query in suite order: exact, contains, negative.
func (c *QueryConfig) All() []QuerySpec {
	return slices.Concat(c.Exact, c.Contains, c.Negative)
}

// Args builds the spatial arguments of the query.
func (s QuerySpec) Args(ctx *geo.Context) (query.SpatialArgs, error) {
	opName := s.Op
	if opName == "" {
		opName = "intersects"
	}
	op, err := query.ParseOperation(opName)
	if err != nil {
		return query.SpatialArgs{}, err
	}

	shape, err := s.shape(ctx)
	if err != nil {
		return query.SpatialArgs{}, err
	}

	args := query.NewSpatialArgs(op, shape)
	if s.DistErrPct != nil {
		args = args.WithDistErrPct(*s.DistErrPct)
	}
	return args, nil
}

func (s QuerySpec) shape(ctx *geo.Context) (geo.Shape, error) {
	set := 0
	for _, v := range [][]float64{s.Circle, s.BBox, s.Rect} {
		if v != nil {
			set++
		}
	}
	if set != 1 {
		return nil, geoerrors.InvalidArgumentError("query %s: exactly one of circle, bbox or rect is required", s.ID)
	}

	if s.Rect != nil {
		if len(s.Rect) != 4 {
			return nil, geoerrors.InvalidArgumentError("query %s: rect needs 4 numbers, got %d", s.ID, len(s.Rect))
		}
		return ctx.MakeRect(s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3])
	}

	v := s.Circle
	if v == nil {
		v = s.BBox
	}
	if len(v) != 3 {
		return nil, geoerrors.InvalidArgumentError("query %s: circle needs lon, lat, km, got %d numbers", s.ID, len(v))
	}
	center, err := ctx.MakePoint(v[0], v[1])
	if err != nil {
		return nil, err
	}
	circle, err := ctx.MakeCircleKm(center, v[2])
	if err != nil {
		return nil, err
	}
	if s.BBox != nil {
		return circle.BoundingBox(), nil
	}
	return circle, nil
}

// TestResult captures the outcome of a single query test.
type TestResult struct {
	Spec       QuerySpec     `json:"spec"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration_ns"`
	Results    []string      `json:"results"`
	Missing    []string      `json:"missing,omitempty"`    // expected but not returned
	Unexpected []string      `json:"unexpected,omitempty"` // returned but not expected (exact only)
	Error      string        `json:"error,omitempty"`
}

// ValidationResult captures results of a full validation run.
type ValidationResult struct {
	Timestamp time.Time    `json:"timestamp"`
	Results   []TestResult `json:"results"`
	Passed    int          `json:"passed"`
	Total     int          `json:"total"`
}

// Failed returns the number of failed queries.
func (r *ValidationResult) Failed() int {
	return r.Total - r.Passed
}

// Validator runs validation queries against a searcher.
type Validator struct {
	searcher searcher.Searcher
	ctx      *geo.Context
}

// NewValidator creates a validator. ctx builds the query shapes and must
// match the context the index was built with.
func NewValidator(s searcher.Searcher, ctx *geo.Context) (*Validator, error) {
	if s == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if ctx == nil {
		ctx = geo.DefaultContext()
	}
	return &Validator{searcher: s, ctx: ctx}, nil
}

// RunQuery executes a single query and returns the result.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	start := time.Now()
	result := TestResult{Spec: spec}

	var hits []searcher.Result
	args, err := spec.Args(v.ctx)
	if err == nil {
		hits, err = v.searcher.Search(ctx, args, 0)
	}
	result.Duration = time.Since(start)

	if spec.Suite == SuiteNegative {
		result.Passed = err != nil
		if err != nil {
			result.Error = err.Error()
		}
		return result
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, h := range hits {
		result.Results = append(result.Results, h.ID)
	}
	slices.Sort(result.Results)

	result.Missing = difference(spec.Expected, result.Results)
	if spec.Suite == SuiteExact {
		result.Unexpected = difference(result.Results, spec.Expected)
	}
	result.Passed = len(result.Missing) == 0 && len(result.Unexpected) == 0
	return result
}

// RunAll executes all validation queries and returns results.
func (v *Validator) RunAll(ctx context.Context, cfg *QueryConfig) *ValidationResult {
	result := &ValidationResult{Timestamp: time.Now()}

	for _, spec := range cfg.All() {
		if ctx.Err() != nil {
			break
		}
		tr := v.RunQuery(ctx, spec)
		result.Results = append(result.Results, tr)
		result.Total++
		if tr.Passed {
			result.Passed++
		}
	}

	return result
}

// difference returns the members of a missing from b, sorted.
func difference(a, b []string) []string {
	var out []string
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
