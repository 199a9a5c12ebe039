package config

import (
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/strategy"
)

// GeoContext builds the configured context.
func (c *Config) GeoContext() (*geo.Context, error) {
	opts := []geo.ContextOption{geo.WithRadiusKm(c.Context.RadiusKm)}
	if c.Context.Model == "euclidean" {
		opts = append(opts, geo.WithEuclidean())
	}
	return geo.NewContext(opts...)
}

// NewGrid builds the configured grid over ctx.
func (c *Config) NewGrid(ctx *geo.Context) (*prefixtree.Grid, error) {
	kind, err := prefixtree.ParseKind(c.Grid.Kind)
	if err != nil {
		return nil, err
	}
	return prefixtree.New(ctx, kind, c.Grid.MaxLevels, prefixtree.WithCellCacheSize(c.Grid.CellCacheSize))
}

// NewStrategy builds the context, the grid when the strategy needs one, and
// the strategy.
func (c *Config) NewStrategy() (strategy.Strategy, error) {
	ctx, err := c.GeoContext()
	if err != nil {
		return nil, err
	}

	name := strategy.Name(c.Strategy.Name)
	var grid *prefixtree.Grid
	if name != strategy.NamePointVector {
		if grid, err = c.NewGrid(ctx); err != nil {
			return nil, err
		}
	}

	opts := []strategy.Option{
		strategy.WithDistErrPct(c.Strategy.DistErrPct),
		strategy.WithPointsOnly(c.Strategy.PointsOnly),
	}
	if c.Strategy.MaxTerms > 0 {
		opts = append(opts, strategy.WithMaxTerms(c.Strategy.MaxTerms))
	}
	return strategy.New(name, grid, ctx, c.Strategy.Field, opts...)
}
