package prefixtree

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// Kind selects the cell encoding of a Grid.
type Kind int

const (
	// KindGeohash is the base-32 geohash encoding.
	KindGeohash Kind = iota
	// KindQuad is the 4-way quad encoding.
	KindQuad
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindGeohash:
		return "geohash"
	case KindQuad:
		return "quad"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses "geohash" or "quad".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geohash":
		return KindGeohash, nil
	case "quad", "quadtree":
		return KindQuad, nil
	default:
		return 0, geoerrors.ConfigurationError(fmt.Sprintf("unknown grid kind %q (expected geohash or quad)", s), nil)
	}
}

const (
	// GeohashMaxLevelsCeiling is the deepest supported geohash level.
	GeohashMaxLevelsCeiling = 24
	// QuadMaxLevelsCeiling is the deepest supported quad level.
	QuadMaxLevelsCeiling = 50
	// DefaultCellCacheSize is the number of decoded cell extents kept per grid.
	DefaultCellCacheSize = 8192
)

// MaxLevelsCeiling returns the deepest level supported by kind.
func MaxLevelsCeiling(kind Kind) int {
	if kind == KindQuad {
		return QuadMaxLevelsCeiling
	}
	return GeohashMaxLevelsCeiling
}

// Option configures a Grid.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCellCacheSize sets the extent cache size. Zero disables the cache.
func WithCellCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// Grid is a spatial prefix tree over the world rectangle.
type Grid struct {
	ctx       *geo.Context
	kind      Kind
	maxLevels int
	alphabet  string
	cache     *lru.Cache[string, geo.Rectangle]

	// cell sizes per level, index 0 is the world
	levelW []float64
	levelH []float64
}

// NewGeohashGrid creates a geohash grid with maxLevels levels.
func NewGeohashGrid(ctx *geo.Context, maxLevels int, opts ...Option) (*Grid, error) {
	return New(ctx, KindGeohash, maxLevels, opts...)
}

// NewQuadGrid creates a quad grid with maxLevels levels.
func NewQuadGrid(ctx *geo.Context, maxLevels int, opts ...Option) (*Grid, error) {
	return New(ctx, KindQuad, maxLevels, opts...)
}

// New creates a grid of the given kind. Level counts outside
// [1, MaxLevelsCeiling(kind)] fail with a configuration error.
func New(ctx *geo.Context, kind Kind, maxLevels int, opts ...Option) (*Grid, error) {
	if ctx == nil {
		return nil, geoerrors.ConfigurationError("grid requires a spatial context", nil)
	}
	if kind != KindGeohash && kind != KindQuad {
		return nil, geoerrors.ConfigurationError(fmt.Sprintf("unknown grid kind %d", int(kind)), nil)
	}
	ceiling := MaxLevelsCeiling(kind)
	if maxLevels <= 0 || maxLevels > ceiling {
		return nil, geoerrors.GridLevelsError(maxLevels, ceiling)
	}

	o := options{cacheSize: DefaultCellCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Grid{
		ctx:       ctx,
		kind:      kind,
		maxLevels: maxLevels,
	}
	if kind == KindGeohash {
		g.alphabet = geohashAlphabet
		g.levelW, g.levelH = geohashLevelSizes()
	} else {
		g.alphabet = quadAlphabet
		g.levelW, g.levelH = quadLevelSizes(maxLevels)
	}

	if o.cacheSize > 0 {
		cache, err := lru.New[string, geo.Rectangle](o.cacheSize)
		if err != nil {
			return nil, geoerrors.ConfigurationError("failed to create cell cache", err)
		}
		g.cache = cache
	}
	return g, nil
}

// Context returns the grid's spatial context.
func (g *Grid) Context() *geo.Context { return g.ctx }

// Kind returns the grid's encoding.
func (g *Grid) Kind() Kind { return g.kind }

// MaxLevels returns the deepest level of the grid.
func (g *Grid) MaxLevels() int { return g.maxLevels }

// String implements fmt.Stringer.
func (g *Grid) String() string {
	return fmt.Sprintf("%sGrid(maxLevels:%d)", g.kind, g.maxLevels)
}

// CellSize returns the width and height in degrees of cells at level.
func (g *Grid) CellSize(level int) (width, height float64) {
	level = max(0, min(level, g.maxLevels))
	return g.levelW[level], g.levelH[level]
}

// World returns the root cell. Its token is empty and it is never emitted.
func (g *Grid) World() Cell {
	return Cell{Rect: geo.WorldRect()}
}

// Cell decodes a token into its cell.
func (g *Grid) Cell(token string) (Cell, error) {
	if len(token) > g.maxLevels {
		return Cell{}, geoerrors.InvalidArgumentError("token %q deeper than %d levels", token, g.maxLevels)
	}
	for i := 0; i < len(token); i++ {
		if strings.IndexByte(g.alphabet, token[i]) < 0 {
			return Cell{}, geoerrors.InvalidArgumentError("token %q has invalid %s symbol %q", token, g.kind, token[i])
		}
	}
	return Cell{Token: token, Rect: g.extent(token)}, nil
}

// extent returns the memoized rectangle of a valid token.
func (g *Grid) extent(token string) geo.Rectangle {
	if token == "" {
		return geo.WorldRect()
	}
	if g.cache != nil {
		if r, ok := g.cache.Get(token); ok {
			return r
		}
	}
	r := geo.WorldRect()
	for i := 0; i < len(token); i++ {
		r = g.subdivide(r, i, strings.IndexByte(g.alphabet, token[i]))
	}
	if g.cache != nil {
		g.cache.Add(token, r)
	}
	return r
}

// subdivide returns the child extent for symbol index sym of the cell at
// depth level (0-based, the parent's level).
func (g *Grid) subdivide(parent geo.Rectangle, level, sym int) geo.Rectangle {
	if g.kind == KindGeohash {
		return geohashChild(parent, level, sym)
	}
	return quadChild(parent, sym)
}

// Children returns the child cells of c, or nil at the maximum level.
func (g *Grid) Children(c Cell) []Cell {
	level := c.Level()
	if level >= g.maxLevels {
		return nil
	}
	children := make([]Cell, len(g.alphabet))
	for i := range len(g.alphabet) {
		token := c.Token + g.alphabet[i:i+1]
		var r geo.Rectangle
		cached := false
		if g.cache != nil {
			r, cached = g.cache.Get(token)
		}
		if !cached {
			r = g.subdivide(c.Rect, level, i)
			if g.cache != nil {
				g.cache.Add(token, r)
			}
		}
		children[i] = Cell{Token: token, Rect: r}
	}
	return children
}

// Parent returns the parent of c. The parent of a level-1 cell is the world.
func (g *Grid) Parent(c Cell) Cell {
	if c.Level() == 0 {
		return c
	}
	token := c.Token[:len(c.Token)-1]
	return Cell{Token: token, Rect: g.extent(token)}
}

// clampLevel bounds a requested level to [1, maxLevels].
func (g *Grid) clampLevel(level int) int {
	return max(1, min(level, g.maxLevels))
}
