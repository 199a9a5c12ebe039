package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOperation("  isdisjointto ")
	require.NoError(t, err)
	assert.Equal(t, IsDisjointTo, got)

	_, err = ParseOperation("touches")
	require.Error(t, err)
	assert.ErrorIs(t, err, geoerrors.ErrInvalidArgument)
	assert.Equal(t, "Unknown", Operation(42).String())
}

func TestOperation_AreaRequirements(t *testing.T) {
	assert.True(t, Contains.SourceNeedsArea())
	assert.False(t, Intersects.SourceNeedsArea())
	assert.True(t, IsWithin.TargetNeedsArea())
	assert.True(t, Overlaps.TargetNeedsArea())
	assert.False(t, IsDisjointTo.TargetNeedsArea())
}

func TestSpatialArgs_Validate(t *testing.T) {
	rect := geo.Rectangle{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}
	pt := geo.Point{X: 1, Y: 1}

	tests := []struct {
		name    string
		args    SpatialArgs
		wantErr error
	}{
		{"intersects point", NewSpatialArgs(Intersects, pt), nil},
		{"within rect", NewSpatialArgs(IsWithin, rect), nil},
		{"within point", NewSpatialArgs(IsWithin, pt), geoerrors.ErrInvalidQuery},
		{"overlaps point", NewSpatialArgs(Overlaps, pt), geoerrors.ErrInvalidQuery},
		{"nil shape", NewSpatialArgs(Intersects, nil), geoerrors.ErrInvalidQuery},
		{"bad operation", NewSpatialArgs(Operation(9), rect), geoerrors.ErrInvalidQuery},
		{"pct too large", NewSpatialArgs(Intersects, rect).WithDistErrPct(0.6), geoerrors.ErrInvalidArgument},
		{"pct negative", NewSpatialArgs(Intersects, rect).WithDistErrPct(-0.1), geoerrors.ErrInvalidArgument},
		{"pct upper bound", NewSpatialArgs(Intersects, rect).WithDistErrPct(0.5), nil},
		{"negative distErr", NewSpatialArgs(Intersects, rect).WithDistErr(-1), geoerrors.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.args.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDistanceFromErrPct(t *testing.T) {
	ctx := geo.DefaultContext()

	// Given a box centered on the equator
	box := geo.Rectangle{MinX: -10, MaxX: 10, MinY: -10, MaxY: 10}

	// When scaled by a fraction
	full, err := DistanceFromErrPct(ctx, box, 1)
	require.Error(t, err)
	assert.Zero(t, full)

	half, err := DistanceFromErrPct(ctx, box, 0.5)
	require.NoError(t, err)

	// Then it is half the center-to-corner distance
	want := ctx.Distance(geo.Point{}, geo.Point{X: 10, Y: 10}) * 0.5
	assert.InDelta(t, want, half, 1e-9)

	zero, err := DistanceFromErrPct(ctx, box, 0)
	require.NoError(t, err)
	assert.Zero(t, zero)

	pt, err := DistanceFromErrPct(ctx, geo.Point{X: 3, Y: 4}, 0.25)
	require.NoError(t, err)
	assert.Zero(t, pt)
}

func TestDistanceFromErrPct_UsesCornerNearEquator(t *testing.T) {
	ctx := geo.DefaultContext()
	south := geo.Rectangle{MinX: 0, MaxX: 20, MinY: -80, MaxY: -60}

	got, err := DistanceFromErrPct(ctx, south, 0.1)
	require.NoError(t, err)

	want := ctx.Distance(geo.Point{X: 10, Y: -70}, geo.Point{X: 20, Y: -80}) * 0.1
	assert.InDelta(t, want, got, 1e-9)
}

func TestSpatialArgs_ResolveDistErr(t *testing.T) {
	ctx := geo.DefaultContext()
	rect := geo.Rectangle{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}

	explicit, err := NewSpatialArgs(Intersects, rect).WithDistErr(0.7).WithDistErrPct(0.2).ResolveDistErr(ctx, DefaultDistErrPct)
	require.NoError(t, err)
	assert.Equal(t, 0.7, explicit)

	def, err := NewSpatialArgs(Intersects, rect).ResolveDistErr(ctx, DefaultDistErrPct)
	require.NoError(t, err)
	pct, err := NewSpatialArgs(Intersects, rect).WithDistErrPct(DefaultDistErrPct).ResolveDistErr(ctx, 0.4)
	require.NoError(t, err)
	assert.InDelta(t, def, pct, 1e-12)
	assert.Greater(t, def, 0.0)
}

func TestSpatialArgs_String(t *testing.T) {
	args := NewSpatialArgs(Intersects, geo.Point{X: 1, Y: 2}).WithDistErrPct(0.1)
	assert.Contains(t, args.String(), "Intersects(")
	assert.Contains(t, args.String(), "distErrPct=0.1")
}
