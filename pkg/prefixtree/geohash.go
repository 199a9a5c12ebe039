package prefixtree

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

const (
	geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

	// geohashLibMaxChars is the longest hash the geohash library encodes.
	geohashLibMaxChars = 12
)

// geohashChild halves the parent five times following the bits of sym.
// Bits alternate longitude, latitude across the whole token, so characters
// at even depth start with longitude and those at odd depth with latitude.
func geohashChild(r geo.Rectangle, level, sym int) geo.Rectangle {
	lonTurn := (5*level)%2 == 0
	for bit := 4; bit >= 0; bit-- {
		upper := (sym>>bit)&1 == 1
		if lonTurn {
			mid := (r.MinX + r.MaxX) / 2
			if upper {
				r.MinX = mid
			} else {
				r.MaxX = mid
			}
		} else {
			mid := (r.MinY + r.MaxY) / 2
			if upper {
				r.MinY = mid
			} else {
				r.MaxY = mid
			}
		}
		lonTurn = !lonTurn
	}
	return r
}

// geohashSymbol returns the symbol index of the child of r at depth level
// that holds p. Points on a split line go to the upper half.
func geohashSymbol(r geo.Rectangle, level int, p geo.Point) int {
	lonTurn := (5*level)%2 == 0
	sym := 0
	for bit := 4; bit >= 0; bit-- {
		if lonTurn {
			mid := (r.MinX + r.MaxX) / 2
			if p.X >= mid {
				sym |= 1 << bit
				r.MinX = mid
			} else {
				r.MaxX = mid
			}
		} else {
			mid := (r.MinY + r.MaxY) / 2
			if p.Y >= mid {
				sym |= 1 << bit
				r.MinY = mid
			} else {
				r.MaxY = mid
			}
		}
		lonTurn = !lonTurn
	}
	return sym
}

// geohashLevelSizes returns cell width and height per hash length up to the
// geohash ceiling. Odd lengths split longitude 8 ways and latitude 4 ways;
// even lengths the reverse.
func geohashLevelSizes() (w, h []float64) {
	w = make([]float64, GeohashMaxLevelsCeiling+1)
	h = make([]float64, GeohashMaxLevelsCeiling+1)
	w[0], h[0] = 360, 180
	for i := 1; i <= GeohashMaxLevelsCeiling; i++ {
		if i%2 == 1 {
			w[i], h[i] = w[i-1]/8, h[i-1]/4
		} else {
			w[i], h[i] = w[i-1]/4, h[i-1]/8
		}
	}
	return w, h
}

// encodeGeohash encodes p with the geohash library. Coordinates on the
// north or east edge of the world are nudged inside since the library's
// fixed-point encoding has no room for them.
func encodeGeohash(p geo.Point, chars int) string {
	lat := p.Y
	if lat >= geo.MaxLat {
		lat = math.Nextafter(geo.MaxLat, 0)
	}
	lon := p.X
	if lon >= geo.MaxLon {
		lon = math.Nextafter(geo.MaxLon, 0)
	}
	return geohash.EncodeWithPrecision(lat, lon, uint(chars))
}
