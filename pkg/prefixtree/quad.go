package prefixtree

import "github.com/Aman-CERP/geoprefix/pkg/geo"

// quadAlphabet orders children south-west, south-east, north-west,
// north-east: bit 0 picks the east half, bit 1 the north half.
const quadAlphabet = "0123"

func quadChild(r geo.Rectangle, sym int) geo.Rectangle {
	midX := (r.MinX + r.MaxX) / 2
	midY := (r.MinY + r.MaxY) / 2
	if sym&1 == 1 {
		r.MinX = midX
	} else {
		r.MaxX = midX
	}
	if sym&2 == 2 {
		r.MinY = midY
	} else {
		r.MaxY = midY
	}
	return r
}

func quadSymbol(r geo.Rectangle, p geo.Point) int {
	sym := 0
	if p.X >= (r.MinX+r.MaxX)/2 {
		sym |= 1
	}
	if p.Y >= (r.MinY+r.MaxY)/2 {
		sym |= 2
	}
	return sym
}

func quadLevelSizes(maxLevels int) (w, h []float64) {
	w = make([]float64, maxLevels+1)
	h = make([]float64, maxLevels+1)
	w[0], h[0] = 360, 180
	for i := 1; i <= maxLevels; i++ {
		w[i], h[i] = w[i-1]/2, h[i-1]/2
	}
	return w, h
}
