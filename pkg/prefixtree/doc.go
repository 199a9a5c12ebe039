// Package prefixtree decomposes the globe into a hierarchy of cells addressed
// by tokens, where a token's length is its level and every prefix of a token
// names an ancestor cell.
//
// Two encodings are supported:
//
//   - Geohash: each level appends one base-32 character, five bits that
//     alternately halve longitude and latitude, longitude first.
//   - Quad: each level appends one of "0" (south-west), "1" (south-east),
//     "2" (north-west), "3" (north-east), quartering the cell.
//
// # Usage
//
//	grid, err := prefixtree.NewGeohashGrid(geo.DefaultContext(), 12)
//	if err != nil {
//	    return err
//	}
//	for cell := range grid.Cells(shape, grid.LevelForDistance(0.05)) {
//	    fmt.Println(cell.Token)
//	}
//
// A cell's extent is a pure function of its token. Decoded extents are
// memoized in a bounded LRU cache; grids are otherwise immutable and safe for
// concurrent use.
package prefixtree
