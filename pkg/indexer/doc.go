// Package indexer turns documents with shapes into store postings.
//
// # Architecture
//
//	┌─────────────────┐
//	│    Indexer      │  ← This package
//	└────────┬────────┘
//	         │ strategy.Fields(shape)
//	┌────────▼────────┐
//	│ SpatialIndex    │  memory | sqlite | bleve
//	└─────────────────┘
//
// # Usage
//
//	idx, _ := store.NewSpatialIndexWithBackend(path, "sqlite")
//	ix, err := indexer.NewSpatialIndexer(
//	    indexer.WithStrategy(strat),
//	    indexer.WithStore(idx),
//	)
//	if err != nil {
//	    return err
//	}
//	defer ix.Close()
//
//	err = ix.Index(ctx, []*indexer.Document{{ID: "1", Shapes: []geo.Shape{p}}})
//
// A MultiIndexer writes the same documents through several indexers, for
// example a prefix tree field and a point vector field.
//
// # Thread Safety
//
// All Indexer implementations are safe for concurrent use.
package indexer
