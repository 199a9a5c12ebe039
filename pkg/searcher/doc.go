// Package searcher answers spatial queries against a store.
//
//   - [SpatialSearcher]: builds a strategy query, evaluates it in a
//     store.SpatialIndex and applies the strategy's exact distance filter
//   - [CombinedSearcher]: runs several searchers in parallel and unions or
//     intersects their answers
//
// # Usage
//
//	s, err := searcher.NewSpatialSearcher(
//	    searcher.WithStrategy(strat),
//	    searcher.WithStore(idx),
//	)
//	if err != nil {
//	    return err
//	}
//	args := query.NewSpatialArgs(query.Intersects, circle)
//	results, err := s.Search(ctx, args, 10)
//
// Results are sorted by document ID. Spatial matches are unscored.
package searcher
