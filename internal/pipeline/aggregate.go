package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/meteo-precip-etl/internal/domain"
)

// Aggregate reads every archive concurrently, at most workers at a time, and
// merges the results in filename order. The first failing archive cancels
// the rest and its error is returned.
func Aggregate(ctx context.Context, reader ArchiveReader, paths []string, workers int) ([]domain.Observation, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]domain.ArchiveResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			res, err := reader.ReadArchive(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domain.MergeArchiveResults(results), nil
}
