package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"segset/dataset"
)

// fetch materializes the samples for one batch. With workers enabled,
// each sample lands in its position-indexed slot, so batch order always
// matches index order regardless of completion order, and worker and
// sequential fetches produce identical batches. The subset is read-only
// after construction, so workers share it without locking; the first
// failing sample cancels the rest of the group.
func (l *Loader) fetch(ctx context.Context, indices []int) ([]*dataset.Sample, error) {
	samples := make([]*dataset.Sample, len(indices))

	if l.workers == 0 {
		for i, idx := range indices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, err := l.view.At(idx)
			if err != nil {
				return nil, err
			}
			samples[i] = s
		}
		return samples, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, idx := range indices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := l.view.At(idx)
			if err != nil {
				return err
			}
			samples[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}
