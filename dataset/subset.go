package dataset

import "github.com/pkg/errors"

// Subset is a view over a contiguous [start, end) index range of a
// Dataset. It references the shared dataset without copying samples, so
// multiple subsets of the same dataset cost nothing beyond their
// bounds. Like the Dataset itself it is read-only and safe for
// concurrent At calls.
type Subset struct {
	ds    *Dataset
	start int
	end   int
}

// NewSubset wraps the half-open range [start, end) of ds.
func NewSubset(ds *Dataset, start, end int) (*Subset, error) {
	if start < 0 || end < start || end > ds.Len() {
		return nil, errors.Errorf("invalid subset range [%d, %d) for dataset of length %d",
			start, end, ds.Len())
	}
	return &Subset{ds: ds, start: start, end: end}, nil
}

// Len returns the number of samples in the view.
func (s *Subset) Len() int { return s.end - s.start }

// At returns the i-th sample of the view, mapping i onto the underlying
// dataset index.
func (s *Subset) At(i int) (*Sample, error) {
	if i < 0 || i >= s.Len() {
		return nil, errors.Errorf("index %d out of range for subset of length %d", i, s.Len())
	}
	return s.ds.At(s.start + i)
}
