// Package analysis computes quick statistics over a segmentation
// dataset, the kind of sanity check run before committing to a long
// training session: how much of each mask is foreground, and how that
// is distributed across the manifest.
package analysis

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"segset/dataset"
)

// Coverage returns, for each requested sample index, the fraction of
// mask pixels above 0.5. For a binary ground-truth mask in [0,1] this
// is the foreground share of the sample.
func Coverage(ds *dataset.Dataset, indices []int) ([]float64, error) {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		sample, err := ds.At(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", idx)
		}
		fg := 0
		for _, v := range sample.Mask.Data {
			if v > 0.5 {
				fg++
			}
		}
		if n := len(sample.Mask.Data); n > 0 {
			out[i] = float64(fg) / float64(n)
		}
	}
	return out, nil
}

// SaveCoverageHistogram writes a histogram of mask foreground coverage
// to path (format chosen by extension, e.g. .png).
func SaveCoverageHistogram(path string, coverage []float64) error {
	if len(coverage) == 0 {
		return errors.New("no coverage values to plot")
	}

	vals := make(plotter.Values, len(coverage))
	copy(vals, coverage)

	p := plot.New()
	p.Title.Text = "Mask foreground coverage"
	p.X.Label.Text = "foreground fraction"
	p.Y.Label.Text = "samples"

	h, err := plotter.NewHist(vals, 20)
	if err != nil {
		return err
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
