package dataset

import (
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// Verify walks every manifest row once and checks that both files exist
// and decode. The iteration path never does this upfront, so Verify is
// the tool for catching bad rows before a long training run. With
// verbose set it renders a progress bar. Returns the first error hit.
func (d *Dataset) Verify(verbose bool) error {
	var bar *progressbar.ProgressBar
	if verbose {
		bar = progressbar.NewOptions(d.Len(),
			progressbar.OptionSetDescription("Verifying"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("samples"),
		)
	}

	for i := 0; i < d.Len(); i++ {
		row := d.manifest.Row(i)
		if err := checkDecodable(row.ImagePath, "image"); err != nil {
			return errors.Wrapf(err, "manifest row %d", i)
		}
		if err := checkDecodable(row.MaskPath, "mask"); err != nil {
			return errors.Wrapf(err, "manifest row %d", i)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Close()
	}
	return nil
}

func checkDecodable(path, kind string) error {
	if !fileExists(path) {
		return &MissingFileError{Kind: kind, Path: path}
	}
	_, err := decodeFile(path, kind)
	return err
}
