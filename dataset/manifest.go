package dataset

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Row is one manifest entry: the path of an image and the path of its
// segmentation mask.
type Row struct {
	ImagePath string
	MaskPath  string
}

// Manifest is the ordered table of image/mask path pairs that defines
// the full sample universe. Row order defines the canonical 0-based
// sample index. Loaded once, immutable after load.
type Manifest struct {
	Path string

	rows []Row
}

// LoadManifest parses a comma-delimited file with at least two columns:
// column 0 is the image path, column 1 the mask path. By default the
// first row is treated as a header and skipped; set noHeader to read it
// as data. Parse failures and rows with fewer than two columns return a
// *ManifestError.
func LoadManifest(path string, noHeader bool) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Column count is validated per row below; extra columns beyond the
	// first two are ignored.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	if !noHeader && len(records) > 0 {
		records = records[1:]
	}

	rows := make([]Row, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, &ManifestError{
				Path: path,
				Err:  errors.Errorf("row %d has %d columns, want at least 2", i, len(record)),
			}
		}
		rows = append(rows, Row{
			ImagePath: strings.TrimSpace(record[0]),
			MaskPath:  strings.TrimSpace(record[1]),
		})
	}

	return &Manifest{Path: path, rows: rows}, nil
}

// Len returns the number of data rows.
func (m *Manifest) Len() int { return len(m.rows) }

// Row returns the manifest entry at index i.
func (m *Manifest) Row(i int) Row { return m.rows[i] }
