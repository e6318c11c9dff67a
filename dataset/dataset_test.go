package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG encodes a w×h image to path using the per-pixel color
// function.
func writePNG(t *testing.T, path string, w, h int, at func(x, y int) color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, at(x, y))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func solid(c color.Color) func(x, y int) color.Color {
	return func(x, y int) color.Color { return c }
}

// writePair writes one image/mask PNG pair and returns the manifest row
// for it.
func writePair(t *testing.T, dir, name string, img, mask color.Color) string {
	t.Helper()
	imgPath := filepath.Join(dir, name+".png")
	maskPath := filepath.Join(dir, name+"_mask.png")
	writePNG(t, imgPath, 2, 2, solid(img))
	writePNG(t, maskPath, 2, 2, solid(mask))
	return fmt.Sprintf("%s,%s", imgPath, maskPath)
}

func newTestDataset(t *testing.T, cfg Config, rows []string) *Dataset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	writeManifest(t, path, true, rows)
	cfg.ManifestPath = path
	ds, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ds
}

func TestDatasetAt_MaxValueScalesToOne(t *testing.T) {
	tmp := t.TempDir()
	row := writePair(t, tmp, "white",
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	ds := newTestDataset(t, Config{}, []string{row})

	sample, err := ds.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if !sameDims(sample.Image.Dims, []int{3, 2, 2}) {
		t.Fatalf("unexpected image shape: %v", sample.Image.Dims)
	}
	if !sameDims(sample.Mask.Dims, []int{1, 2, 2}) {
		t.Fatalf("unexpected mask shape: %v", sample.Mask.Dims)
	}
	for i, v := range sample.Image.Data {
		if v != 1.0 {
			t.Fatalf("image value %d = %f, want 1.0", i, v)
		}
	}
	for i, v := range sample.Mask.Data {
		if v != 1.0 {
			t.Fatalf("mask value %d = %f, want 1.0", i, v)
		}
	}
}

func TestDatasetAt_IdentityTransformsLeaveValuesUnchanged(t *testing.T) {
	tmp := t.TempDir()
	row := writePair(t, tmp, "white",
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	ds := newTestDataset(t, Config{
		ImageTransform: Identity(),
		MaskTransform:  Identity(),
	}, []string{row})

	sample, err := ds.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	for i, v := range sample.Image.Data {
		if v != 1.0 {
			t.Fatalf("image value %d = %f after identity transform, want 1.0", i, v)
		}
	}
	for i, v := range sample.Mask.Data {
		if v != 1.0 {
			t.Fatalf("mask value %d = %f after identity transform, want 1.0", i, v)
		}
	}
}

func TestDatasetAt_RedIsChannelZero(t *testing.T) {
	tmp := t.TempDir()
	row := writePair(t, tmp, "red",
		color.NRGBA{R: 255, G: 0, B: 0, A: 255},
		color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	ds := newTestDataset(t, Config{}, []string{row})

	sample, err := ds.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	plane := 2 * 2
	for i := 0; i < plane; i++ {
		if sample.Image.Data[i] != 1.0 {
			t.Fatalf("red channel value %d = %f, want 1.0", i, sample.Image.Data[i])
		}
	}
	for i := plane; i < 3*plane; i++ {
		if sample.Image.Data[i] != 0.0 {
			t.Fatalf("green/blue channel value %d = %f, want 0.0", i, sample.Image.Data[i])
		}
	}
}

func TestDatasetAt_MissingImage(t *testing.T) {
	tmp := t.TempDir()
	maskPath := filepath.Join(tmp, "mask.png")
	writePNG(t, maskPath, 2, 2, solid(color.NRGBA{A: 255}))
	row := fmt.Sprintf("%s,%s", filepath.Join(tmp, "gone.png"), maskPath)
	ds := newTestDataset(t, Config{}, []string{row})

	_, err := ds.At(0)
	var mf *MissingFileError
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MissingFileError, got %T: %v", err, err)
	}
	if mf.Kind != "image" {
		t.Fatalf("expected image kind, got %q", mf.Kind)
	}
}

func TestDatasetAt_MissingMask(t *testing.T) {
	tmp := t.TempDir()
	imgPath := filepath.Join(tmp, "img.png")
	writePNG(t, imgPath, 2, 2, solid(color.NRGBA{A: 255}))
	row := fmt.Sprintf("%s,%s", imgPath, filepath.Join(tmp, "gone.png"))
	ds := newTestDataset(t, Config{}, []string{row})

	_, err := ds.At(0)
	var mf *MissingFileError
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MissingFileError, got %T: %v", err, err)
	}
	if mf.Kind != "mask" {
		t.Fatalf("expected mask kind, got %q", mf.Kind)
	}
}

func TestDatasetAt_CorruptImage(t *testing.T) {
	tmp := t.TempDir()
	imgPath := filepath.Join(tmp, "corrupt.png")
	if err := os.WriteFile(imgPath, []byte("not a png"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}
	maskPath := filepath.Join(tmp, "mask.png")
	writePNG(t, maskPath, 2, 2, solid(color.NRGBA{A: 255}))
	ds := newTestDataset(t, Config{}, []string{fmt.Sprintf("%s,%s", imgPath, maskPath)})

	_, err := ds.At(0)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if de.Kind != "image" {
		t.Fatalf("expected image kind, got %q", de.Kind)
	}
}

func TestDatasetAt_TransformsApplyToTheirOwnTensor(t *testing.T) {
	tmp := t.TempDir()
	row := writePair(t, tmp, "white",
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	double := TransformFunc(func(in *Tensor) (*Tensor, error) {
		out := in.Clone()
		for i := range out.Data {
			out.Data[i] *= 2
		}
		return out, nil
	})
	negate := TransformFunc(func(in *Tensor) (*Tensor, error) {
		out := in.Clone()
		for i := range out.Data {
			out.Data[i] = -out.Data[i]
		}
		return out, nil
	})

	ds := newTestDataset(t, Config{ImageTransform: double, MaskTransform: negate}, []string{row})
	sample, err := ds.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if got := sample.Image.Data[0]; got != 2.0 {
		t.Fatalf("image transform not applied: got %f, want 2.0", got)
	}
	if got := sample.Mask.Data[0]; got != -1.0 {
		t.Fatalf("mask transform not applied: got %f, want -1.0", got)
	}
}

func TestDatasetAt_IndexOutOfRange(t *testing.T) {
	tmp := t.TempDir()
	row := writePair(t, tmp, "a",
		color.NRGBA{A: 255}, color.NRGBA{A: 255})
	ds := newTestDataset(t, Config{}, []string{row})

	if _, err := ds.At(-1); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if _, err := ds.At(1); err == nil {
		t.Fatalf("expected error for index past the end")
	}
}

func TestSubset_MapsOntoSharedDataset(t *testing.T) {
	tmp := t.TempDir()
	rows := make([]string, 4)
	for i := range rows {
		rows[i] = writePair(t, tmp, fmt.Sprintf("s%d", i),
			color.NRGBA{R: uint8(i * 10), A: 255}, color.NRGBA{A: 255})
	}
	ds := newTestDataset(t, Config{}, rows)

	sub, err := NewSubset(ds, 1, 3)
	if err != nil {
		t.Fatalf("NewSubset failed: %v", err)
	}
	if sub.Len() != 2 {
		t.Fatalf("expected subset length 2, got %d", sub.Len())
	}

	sample, err := sub.At(0)
	if err != nil {
		t.Fatalf("subset At(0) failed: %v", err)
	}
	want := float32(10) / 255.0
	if got := sample.Image.Data[0]; got != want {
		t.Fatalf("subset At(0) returned wrong sample: red = %f, want %f", got, want)
	}

	if _, err := sub.At(2); err == nil {
		t.Fatalf("expected error for index past subset end")
	}
	if _, err := NewSubset(ds, 3, 2); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestVerify(t *testing.T) {
	tmp := t.TempDir()
	rows := []string{
		writePair(t, tmp, "good0", color.NRGBA{A: 255}, color.NRGBA{A: 255}),
		writePair(t, tmp, "good1", color.NRGBA{A: 255}, color.NRGBA{A: 255}),
	}
	ds := newTestDataset(t, Config{}, rows)
	if err := ds.Verify(false); err != nil {
		t.Fatalf("Verify failed on a clean dataset: %v", err)
	}

	badRow := fmt.Sprintf("%s,%s", filepath.Join(tmp, "gone.png"), filepath.Join(tmp, "good0_mask.png"))
	ds = newTestDataset(t, Config{}, append(rows, badRow))
	err := ds.Verify(false)
	var mf *MissingFileError
	if !errors.As(err, &mf) {
		t.Fatalf("expected *MissingFileError from Verify, got %T: %v", err, err)
	}
}
