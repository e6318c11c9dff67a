// Package dataset provides a manifest-backed sample index for binary
// image-segmentation data: a CSV manifest of image/mask path pairs is
// parsed into an ordered table, and samples are decoded lazily, one
// access at a time, into channel-first float32 tensors.
//
// The dataset stores only paths; images and masks are read and decoded
// on demand and never cached, so memory stays flat regardless of
// dataset size and a manifest may reference files created after it was
// loaded.
package dataset

import (
	"image"
	"image/color"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
)

// Config holds the construction options for a Dataset.
type Config struct {
	// ManifestPath locates the CSV manifest (required).
	ManifestPath string

	// ImageTransform, if set, is applied to the image tensor of every
	// sample after decode and scaling.
	ImageTransform Transform

	// MaskTransform, if set, is applied to the mask tensor.
	MaskTransform Transform

	// NoHeader treats the first manifest row as data instead of a
	// header.
	NoHeader bool
}

// Dataset is the manifest-backed sample index. It is read-only after
// construction; concurrent At calls are safe.
type Dataset struct {
	manifest *Manifest
	imageTF  Transform
	maskTF   Transform
}

// Sample is one decoded (image, mask) tensor pair. It is materialized
// on demand and never persisted.
type Sample struct {
	// Image has shape (3, H, W), channel order RGB, values scaled to
	// [0,1] before any transform.
	Image *Tensor
	// Mask has shape (1, H, W), values scaled to [0,1] before any
	// transform.
	Mask *Tensor
}

// New parses the manifest and returns the dataset. No image or mask
// file is touched here; existence is checked per access in At.
func New(cfg Config) (*Dataset, error) {
	m, err := LoadManifest(cfg.ManifestPath, cfg.NoHeader)
	if err != nil {
		return nil, err
	}
	return &Dataset{
		manifest: m,
		imageTF:  cfg.ImageTransform,
		maskTF:   cfg.MaskTransform,
	}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return d.manifest.Len() }

// At materializes the sample at the given index: it checks that both
// files exist (*MissingFileError otherwise), decodes the image as
// 3-channel color and the mask as single-channel grayscale
// (*DecodeError on failure), scales both into [0,1], lays them out
// channel-first, and applies the configured transforms, image first.
func (d *Dataset) At(index int) (*Sample, error) {
	if index < 0 || index >= d.Len() {
		return nil, errors.Errorf("index %d out of range [0, %d)", index, d.Len())
	}
	row := d.manifest.Row(index)

	if !fileExists(row.ImagePath) {
		return nil, &MissingFileError{Kind: "image", Path: row.ImagePath}
	}
	if !fileExists(row.MaskPath) {
		return nil, &MissingFileError{Kind: "mask", Path: row.MaskPath}
	}

	img, err := decodeFile(row.ImagePath, "image")
	if err != nil {
		return nil, err
	}
	msk, err := decodeFile(row.MaskPath, "mask")
	if err != nil {
		return nil, err
	}

	sample := &Sample{Image: imageToTensor(img), Mask: maskToTensor(msk)}
	if d.imageTF != nil {
		if sample.Image, err = d.imageTF.Apply(sample.Image); err != nil {
			return nil, errors.Wrapf(err, "image transform for row %d", index)
		}
	}
	if d.maskTF != nil {
		if sample.Mask, err = d.maskTF.Apply(sample.Mask); err != nil {
			return nil, errors.Wrapf(err, "mask transform for row %d", index)
		}
	}
	return sample, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func decodeFile(path, kind string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Path: path, Err: err}
	}
	return img, nil
}

// imageToTensor lays an image out channel-first as (3, H, W) with red
// at channel 0 and values scaled to [0,1] by the 8-bit maximum.
func imageToTensor(img image.Image) *Tensor {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := NewTensor(3, h, w)
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*w + x
			t.Data[i] = float32(r>>8) / 255.0
			t.Data[plane+i] = float32(g>>8) / 255.0
			t.Data[2*plane+i] = float32(b>>8) / 255.0
		}
	}
	return t
}

// maskToTensor converts an image to single-channel grayscale with an
// explicit leading channel dimension, shape (1, H, W), scaled to [0,1].
// Color inputs are reduced with the standard luma weights.
func maskToTensor(img image.Image) *Tensor {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := NewTensor(1, h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			t.Data[y*w+x] = float32(gray.Y) / 255.0
		}
	}
	return t
}
