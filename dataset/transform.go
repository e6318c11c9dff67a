package dataset

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Transform maps a tensor to a tensor. Implementations are opaque to
// the dataset: they may resize, crop, augment or normalize. A transform
// configured on a dataset is applied to exactly one of the two sample
// tensors, never both.
type Transform interface {
	Apply(t *Tensor) (*Tensor, error)
}

// TransformFunc adapts a plain function to the Transform interface.
type TransformFunc func(*Tensor) (*Tensor, error)

func (f TransformFunc) Apply(t *Tensor) (*Tensor, error) { return f(t) }

// DeviceBound is implemented by transforms that carry a compute-device
// affinity. The loader forwards its configured device tag through To
// before using the transform; it never reasons about devices beyond
// that.
type DeviceBound interface {
	To(device string) Transform
}

// Identity returns a transform that passes tensors through unchanged.
func Identity() Transform {
	return TransformFunc(func(t *Tensor) (*Tensor, error) { return t, nil })
}

// Compose chains transforms left to right.
func Compose(ts ...Transform) Transform {
	return TransformFunc(func(t *Tensor) (*Tensor, error) {
		var err error
		for _, tf := range ts {
			if t, err = tf.Apply(t); err != nil {
				return nil, err
			}
		}
		return t, nil
	})
}

// Stock normalization constants: the ImageNet statistics commonly used
// for pretrained encoders, and the symmetric 0.5/0.5 pair for binary
// masks.
var (
	ImageNetMean = []float32{0.485, 0.456, 0.406}
	ImageNetStd  = []float32{0.229, 0.224, 0.225}

	MaskMean = []float32{0.5}
	MaskStd  = []float32{0.5}
)

// Normalize returns a transform computing (x-mean)/std per channel on a
// (C,H,W) tensor. mean and std must have one entry per channel.
func Normalize(mean, std []float32) Transform {
	return TransformFunc(func(t *Tensor) (*Tensor, error) {
		if len(t.Dims) != 3 {
			return nil, errors.Errorf("normalize wants a (C,H,W) tensor, got shape %v", t.Dims)
		}
		c := t.Dims[0]
		if len(mean) != c || len(std) != c {
			return nil, errors.Errorf("normalize has %d means and %d stds for %d channels",
				len(mean), len(std), c)
		}

		out := t.Clone()
		plane := t.Dims[1] * t.Dims[2]
		for ch := 0; ch < c; ch++ {
			m, s := mean[ch], std[ch]
			for i := ch * plane; i < (ch+1)*plane; i++ {
				out.Data[i] = (out.Data[i] - m) / s
			}
		}
		return out, nil
	})
}

// Resize returns a transform that scales a 1- or 3-channel (C,H,W)
// tensor to the given width and height. It round-trips through 8-bit
// image space, so inputs are expected in [0,1].
func Resize(width, height int) Transform {
	return TransformFunc(func(t *Tensor) (*Tensor, error) {
		if len(t.Dims) != 3 {
			return nil, errors.Errorf("resize wants a (C,H,W) tensor, got shape %v", t.Dims)
		}
		c := t.Dims[0]
		if c != 1 && c != 3 {
			return nil, errors.Errorf("resize supports 1- or 3-channel tensors, got %d channels", c)
		}
		if width < 1 || height < 1 {
			return nil, errors.Errorf("invalid resize target %dx%d", width, height)
		}

		resized := imaging.Resize(tensorToImage(t), width, height, imaging.Lanczos)
		if c == 1 {
			return maskToTensor(resized), nil
		}
		return imageToTensor(resized), nil
	})
}

// tensorToImage renders a (C,H,W) tensor in [0,1] as an 8-bit image.
// Single-channel tensors are replicated across R, G and B.
func tensorToImage(t *Tensor) *image.NRGBA {
	c, h, w := t.Dims[0], t.Dims[1], t.Dims[2]
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			r := t.Data[i]
			g, b := r, r
			if c == 3 {
				g, b = t.Data[plane+i], t.Data[2*plane+i]
			}
			off := img.PixOffset(x, y)
			img.Pix[off+0] = clampByte(r)
			img.Pix[off+1] = clampByte(g)
			img.Pix[off+2] = clampByte(b)
			img.Pix[off+3] = 0xFF
		}
	}
	return img
}

func clampByte(v float32) uint8 {
	s := v * 255
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s + 0.5)
}
