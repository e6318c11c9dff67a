package dataset

import (
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Tensor is a dense float32 array stored as a contiguous row-major
// buffer with explicit shape metadata. Keeping samples and batches in
// this form avoids a hard dependency on a particular tensor API in the
// hot path; converting to a gomlx tensor for training is a single
// ToGomlx call.
type Tensor struct {
	Data []float32
	Dims []int
}

// NewTensor allocates a zero-filled tensor with the given dimensions.
func NewTensor(dims ...int) *Tensor {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return &Tensor{Data: make([]float32, n), Dims: dims}
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{
		Data: make([]float32, len(t.Data)),
		Dims: make([]int, len(t.Dims)),
	}
	copy(out.Data, t.Data)
	copy(out.Dims, t.Dims)
	return out
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stack concatenates tensors of identical shape along a new leading
// dimension: n tensors of shape (c,h,w) become one of shape (n,c,h,w).
func Stack(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, errors.New("cannot stack an empty batch")
	}
	elem := ts[0].Dims
	for i, t := range ts[1:] {
		if !sameDims(elem, t.Dims) {
			return nil, errors.Errorf("inconsistent shapes: tensor 0 has %v, tensor %d has %v",
				elem, i+1, t.Dims)
		}
	}

	dims := make([]int, 0, 1+len(elem))
	dims = append(dims, len(ts))
	dims = append(dims, elem...)
	out := NewTensor(dims...)

	stride := ts[0].NumElements()
	for i, t := range ts {
		copy(out.Data[i*stride:], t.Data)
	}
	return out, nil
}

// ToGomlx converts the tensor into a gomlx tensor of the same shape,
// suitable for gomlx train loops.
func (t *Tensor) ToGomlx() *tensors.Tensor {
	out := tensors.FromShape(shapes.Make(dtypes.Float32, t.Dims...))
	out.MutableFlatData(func(flatAny any) {
		copy(flatAny.([]float32), t.Data)
	})
	return out
}
