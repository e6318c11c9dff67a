// Package loader splits a manifest-backed segmentation dataset into
// train/valid/test partitions and exposes each as a restartable batch
// iterator. Partitions are contiguous positional ranges over the
// manifest order (80/10/10); the train iterator reshuffles every pass,
// valid and test iterate sequentially. Sample fetching can run on a
// bounded worker pool.
package loader

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"

	"segset/dataset"
)

// Defaults applied by DefaultConfig, and by New for zero-valued fields
// where zero has no meaning of its own.
const (
	DefaultBatchSize  = 16
	DefaultNumWorkers = 4
	DefaultDevice     = "cuda"
)

// ConfigurationError reports an invalid batch size or worker count. It
// is returned at construction, before any data is touched.
type ConfigurationError struct {
	Field string
	Value int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %d", e.Field, e.Value)
}

// Config holds the construction options for the three partition
// loaders.
type Config struct {
	// ManifestPath locates the CSV manifest (required).
	ManifestPath string

	// ImageTransform and MaskTransform are optional and opaque; each is
	// applied only to its respective tensor. Transforms implementing
	// dataset.DeviceBound are bound to Device before use.
	ImageTransform dataset.Transform
	MaskTransform  dataset.Transform

	// BatchSize is the maximum batch size; the last batch of a
	// partition may be smaller. Zero means DefaultBatchSize; negative
	// values are rejected.
	BatchSize int

	// NumWorkers is the parallel-fetch degree. Zero fetches
	// sequentially in the caller's goroutine; negative values are
	// rejected. Use DefaultConfig to start from the stock value of 4.
	NumWorkers int

	// Device is the compute tag forwarded to device-bound transforms.
	// Empty means DefaultDevice. The loader itself never moves data to
	// a device.
	Device string

	// NoHeader treats the first manifest row as data.
	NoHeader bool

	// Rand drives the training shuffle. Defaults to a time-seeded
	// source; inject a seeded one for reproducible passes.
	Rand *rand.Rand
}

// DefaultConfig returns the stock configuration for a manifest: batch
// size 16, four fetch workers, GPU-preferring device tag.
func DefaultConfig(manifestPath string) Config {
	return Config{
		ManifestPath: manifestPath,
		BatchSize:    DefaultBatchSize,
		NumWorkers:   DefaultNumWorkers,
		Device:       DefaultDevice,
	}
}

// Loaders bundles the three independent partition iterators produced by
// New. They share one underlying dataset and never overlap.
type Loaders struct {
	Train *Loader
	Valid *Loader
	Test  *Loader
}

// New builds the dataset from cfg and splits it 80/10/10 by manifest
// position: train = [0, floor(0.8N)), valid = [floor(0.8N),
// floor(0.9N)), test = the remainder. With N < 10 some partitions may
// be empty; that is accepted, not an error.
func New(cfg Config) (*Loaders, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize < 1 {
		return nil, &ConfigurationError{Field: "batch size", Value: cfg.BatchSize}
	}
	if cfg.NumWorkers < 0 {
		return nil, &ConfigurationError{Field: "worker count", Value: cfg.NumWorkers}
	}
	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ds, err := dataset.New(dataset.Config{
		ManifestPath:   cfg.ManifestPath,
		ImageTransform: bindDevice(cfg.ImageTransform, cfg.Device),
		MaskTransform:  bindDevice(cfg.MaskTransform, cfg.Device),
		NoHeader:       cfg.NoHeader,
	})
	if err != nil {
		return nil, err
	}

	n := ds.Len()
	split1, split2 := splitPoints(n)

	trainLoader, err := newLoader("train", ds, 0, split1, cfg, true)
	if err != nil {
		return nil, err
	}
	validLoader, err := newLoader("valid", ds, split1, split2, cfg, false)
	if err != nil {
		return nil, err
	}
	testLoader, err := newLoader("test", ds, split2, n, cfg, false)
	if err != nil {
		return nil, err
	}

	return &Loaders{Train: trainLoader, Valid: validLoader, Test: testLoader}, nil
}

// bindDevice forwards the configured device tag to transforms that
// carry a device affinity.
func bindDevice(tf dataset.Transform, device string) dataset.Transform {
	if tf == nil {
		return nil
	}
	if db, ok := tf.(dataset.DeviceBound); ok {
		return db.To(device)
	}
	return tf
}

// Loader iterates one partition in batches. A full pass yields
// ceil(Len/batchSize) batches and then io.EOF; Reset starts a fresh
// pass, reshuffled for the train partition.
type Loader struct {
	name      string
	view      *dataset.Subset
	batchSize int
	workers   int
	shuffle   bool
	rng       *rand.Rand

	order []int
	pos   int
}

var _ train.Dataset = (*Loader)(nil)

func newLoader(name string, ds *dataset.Dataset, start, end int, cfg Config, shuffle bool) (*Loader, error) {
	view, err := dataset.NewSubset(ds, start, end)
	if err != nil {
		return nil, err
	}
	l := &Loader{
		name:      name,
		view:      view,
		batchSize: cfg.BatchSize,
		workers:   cfg.NumWorkers,
		shuffle:   shuffle,
		rng:       cfg.Rand,
	}
	l.Reset()
	return l, nil
}

// Name implements train.Dataset.
func (l *Loader) Name() string { return l.name }

// Len returns the number of samples in the partition.
func (l *Loader) Len() int { return l.view.Len() }

// Batches returns the number of batches in one full pass.
func (l *Loader) Batches() int {
	return (l.Len() + l.batchSize - 1) / l.batchSize
}

// Reset implements train.Dataset. A fresh pass starts again at the
// first element of the partition; the train partition gets a fresh
// permutation.
func (l *Loader) Reset() {
	l.pos = 0
	if l.shuffle {
		l.order = l.rng.Perm(l.view.Len())
		return
	}
	if l.order == nil {
		l.order = make([]int, l.view.Len())
		for i := range l.order {
			l.order[i] = i
		}
	}
}

// Batch is one stacked group of samples. Produced per iteration step,
// not retained.
type Batch struct {
	// Images has shape (Size, 3, H, W).
	Images *dataset.Tensor
	// Masks has shape (Size, 1, H, W).
	Masks *dataset.Tensor
	// Size is the number of samples in this batch.
	Size int
}

// Next produces the next batch of the current pass, or io.EOF after the
// last one. Any MissingFileError or DecodeError from the dataset aborts
// the batch containing the failing sample and surfaces here unchanged;
// there is no retry and no skipping. The context cancels an in-flight
// fetch.
func (l *Loader) Next(ctx context.Context) (*Batch, error) {
	if l.pos >= len(l.order) {
		return nil, io.EOF
	}
	end := l.pos + l.batchSize
	if end > len(l.order) {
		end = len(l.order)
	}
	indices := l.order[l.pos:end]
	l.pos = end

	samples, err := l.fetch(ctx, indices)
	if err != nil {
		return nil, err
	}

	images := make([]*dataset.Tensor, len(samples))
	masks := make([]*dataset.Tensor, len(samples))
	for i, s := range samples {
		images[i] = s.Image
		masks[i] = s.Mask
	}
	imageBatch, err := dataset.Stack(images)
	if err != nil {
		return nil, err
	}
	maskBatch, err := dataset.Stack(masks)
	if err != nil {
		return nil, err
	}
	return &Batch{Images: imageBatch, Masks: maskBatch, Size: len(samples)}, nil
}

// Yield implements train.Dataset: inputs is the image batch, labels the
// mask batch, both as gomlx tensors. It returns io.EOF at the end of a
// pass; call Reset to start another.
func (l *Loader) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	batch, err := l.Next(context.Background())
	if err != nil {
		return nil, nil, nil, err
	}
	spec = l
	inputs = []*tensors.Tensor{batch.Images.ToGomlx()}
	labels = []*tensors.Tensor{batch.Masks.ToGomlx()}
	return spec, inputs, labels, nil
}
