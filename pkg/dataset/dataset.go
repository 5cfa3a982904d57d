// Package dataset turns paired grayscale corpora into samples for an
// image-registration model.
//
// A PairSource knows how many pairs a corpus has, the canvas every image is
// padded to, and how to read the raw moving/fixed images of a pair. Dataset
// runs the shared per-item pipeline on top of any source:
//
//  1. normalize each image by its own maximum
//  2. zero-pad it, centered, to the target canvas
//  3. take an RGB preview of the padded image
//  4. add a trailing channel axis
//  5. augment moving and fixed jointly, into [-1, 1] by default
//  6. package everything as a models.Sample
//
// Sources are immutable after construction, so Fetch may be called from
// several goroutines at once.
package dataset

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"regpairs/internal/models"
	"regpairs/pkg/augment"
	"regpairs/pkg/imageops"
)

// DefaultSplit is used when no split name is given
const DefaultSplit = "test"

// DefaultRange is the value range handed to the augmenter
var DefaultRange = [2]float64{-1, 1}

var (
	// ErrIndexOutOfRange is returned by Fetch for an index outside [0, Len)
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrSizeMismatch is returned when a stored image exceeds the target canvas
	ErrSizeMismatch = imageops.ErrSizeMismatch
)

// PairSource is a corpus of (moving, fixed) image pairs
type PairSource interface {
	// Len returns the number of pairs
	Len() int

	// TargetSize returns the canvas every image is padded to
	TargetSize() models.Size

	// RawPair returns fresh copies of the moving and fixed images of pair
	// index. Callers may modify them.
	RawPair(index int) (moving, fixed *mat.Dense, err error)

	// Names returns display filenames for pair index
	Names(index int) [2]string
}

// Options configures dataset construction
type Options struct {
	// Split selects augmentation behavior and, for archives, which files
	// are read. Empty means DefaultSplit.
	Split string

	// Size fixes the target canvas. Zero lets the source decide.
	Size models.Size

	// Augmenter defaults to augment.Default()
	Augmenter augment.Augmenter

	// Range is the (min, max) output range of the augmenter. The zero
	// value means DefaultRange.
	Range [2]float64

	// Logf receives warnings and scan summaries. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.Split == "" {
		o.Split = DefaultSplit
	}
	if o.Augmenter == nil {
		o.Augmenter = augment.Default()
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	if o.Range == ([2]float64{}) {
		o.Range = DefaultRange
	}
	return o
}

// Quiet discards log output
func Quiet(string, ...any) {}

// Dataset applies the shared sample pipeline to a PairSource
type Dataset struct {
	source    PairSource
	split     string
	augmenter augment.Augmenter
	lo, hi    float64
}

// New wraps source. Size and Logf in opts are not used.
func New(source PairSource, opts Options) *Dataset {
	opts = opts.withDefaults()
	return &Dataset{
		source:    source,
		split:     opts.Split,
		augmenter: opts.Augmenter,
		lo:        opts.Range[0],
		hi:        opts.Range[1],
	}
}

// Len returns the number of pairs
func (d *Dataset) Len() int { return d.source.Len() }

// TargetSize returns the padded canvas size
func (d *Dataset) TargetSize() models.Size { return d.source.TargetSize() }

// Split returns the split name
func (d *Dataset) Split() string { return d.split }

// Source returns the underlying pair source
func (d *Dataset) Source() PairSource { return d.source }

// Fetch builds the sample for index
func (d *Dataset) Fetch(index int) (*models.Sample, error) {
	if index < 0 || index >= d.source.Len() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, d.source.Len())
	}

	moving, fixed, err := d.source.RawPair(index)
	if err != nil {
		return nil, fmt.Errorf("pair %d: %w", index, err)
	}

	size := d.source.TargetSize()
	movingImg, movingRGB, err := prepare(moving, size)
	if err != nil {
		return nil, fmt.Errorf("pair %d moving: %w", index, err)
	}
	fixedImg, fixedRGB, err := prepare(fixed, size)
	if err != nil {
		return nil, fmt.Errorf("pair %d fixed: %w", index, err)
	}

	out, err := d.augmenter.Augment([]*models.Tensor{movingImg, fixedImg}, d.split, d.lo, d.hi)
	if err != nil {
		return nil, fmt.Errorf("pair %d: %w", index, err)
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("pair %d: augmenter returned %d images, expected 2", index, len(out))
	}

	return &models.Sample{
		Moving:    out[0],
		Fixed:     out[1],
		MovingRGB: movingRGB,
		FixedRGB:  fixedRGB,
		Aux:       models.AuxValue,
		Names:     d.source.Names(index),
		Index:     index,
	}, nil
}

// prepare normalizes and pads m, returning the (H, W, 1) image and its
// RGB preview
func prepare(m *mat.Dense, size models.Size) (*models.Tensor, *models.Tensor, error) {
	imageops.Normalize(m)
	padded, err := imageops.Pad(m, size)
	if err != nil {
		return nil, nil, err
	}
	return imageops.WithChannel(padded), imageops.RGBPreview(padded), nil
}
