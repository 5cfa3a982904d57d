package dataset

import (
	"fmt"
	"strings"

	"regpairs/internal/models"
)

// MNISTSize is the fixed canvas for the MNIST digit corpus
var MNISTSize = models.Size{Height: 32, Width: 32}

// Kinds accepted by Open
const (
	KindGoogleDraw = "googledraw"
	KindMNIST      = "mnist"
	KindBrainMR    = "brainmr"
	KindDirScan    = "dirscan"
)

// NewGoogleDraw scans a QuickDraw-style PNG tree and derives the canvas
// from the largest drawing
func NewGoogleDraw(root string, opts Options) (*Dataset, error) {
	opts.Size = models.Size{}
	return NewDirScan(root, opts)
}

// NewMNIST pairs MNIST digit PNGs on a fixed 32x32 canvas
func NewMNIST(root string, opts Options) (*Dataset, error) {
	opts.Size = MNISTSize
	return NewDirScan(root, opts)
}

// NewBrainMR loads the brain MR pair archive of opts.Split on a 112x80 canvas
func NewBrainMR(root string, opts Options) (*Dataset, error) {
	opts.Size = BrainSize
	return NewPreloaded(root, opts)
}

// Open builds a dataset by kind name. KindDirScan honors opts.Size, scanning
// when it is zero.
func Open(kind, root string, opts Options) (*Dataset, error) {
	switch strings.ToLower(kind) {
	case KindGoogleDraw:
		return NewGoogleDraw(root, opts)
	case KindMNIST:
		return NewMNIST(root, opts)
	case KindBrainMR:
		return NewBrainMR(root, opts)
	case KindDirScan, "":
		return NewDirScan(root, opts)
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
}
