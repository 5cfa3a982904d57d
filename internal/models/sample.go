package models

import (
	"fmt"
)

// AuxValue is the constant auxiliary field attached to every sample.
// Consumers treat it as opaque.
const AuxValue = 7

// Size is a (height, width) canvas in pixels
type Size struct {
	Height int
	Width  int
}

// IsZero reports whether no size has been set
func (s Size) IsZero() bool {
	return s.Height == 0 && s.Width == 0
}

func (s Size) String() string {
	return fmt.Sprintf("(%d, %d)", s.Height, s.Width)
}

// RoundUp16 returns the smallest size with both dimensions a multiple of 16
// that still holds an image of height h and width w. Networks with four
// power-of-two downsampling levels need this.
func RoundUp16(h, w int) Size {
	return Size{
		Height: ((h + 15) / 16) * 16,
		Width:  ((w + 15) / 16) * 16,
	}
}

// Pair is one (moving, fixed) unit backed by two image files
type Pair struct {
	// Moving is the image that gets warped toward Fixed
	Moving string

	// Fixed is the reference image
	Fixed string
}

// Tensor is a dense row-major float array with channel-last layout
type Tensor struct {
	// Shape holds the dimensions, e.g. (H, W, 1) or (H, W, 3)
	Shape []int

	// Data holds len == product(Shape) values
	Data []float64
}

// NewTensor allocates a zero tensor of the given shape
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// Clone returns a deep copy
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// HWC returns height, width and channels of a rank-3 tensor
func (t *Tensor) HWC() (h, w, c int) {
	if len(t.Shape) != 3 {
		panic(fmt.Sprintf("models: expected rank-3 tensor, got shape %v", t.Shape))
	}
	return t.Shape[0], t.Shape[1], t.Shape[2]
}

// At returns the value at (y, x, c) of a rank-3 tensor
func (t *Tensor) At(y, x, c int) float64 {
	_, w, ch := t.HWC()
	return t.Data[(y*w+x)*ch+c]
}

// Set stores v at (y, x, c) of a rank-3 tensor
func (t *Tensor) Set(y, x, c int, v float64) {
	_, w, ch := t.HWC()
	t.Data[(y*w+x)*ch+c] = v
}

// Sample is the record returned for one dataset index
type Sample struct {
	// Moving and Fixed are the augmented single-channel images
	Moving *Tensor
	Fixed  *Tensor

	// MovingRGB and FixedRGB are H×W×3 previews in [0,255], taken
	// after padding and before augmentation
	MovingRGB *Tensor
	FixedRGB  *Tensor

	// Aux is always AuxValue
	Aux int

	// Names holds display filenames for moving and fixed
	Names [2]string

	// Index is the dataset index this sample was fetched for
	Index int
}

// Map returns the sample keyed the way registration trainers expect it
func (s *Sample) Map() map[string]any {
	return map[string]any{
		"M":     s.Moving,
		"F":     s.Fixed,
		"MC":    s.MovingRGB,
		"FC":    s.FixedRGB,
		"nS":    s.Aux,
		"P":     []string{s.Names[0], s.Names[1]},
		"Index": s.Index,
	}
}
