// Package augment applies joint spatial transforms and value-range mapping
// to the images of one registration pair.
package augment

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/nfnt/resize"

	"regpairs/internal/models"
)

// TrainSplit is the split name that enables randomized augmentation
const TrainSplit = "train"

// Augmenter transforms a list of (H, W, C) images with values in [0,1]
// into the range [lo, hi]. Random spatial transforms must be applied
// identically to every image in the list.
type Augmenter interface {
	Augment(imgs []*models.Tensor, split string, lo, hi float64) ([]*models.Tensor, error)
}

// Transform is the default Augmenter.
//
// On the train split with Flip set, one coin toss decides whether every
// image is mirrored left to right. When Size is non-zero each image is
// resampled to it on every split. Values are then mapped from [0,1]
// to [lo,hi].
type Transform struct {
	// Flip enables random horizontal mirroring on the train split
	Flip bool

	// Size is the optional output canvas; zero keeps the input size
	Size models.Size

	// Float64 returns a value in [0,1). Nil means math/rand/v2.Float64,
	// which is safe for concurrent use.
	Float64 func() float64
}

// Default returns the transform used when a dataset is built without one
func Default() *Transform {
	return &Transform{Flip: true}
}

// Augment implements Augmenter. The inputs are not modified.
func (t *Transform) Augment(imgs []*models.Tensor, split string, lo, hi float64) ([]*models.Tensor, error) {
	mirror := false
	if split == TrainSplit && t.Flip {
		mirror = t.draw() < 0.5
	}

	out := make([]*models.Tensor, len(imgs))
	for i, img := range imgs {
		if len(img.Shape) != 3 {
			return nil, fmt.Errorf("augment: image %d has shape %v, expected (H, W, C)", i, img.Shape)
		}

		cur := img.Clone()
		if mirror {
			cur = Mirror(cur)
		}
		if !t.Size.IsZero() {
			resized, err := Resize(cur, t.Size)
			if err != nil {
				return nil, fmt.Errorf("augment: image %d: %w", i, err)
			}
			cur = resized
		}
		MapRange(cur, lo, hi)
		out[i] = cur
	}

	return out, nil
}

func (t *Transform) draw() float64 {
	if t.Float64 != nil {
		return t.Float64()
	}
	return rand.Float64()
}

// Mirror returns img flipped along the width axis
func Mirror(img *models.Tensor) *models.Tensor {
	h, w, c := img.HWC()
	out := models.NewTensor(h, w, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < c; ch++ {
				out.Set(y, w-1-x, ch, img.At(y, x, ch))
			}
		}
	}
	return out
}

// MapRange rescales values from [0,1] to [lo,hi] in place
func MapRange(img *models.Tensor, lo, hi float64) {
	scale := hi - lo
	for i, v := range img.Data {
		img.Data[i] = v*scale + lo
	}
}

// Resize resamples a single-channel image in [0,1] to size with bilinear
// interpolation. Values are quantized to 16 bits on the way through.
func Resize(img *models.Tensor, size models.Size) (*models.Tensor, error) {
	h, w, c := img.HWC()
	if c != 1 {
		return nil, fmt.Errorf("resize supports single-channel images, got %d channels", c)
	}
	if size.Height <= 0 || size.Width <= 0 {
		return nil, fmt.Errorf("invalid resize target %v", size)
	}
	if h == size.Height && w == size.Width {
		return img, nil
	}

	src := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetGray16(x, y, color.Gray16{Y: toGray16(img.At(y, x, 0))})
		}
	}

	dst := resize.Resize(uint(size.Width), uint(size.Height), src, resize.Bilinear)
	b := dst.Bounds()
	out := models.NewTensor(size.Height, size.Width, 1)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			g := color.Gray16Model.Convert(dst.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			out.Set(y, x, 0, float64(g.Y)/65535.0)
		}
	}
	return out, nil
}

func toGray16(v float64) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 65535
	}
	return uint16(v*65535.0 + 0.5)
}
