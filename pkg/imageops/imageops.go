// Package imageops holds the per-item routine shared by every paired-image
// source: grayscale decoding, max normalization, centered zero padding and
// the conversions into channel-last tensors.
package imageops

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gonum.org/v1/gonum/mat"

	"regpairs/internal/models"
)

// ErrSizeMismatch is returned when an image does not fit the target canvas.
var ErrSizeMismatch = errors.New("image larger than target canvas")

// LoadGray decodes the image at path and returns it as a single-channel
// matrix with values in [0,1]. Color images are converted to luma.
func LoadGray(path string) (*mat.Dense, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return GrayFromImage(img)
}

// GrayFromImage converts any image to a single-channel matrix in [0,1].
// Translucent pixels are composited onto white before taking luma.
func GrayFromImage(img image.Image) (*mat.Dense, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty image bounds %v", bounds)
	}

	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = float64(lumaOnWhite(img.At(bounds.Min.X+x, bounds.Min.Y+y))) / 65535.0
		}
	}

	return mat.NewDense(height, width, data), nil
}

// lumaOnWhite blends c over an opaque white background and returns its
// 16-bit luma with the same weights as color.Gray16Model
func lumaOnWhite(c color.Color) uint32 {
	r, g, b, a := c.RGBA()
	bg := 0xffff - a
	r, g, b = r+bg, g+bg, b+bg
	return (19595*r + 38470*g + 7471*b + 1<<15) >> 16
}

// FromSlice builds a matrix from a row-major slice of height*width values.
// The slice is copied.
func FromSlice(height, width int, values []float64) (*mat.Dense, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", height, width)
	}
	if len(values) != height*width {
		return nil, fmt.Errorf("got %d values for a %dx%d image", len(values), height, width)
	}
	return mat.NewDense(height, width, append([]float64(nil), values...)), nil
}

// Normalize divides m in place by its maximum. A blank image (max 0) is
// left untouched.
func Normalize(m *mat.Dense) {
	if peak := mat.Max(m); peak > 0 {
		m.Apply(func(_, _ int, v float64) float64 { return v / peak }, m)
	}
}

// PadAmounts splits the padding needed to grow have into want. Odd
// remainders go to the trailing side.
func PadAmounts(have, want int) (before, after int, err error) {
	pad := want - have
	if pad < 0 {
		return 0, 0, fmt.Errorf("%w: %d > %d", ErrSizeMismatch, have, want)
	}
	before = pad / 2
	return before, pad - before, nil
}

// Pad returns m centered on a zero canvas of the given size
func Pad(m *mat.Dense, size models.Size) (*mat.Dense, error) {
	h, w := m.Dims()
	top, _, err := PadAmounts(h, size.Height)
	if err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	left, _, err := PadAmounts(w, size.Width)
	if err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}

	out := mat.NewDense(size.Height, size.Width, nil)
	out.Slice(top, top+h, left, left+w).(*mat.Dense).Copy(m)
	return out, nil
}

// RGBPreview replicates m into three channels scaled to [0,255]
func RGBPreview(m *mat.Dense) *models.Tensor {
	h, w := m.Dims()
	t := models.NewTensor(h, w, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := m.At(y, x) * 255.0
			i := (y*w + x) * 3
			t.Data[i] = v
			t.Data[i+1] = v
			t.Data[i+2] = v
		}
	}
	return t
}

// WithChannel returns m as an (H, W, 1) tensor
func WithChannel(m *mat.Dense) *models.Tensor {
	h, w := m.Dims()
	t := models.NewTensor(h, w, 1)
	for y := 0; y < h; y++ {
		mat.Row(t.Data[y*w:(y+1)*w], y, m)
	}
	return t
}
