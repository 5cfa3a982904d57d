package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"regpairs/internal/models"
)

// stripGap is the number of black columns between moving and fixed previews
const stripGap = 4

// PreviewImage converts an H×W×3 preview tensor with values in [0,255]
// into an RGBA image. Out-of-range values are clamped.
func PreviewImage(t *models.Tensor) (*image.RGBA, error) {
	if len(t.Shape) != 3 || t.Shape[2] != 3 {
		return nil, fmt.Errorf("expected (H, W, 3) preview, got shape %v", t.Shape)
	}
	h, w, _ := t.HWC()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(t.At(y, x, 0)),
				G: toByte(t.At(y, x, 1)),
				B: toByte(t.At(y, x, 2)),
				A: 255,
			})
		}
	}
	return img, nil
}

// PairStrip places the moving preview left of the fixed preview
func PairStrip(s *models.Sample) (*image.RGBA, error) {
	moving, err := PreviewImage(s.MovingRGB)
	if err != nil {
		return nil, fmt.Errorf("moving preview: %w", err)
	}
	fixed, err := PreviewImage(s.FixedRGB)
	if err != nil {
		return nil, fmt.Errorf("fixed preview: %w", err)
	}

	mb, fb := moving.Bounds(), fixed.Bounds()
	height := max(mb.Dy(), fb.Dy())
	strip := image.NewRGBA(image.Rect(0, 0, mb.Dx()+stripGap+fb.Dx(), height))
	for i := 3; i < len(strip.Pix); i += 4 {
		strip.Pix[i] = 255
	}

	for y := 0; y < mb.Dy(); y++ {
		for x := 0; x < mb.Dx(); x++ {
			strip.SetRGBA(x, y, moving.RGBAAt(x, y))
		}
	}
	offset := mb.Dx() + stripGap
	for y := 0; y < fb.Dy(); y++ {
		for x := 0; x < fb.Dx(); x++ {
			strip.SetRGBA(offset+x, y, fixed.RGBAAt(x, y))
		}
	}
	return strip, nil
}

// SavePreview writes a preview tensor as a PNG image
func SavePreview(t *models.Tensor, filename string) error {
	img, err := PreviewImage(t)
	if err != nil {
		return err
	}
	return savePNG(img, filename)
}

// SavePairStrip writes the moving|fixed strip of a sample as a PNG image
func SavePairStrip(s *models.Sample, filename string) error {
	img, err := PairStrip(s)
	if err != nil {
		return err
	}
	return savePNG(img, filename)
}

// SaveSampleSequence writes one strip per sample into outputDir, named
// after the sample index and its moving image
func SaveSampleSequence(samples []*models.Sample, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, s := range samples {
		base := strings.TrimSuffix(s.Names[0], filepath.Ext(s.Names[0]))
		filename := filepath.Join(outputDir, fmt.Sprintf("pair_%05d_%s.png", s.Index, base))
		if err := SavePairStrip(s, filename); err != nil {
			return fmt.Errorf("sample %d: %w", s.Index, err)
		}
	}

	return nil
}

func savePNG(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

func toByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}
