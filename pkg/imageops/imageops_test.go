package imageops

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"regpairs/internal/models"
)

// writeGrayPNG writes a grayscale PNG filled by pattern
func writeGrayPNG(t *testing.T, path string, width, height int, pattern func(x, y int) uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: pattern(x, y)})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadGray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.png")
	writeGrayPNG(t, path, 7, 5, func(x, y int) uint8 { return uint8(x * 10) })

	m, err := LoadGray(path)
	if err != nil {
		t.Fatalf("LoadGray failed: %v", err)
	}
	h, w := m.Dims()
	if h != 5 || w != 7 {
		t.Fatalf("Expected 5x7, got %dx%d", h, w)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("Expected 0 at origin, got %f", got)
	}
	if got, want := m.At(2, 6), 60.0/255.0; abs(got-want) > 1e-6 {
		t.Errorf("Expected %f at (2,6), got %f", want, got)
	}
}

func TestGrayFromImageCompositesOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 2, color.NRGBA{A: 255})
	img.SetNRGBA(3, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 128})

	m, err := GrayFromImage(img)
	if err != nil {
		t.Fatalf("GrayFromImage failed: %v", err)
	}
	if got := m.At(0, 0); got != 1 {
		t.Errorf("Expected transparent background to read as white, got %f", got)
	}
	if got := m.At(2, 1); got != 0 {
		t.Errorf("Expected opaque black stroke, got %f", got)
	}
	if got := m.At(0, 3); got < 0.45 || got > 0.55 {
		t.Errorf("Expected half-transparent black near 0.5, got %f", got)
	}
	if got := mat.Max(m); got == 0 {
		t.Error("Expected a non-zero peak so normalization keeps the stroke")
	}
}

func TestLoadGrayRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGray(path); err == nil {
		t.Fatal("Expected decode error for corrupt file")
	}
}

func TestNormalize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 2, 4, 8})
	Normalize(m)
	if got := mat.Max(m); got != 1 {
		t.Errorf("Expected max 1 after normalization, got %f", got)
	}
	if got := mat.Min(m); got < 0 {
		t.Errorf("Expected min >= 0, got %f", got)
	}
	if got := m.At(1, 0); got != 0.5 {
		t.Errorf("Expected 0.5, got %f", got)
	}

	blank := mat.NewDense(2, 3, nil)
	Normalize(blank)
	if got := mat.Max(blank); got != 0 {
		t.Errorf("Blank image changed by normalization: max %f", got)
	}
}

func TestPadAmounts(t *testing.T) {
	tests := []struct {
		have, want    int
		before, after int
	}{
		{have: 10, want: 14, before: 2, after: 2},
		{have: 10, want: 15, before: 2, after: 3},
		{have: 28, want: 32, before: 2, after: 2},
		{have: 7, want: 7, before: 0, after: 0},
	}
	for _, tt := range tests {
		before, after, err := PadAmounts(tt.have, tt.want)
		if err != nil {
			t.Fatalf("PadAmounts(%d, %d) failed: %v", tt.have, tt.want, err)
		}
		if before != tt.before || after != tt.after {
			t.Errorf("PadAmounts(%d, %d) = (%d, %d), expected (%d, %d)",
				tt.have, tt.want, before, after, tt.before, tt.after)
		}
	}

	if _, _, err := PadAmounts(113, 112); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Expected ErrSizeMismatch, got %v", err)
	}
}

func TestPadCentersContent(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
	out, err := Pad(m, models.Size{Height: 8, Width: 5})
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}
	h, w := out.Dims()
	if h != 8 || w != 5 {
		t.Fatalf("Expected 8x5, got %dx%d", h, w)
	}

	// pad_h=5 -> top 2, bottom 3; pad_w=3 -> left 1, right 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			inside := y >= 2 && y < 5 && x >= 1 && x < 3
			want := 0.0
			if inside {
				want = 1
			}
			if got := out.At(y, x); got != want {
				t.Errorf("At(%d,%d) = %f, expected %f", y, x, got, want)
			}
		}
	}

	// the source must be left alone
	if got := m.At(0, 0); got != 1 {
		t.Errorf("Pad modified its input")
	}
}

func TestPadTooLarge(t *testing.T) {
	m := mat.NewDense(113, 80, nil)
	_, err := Pad(m, models.Size{Height: 112, Width: 80})
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Expected ErrSizeMismatch, got %v", err)
	}
}

func TestRGBPreview(t *testing.T) {
	black := RGBPreview(mat.NewDense(4, 3, nil))
	h, w, c := black.HWC()
	if h != 4 || w != 3 || c != 3 {
		t.Fatalf("Expected shape (4,3,3), got %v", black.Shape)
	}
	for i, v := range black.Data {
		if v != 0 {
			t.Fatalf("Expected all zeros, got %f at %d", v, i)
		}
	}

	ones := make([]float64, 12)
	for i := range ones {
		ones[i] = 1
	}
	white := RGBPreview(mat.NewDense(4, 3, ones))
	for i, v := range white.Data {
		if v != 255 {
			t.Fatalf("Expected all 255, got %f at %d", v, i)
		}
	}
}

func TestWithChannel(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	tensor := WithChannel(m)
	if len(tensor.Shape) != 3 || tensor.Shape[0] != 2 || tensor.Shape[1] != 3 || tensor.Shape[2] != 1 {
		t.Fatalf("Expected shape (2,3,1), got %v", tensor.Shape)
	}
	if got := tensor.At(1, 2, 0); got != 6 {
		t.Errorf("Expected 6 at (1,2,0), got %f", got)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
