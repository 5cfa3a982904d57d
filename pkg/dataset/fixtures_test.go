package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"regpairs/internal/models"
)

// writeGrayPNG writes a width x height grayscale PNG filled with value
func writeGrayPNG(t *testing.T, path string, width, height int, value uint8) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: value})
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

// writeNpy writes a version 1.0 .npy file with the given dtype descriptor.
// values are converted to the dtype element by element.
func writeNpy(t *testing.T, path, descr string, shape []int, values []float64) {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)
	// magic(6) + version(2) + header length(2) + header + '\n' must align to 64
	total := 10 + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	for _, v := range values {
		switch descr {
		case "<f4":
			binary.Write(&buf, binary.LittleEndian, math.Float32bits(float32(v)))
		case "<f8":
			binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
		case "<u4":
			binary.Write(&buf, binary.LittleEndian, uint32(v))
		case "|u1":
			buf.WriteByte(uint8(v))
		default:
			t.Fatalf("writeNpy: unsupported descr %s", descr)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// recorder is an Augmenter that keeps copies of its inputs and returns them
// unchanged
type recorder struct {
	inputs []*models.Tensor
}

func (r *recorder) Augment(imgs []*models.Tensor, split string, lo, hi float64) ([]*models.Tensor, error) {
	out := make([]*models.Tensor, len(imgs))
	for i, img := range imgs {
		r.inputs = append(r.inputs, img.Clone())
		out[i] = img
	}
	return out, nil
}

func hasShape(t *models.Tensor, dims ...int) bool {
	if len(t.Shape) != len(dims) {
		return false
	}
	for i := range dims {
		if t.Shape[i] != dims[i] {
			return false
		}
	}
	return true
}
