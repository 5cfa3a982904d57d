package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"regpairs/internal/models"
	"regpairs/pkg/imageops"
)

var (
	// ErrMissingArchive is returned when the image archive of a split is absent
	ErrMissingArchive = errors.New("missing image archive")

	// ErrBadArchive is returned when an archive is not an (N, 2, H, W) array
	ErrBadArchive = errors.New("malformed image archive")
)

// BrainSize is the canvas used for the brain MR archives
var BrainSize = models.Size{Height: 112, Width: 80}

// ArchivePaths returns the image and label archive paths of split under root
func ArchivePaths(root, split string) (images, labels string) {
	images = filepath.Join(root, fmt.Sprintf("brain_%s_image_final.npy", split))
	labels = filepath.Join(root, fmt.Sprintf("brain_%s_label.npy", split))
	return images, labels
}

// PreloadedSource holds an entire (N, 2, H, W) pair archive in memory
type PreloadedSource struct {
	split     string
	imagePath string
	labelPath string
	size      models.Size
	n         int
	height    int
	width     int
	data      []float64
}

// NewPreloadedSource loads the image archive of split from root. The label
// archive path is recorded but never opened.
func NewPreloadedSource(root, split string, size models.Size) (*PreloadedSource, error) {
	if size.IsZero() {
		size = BrainSize
	}
	imagePath, labelPath := ArchivePaths(root, split)

	if _, err := os.Stat(imagePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrMissingArchive, imagePath, err)
		}
		return nil, err
	}

	data, shape, err := readNpy(imagePath)
	if err != nil {
		return nil, err
	}
	if len(shape) != 4 || shape[1] != 2 {
		return nil, fmt.Errorf("%w: %s has shape %v, expected (N, 2, H, W)", ErrBadArchive, imagePath, shape)
	}
	if want := shape[0] * 2 * shape[2] * shape[3]; len(data) != want {
		return nil, fmt.Errorf("%w: %s holds %d values, shape %v needs %d", ErrBadArchive, imagePath, len(data), shape, want)
	}

	return &PreloadedSource{
		split:     split,
		imagePath: imagePath,
		labelPath: labelPath,
		size:      size,
		n:         shape[0],
		height:    shape[2],
		width:     shape[3],
		data:      data,
	}, nil
}

// readNpy decodes a C-ordered numeric .npy file into float64 values
func readNpy(path string) ([]float64, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r, err := npyio.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrBadArchive, path, err)
	}
	if r.Header.Descr.Fortran {
		return nil, nil, fmt.Errorf("%w: %s is Fortran-ordered", ErrBadArchive, path)
	}
	shape := append([]int(nil), r.Header.Descr.Shape...)

	var values []float64
	switch kind := strings.TrimLeft(r.Header.Descr.Type, "<>|="); kind {
	case "f8":
		err = r.Read(&values)
	case "f4":
		var v []float32
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "u1":
		var v []uint8
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "u2":
		var v []uint16
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "u4":
		var v []uint32
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "u8":
		var v []uint64
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "i1":
		var v []int8
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "i2":
		var v []int16
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "i4":
		var v []int32
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	case "i8":
		var v []int64
		if err = r.Read(&v); err == nil {
			values = widen(v)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s has unsupported dtype %q", ErrBadArchive, path, r.Header.Descr.Type)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrBadArchive, path, err)
	}

	return values, shape, nil
}

func widen[T uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Len implements PairSource
func (s *PreloadedSource) Len() int { return s.n }

// TargetSize implements PairSource
func (s *PreloadedSource) TargetSize() models.Size { return s.size }

// ImageSize returns the stored (H, W) of every image in the archive
func (s *PreloadedSource) ImageSize() models.Size {
	return models.Size{Height: s.height, Width: s.width}
}

// LabelPath returns the label archive path for the split
func (s *PreloadedSource) LabelPath() string { return s.labelPath }

// ImagePath returns the image archive path for the split
func (s *PreloadedSource) ImagePath() string { return s.imagePath }

// RawPair implements PairSource with slot 0 as moving and slot 1 as fixed
func (s *PreloadedSource) RawPair(index int) (*mat.Dense, *mat.Dense, error) {
	plane := s.height * s.width
	base := index * 2 * plane
	moving, err := imageops.FromSlice(s.height, s.width, s.data[base:base+plane])
	if err != nil {
		return nil, nil, err
	}
	fixed, err := imageops.FromSlice(s.height, s.width, s.data[base+plane:base+2*plane])
	if err != nil {
		return nil, nil, err
	}
	return moving, fixed, nil
}

// Names implements PairSource
func (s *PreloadedSource) Names(index int) [2]string {
	return [2]string{
		fmt.Sprintf("brain_%s_%d_M.png", s.split, index),
		fmt.Sprintf("brain_%s_%d_F.png", s.split, index),
	}
}

// NewPreloaded builds a Dataset over a preloaded pair archive
func NewPreloaded(root string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()
	src, err := NewPreloadedSource(root, opts.Split, opts.Size)
	if err != nil {
		return nil, err
	}
	opts.Logf("Loaded %d pairs of %v from %s, target size %v",
		src.Len(), src.ImageSize(), src.ImagePath(), src.TargetSize())
	return New(src, opts), nil
}
