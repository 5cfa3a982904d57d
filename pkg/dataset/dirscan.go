package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"regpairs/internal/models"
	"regpairs/pkg/imageops"
)

// DirScanSource pairs consecutive PNG files found under a root directory
// with one subdirectory per category.
type DirScanSource struct {
	root  string
	size  models.Size
	files []string
	pairs []models.Pair
}

// NewDirScanSource collects PNG files below root and pairs them.
//
// With a zero size every file is decoded once to find the largest height
// and width, and the target becomes those maxima rounded up to multiples of
// 16. Files that fail to decode are logged and left out of both the size
// computation and the pair list. With a non-zero size no file is read.
func NewDirScanSource(root string, size models.Size, logf func(string, ...any)) (*DirScanSource, error) {
	if logf == nil {
		logf = Quiet
	}

	files, err := collectPNGs(root, logf)
	if err != nil {
		return nil, err
	}

	if size.IsZero() {
		files, size = scanSizes(root, files, logf)
	}

	return &DirScanSource{
		root:  root,
		size:  size,
		files: files,
		pairs: buildPairs(files),
	}, nil
}

// collectPNGs lists category directories of root in lexical order and
// walks each one for .png files. Symlinked categories are followed; the
// returned paths stay under root.
func collectPNGs(root string, logf func(string, ...any)) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}

	var categories []string
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(root, entry.Name()))
		if err != nil {
			logf("Warning: could not stat %s, skipping: %v", entry.Name(), err)
			continue
		}
		if info.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	sort.Strings(categories)

	var files []string
	for _, category := range categories {
		catPath := filepath.Join(root, category)
		// WalkDir does not descend into a symlinked root
		resolved, err := filepath.EvalSymlinks(catPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %s: %w", category, err)
		}
		err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".png") {
				return nil
			}
			rel, err := filepath.Rel(resolved, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.Join(catPath, rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk category %s: %w", category, err)
		}
	}

	return files, nil
}

// scanSizes decodes every file and returns the readable ones together with
// the rounded-up target size
func scanSizes(root string, files []string, logf func(string, ...any)) ([]string, models.Size) {
	logf("Scanning %s to determine target dimensions (%d files)", root, len(files))

	kept := make([]string, 0, len(files))
	heights := make([]float64, 0, len(files))
	widths := make([]float64, 0, len(files))
	maxH, maxW := 0, 0
	for _, path := range files {
		img, err := imageops.LoadGray(path)
		if err != nil {
			logf("Warning: could not read %s, skipping: %v", path, err)
			continue
		}
		h, w := img.Dims()
		maxH = max(maxH, h)
		maxW = max(maxW, w)
		heights = append(heights, float64(h))
		widths = append(widths, float64(w))
		kept = append(kept, path)
	}

	size := models.RoundUp16(maxH, maxW)
	if len(kept) > 0 {
		logf("Max dims found (%d, %d), mean (%.1f, %.1f). Target size set to %v.",
			maxH, maxW, stat.Mean(heights, nil), stat.Mean(widths, nil), size)
	} else {
		logf("No readable images under %s", root)
	}
	return kept, size
}

// buildPairs groups files (0,1), (2,3), ... and drops an odd trailing file
func buildPairs(files []string) []models.Pair {
	pairs := make([]models.Pair, 0, len(files)/2)
	for i := 0; i+1 < len(files); i += 2 {
		pairs = append(pairs, models.Pair{Moving: files[i], Fixed: files[i+1]})
	}
	return pairs
}

// Len implements PairSource
func (s *DirScanSource) Len() int { return len(s.pairs) }

// TargetSize implements PairSource
func (s *DirScanSource) TargetSize() models.Size { return s.size }

// Files returns the paths that took part in pairing, in order
func (s *DirScanSource) Files() []string { return append([]string(nil), s.files...) }

// Pair returns the file pair at index
func (s *DirScanSource) Pair(index int) models.Pair { return s.pairs[index] }

// RawPair implements PairSource by decoding both files
func (s *DirScanSource) RawPair(index int) (*mat.Dense, *mat.Dense, error) {
	p := s.pairs[index]
	moving, err := imageops.LoadGray(p.Moving)
	if err != nil {
		return nil, nil, err
	}
	fixed, err := imageops.LoadGray(p.Fixed)
	if err != nil {
		return nil, nil, err
	}
	return moving, fixed, nil
}

// Names implements PairSource with the files' base names
func (s *DirScanSource) Names(index int) [2]string {
	p := s.pairs[index]
	return [2]string{filepath.Base(p.Moving), filepath.Base(p.Fixed)}
}

// NewDirScan builds a Dataset over a directory-scan source
func NewDirScan(root string, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()
	src, err := NewDirScanSource(root, opts.Size, opts.Logf)
	if err != nil {
		return nil, err
	}
	return New(src, opts), nil
}
