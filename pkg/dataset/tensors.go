package dataset

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"regpairs/internal/models"
)

// BatchTensors fetches indices and stacks their moving and fixed images into
// float32 tensors shaped [batch, height, width, channels], ready to be fed to
// a gomlx training loop.
func BatchTensors(d *Dataset, indices []int) (moving, fixed *tensors.Tensor, err error) {
	if len(indices) == 0 {
		return nil, nil, fmt.Errorf("empty batch")
	}

	var shape []int
	var movingFlat, fixedFlat []float32
	for _, index := range indices {
		sample, err := d.Fetch(index)
		if err != nil {
			return nil, nil, err
		}
		if shape == nil {
			shape = append([]int(nil), sample.Moving.Shape...)
			n := len(indices) * len(sample.Moving.Data)
			movingFlat = make([]float32, 0, n)
			fixedFlat = make([]float32, 0, n)
		}
		if !sameShape(shape, sample.Moving) || !sameShape(shape, sample.Fixed) {
			return nil, nil, fmt.Errorf("sample %d has shapes %v/%v, batch expects %v",
				index, sample.Moving.Shape, sample.Fixed.Shape, shape)
		}
		movingFlat = appendFloat32(movingFlat, sample.Moving.Data)
		fixedFlat = appendFloat32(fixedFlat, sample.Fixed.Data)
	}

	dims := append([]int{len(indices)}, shape...)
	moving = tensors.FromFlatDataAndDimensions(movingFlat, dims...)
	fixed = tensors.FromFlatDataAndDimensions(fixedFlat, dims...)
	return moving, fixed, nil
}

func sameShape(shape []int, t *models.Tensor) bool {
	if len(shape) != len(t.Shape) {
		return false
	}
	for i := range shape {
		if shape[i] != t.Shape[i] {
			return false
		}
	}
	return true
}

func appendFloat32(dst []float32, src []float64) []float32 {
	for _, v := range src {
		dst = append(dst, float32(v))
	}
	return dst
}
