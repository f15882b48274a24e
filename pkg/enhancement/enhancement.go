// Package enhancement defines the collaborators driven by the enhancer: a
// feature transform over context-padded spectral chunks and a model which
// turns the features into enhanced centre spectra.
package enhancement

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

// Features is a dense row-major tensor.
type Features struct {
	Shape []int
	Data  []float32
}

func NewFeatures(shape ...int) *Features {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return &Features{
		Shape: shape,
		Data:  make([]float32, size),
	}
}

// Size returns the product of the dimensions.
func (f *Features) Size() int {
	if len(f.Shape) == 0 {
		return 0
	}
	size := 1
	for _, d := range f.Shape {
		size *= d
	}
	return size
}

// Row returns the i-th slice along the first dimension.
func (f *Features) Row(i int) []float32 {
	if len(f.Shape) == 0 {
		panic("a scalar tensor has no rows")
	}
	rowSize := f.Size() / f.Shape[0]
	return f.Data[i*rowSize : (i+1)*rowSize]
}

func (f *Features) String() string {
	return fmt.Sprintf("Features%v", f.Shape)
}

type FeatureTransform interface {
	// Transform computes the features of the whole padded chunk. The
	// result must be deterministic in the chunk.
	Transform(ctx context.Context, chunk *spectrum.Chunk) (*Features, error)
}

type Model interface {
	// Enhance returns exactly chunk.CenterFrames spectra with chunk.Bins()
	// bins each: the enhanced centre frames, context stripped.
	Enhance(ctx context.Context, chunk *spectrum.Chunk, features *Features) ([]spectrum.Spectrum, error)
}
