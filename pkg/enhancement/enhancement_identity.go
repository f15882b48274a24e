package enhancement

import (
	"context"

	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

// Identity is a Model (and a FeatureTransform without features) which
// returns the centre frames unchanged.
type Identity struct{}

var (
	_ FeatureTransform = (*Identity)(nil)
	_ Model            = (*Identity)(nil)
)

func NewIdentity() *Identity {
	return &Identity{}
}

func (*Identity) Transform(context.Context, *spectrum.Chunk) (*Features, error) {
	return nil, nil
}

func (*Identity) Enhance(
	_ context.Context,
	chunk *spectrum.Chunk,
	_ *Features,
) ([]spectrum.Spectrum, error) {
	center := chunk.Center()
	result := make([]spectrum.Spectrum, len(center))
	for i, s := range center {
		result[i] = append(spectrum.Spectrum{}, s...)
	}
	return result, nil
}

// NoFeatures is a FeatureTransform for models that consume the spectra only.
type NoFeatures struct{}

var _ FeatureTransform = NoFeatures{}

func (NoFeatures) Transform(context.Context, *spectrum.Chunk) (*Features, error) {
	return nil, nil
}
