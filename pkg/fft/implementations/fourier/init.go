package fourier

import (
	"github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
)

const (
	Priority = 10
	Name     = "fourier"
)

func init() {
	registry.RegisterFactory(Priority, Factory{})
}

type Factory struct{}

func (Factory) Name() string {
	return Name
}

func (Factory) NewRealFFT(size int) (fft.RealFFT, error) {
	return New(size), nil
}
