package radix2

import (
	"github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
)

const (
	Priority = 100
	Name     = "radix2"
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
