package godsp

import (
	fftiface "github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
)

const (
	Priority = 30
	Name     = "godsp"
)

func init() {
	registry.RegisterFactory(Priority, Factory{})
}

type Factory struct{}

func (Factory) Name() string {
	return Name
}

func (Factory) NewRealFFT(size int) (fftiface.RealFFT, error) {
	return New(size), nil
}
