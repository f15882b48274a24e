package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/speechenhance/pkg/fft/implementations/fourier"
	"github.com/xaionaro-go/speechenhance/pkg/fft/implementations/godsp"
	"github.com/xaionaro-go/speechenhance/pkg/fft/implementations/gonum"
	"github.com/xaionaro-go/speechenhance/pkg/fft/implementations/radix2"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
)

func TestFactories(t *testing.T) {
	require.Equal(t, []string{radix2.Name, godsp.Name, gonum.Name, fourier.Name}, registry.Names())

	for _, name := range append(registry.Names(), "") {
		f, err := registry.NewRealFFT(name, 64)
		require.NoError(t, err, name)
		require.Equal(t, 64, f.Size())
	}

	f, err := registry.NewRealFFT("", 16)
	require.NoError(t, err)
	require.IsType(t, &radix2.FFTComputer{}, f)

	_, err = registry.NewRealFFT("unknown", 64)
	require.Error(t, err)
	_, err = registry.NewRealFFT(radix2.Name, 48)
	require.Error(t, err)

	require.Panics(t, func() { registry.RegisterFactory(0, radix2.Factory{}) })
}
