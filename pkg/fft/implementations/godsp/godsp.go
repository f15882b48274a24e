// Package godsp implements fft.RealFFT on top of github.com/mjibson/go-dsp.
package godsp

import (
	"github.com/mjibson/go-dsp/fft"

	fftiface "github.com/xaionaro-go/speechenhance/pkg/fft"
)

type RealFFT struct {
	size    int
	samples []float64
	coeffs  []complex128
}

var _ fftiface.RealFFT = (*RealFFT)(nil)

func New(size int) *RealFFT {
	fftiface.AssertSize(size)
	return &RealFFT{
		size:    size,
		samples: make([]float64, size),
		coeffs:  make([]complex128, size),
	}
}

func (f *RealFFT) Size() int {
	return f.size
}

func (f *RealFFT) RealFFT(buf []float32, invert bool) {
	fftiface.AssertBuffer(buf, f.size)
	half := f.size / 2

	if !invert {
		for i, v := range buf {
			f.samples[i] = float64(v)
		}
		coeffs := fft.FFTReal(f.samples)
		buf[0] = float32(real(coeffs[0]))
		buf[1] = float32(real(coeffs[half]))
		for k := 1; k < half; k++ {
			buf[2*k] = float32(real(coeffs[k]))
			buf[2*k+1] = float32(imag(coeffs[k]))
		}
		return
	}

	f.coeffs[0] = complex(float64(buf[0]), 0)
	f.coeffs[half] = complex(float64(buf[1]), 0)
	for k := 1; k < half; k++ {
		c := complex(float64(buf[2*k]), float64(buf[2*k+1]))
		f.coeffs[k] = c
		f.coeffs[f.size-k] = complex(real(c), -imag(c))
	}
	// go-dsp scales the inverse by 1/N
	samples := fft.IFFT(f.coeffs)
	for i := range buf {
		buf[i] = float32(real(samples[i]))
	}
}
