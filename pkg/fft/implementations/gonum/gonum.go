// Package gonum implements fft.RealFFT on top of gonum.org/v1/gonum/dsp/fourier.
package gonum

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
)

type RealFFT struct {
	size    int
	fftObj  *fourier.FFT
	samples []float64
	coeffs  []complex128
}

var _ fft.RealFFT = (*RealFFT)(nil)

func New(size int) *RealFFT {
	fft.AssertSize(size)
	return &RealFFT{
		size:    size,
		fftObj:  fourier.NewFFT(size),
		samples: make([]float64, size),
		coeffs:  make([]complex128, size/2+1),
	}
}

func (f *RealFFT) Size() int {
	return f.size
}

func (f *RealFFT) RealFFT(buf []float32, invert bool) {
	fft.AssertBuffer(buf, f.size)
	half := f.size / 2

	if !invert {
		for i, v := range buf {
			f.samples[i] = float64(v)
		}
		f.fftObj.Coefficients(f.coeffs, f.samples)
		buf[0] = float32(real(f.coeffs[0]))
		buf[1] = float32(real(f.coeffs[half]))
		for k := 1; k < half; k++ {
			buf[2*k] = float32(real(f.coeffs[k]))
			buf[2*k+1] = float32(imag(f.coeffs[k]))
		}
		return
	}

	f.coeffs[0] = complex(float64(buf[0]), 0)
	f.coeffs[half] = complex(float64(buf[1]), 0)
	for k := 1; k < half; k++ {
		f.coeffs[k] = complex(float64(buf[2*k]), float64(buf[2*k+1]))
	}
	// gonum does not normalize the inverse transform
	f.fftObj.Sequence(f.samples, f.coeffs)
	scale := 1 / float64(f.size)
	for i, v := range f.samples {
		buf[i] = float32(v * scale)
	}
}
