// Package fourier implements fft.RealFFT on top of github.com/brettbuddin/fourier.
package fourier

import (
	"fmt"

	"github.com/brettbuddin/fourier"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
)

type RealFFT struct {
	size   int
	coeffs []complex128
}

var _ fft.RealFFT = (*RealFFT)(nil)

func New(size int) *RealFFT {
	fft.AssertSize(size)
	return &RealFFT{
		size:   size,
		coeffs: make([]complex128, size),
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
			f.coeffs[i] = complex(float64(v), 0)
		}
		f.forward()
		buf[0] = float32(real(f.coeffs[0]))
		buf[1] = float32(real(f.coeffs[half]))
		for k := 1; k < half; k++ {
			buf[2*k] = float32(real(f.coeffs[k]))
			buf[2*k+1] = float32(imag(f.coeffs[k]))
		}
		return
	}

	// x = conj(FFT(conj(X))) / N
	f.coeffs[0] = complex(float64(buf[0]), 0)
	f.coeffs[half] = complex(float64(buf[1]), 0)
	for k := 1; k < half; k++ {
		re, im := float64(buf[2*k]), float64(buf[2*k+1])
		f.coeffs[k] = complex(re, -im)
		f.coeffs[f.size-k] = complex(re, im)
	}
	f.forward()
	scale := 1 / float64(f.size)
	for i := range buf {
		buf[i] = float32(real(f.coeffs[i]) * scale)
	}
}

func (f *RealFFT) forward() {
	// fourier.Forward returns inputs of length 2 untouched.
	if f.size == 2 {
		a, b := f.coeffs[0], f.coeffs[1]
		f.coeffs[0], f.coeffs[1] = a+b, a-b
		return
	}
	if err := fourier.Forward(f.coeffs); err != nil {
		panic(fmt.Errorf("unable to compute the FFT of size %d: %w", f.size, err))
	}
}
