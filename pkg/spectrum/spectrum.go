// Package spectrum defines the spectral tensors passed between the STFT
// stages and the enhancement collaborators.
package spectrum

import (
	"fmt"
	"math"
)

// Spectrum is a one-sided spectrum of a real frame of FFT size N: N/2+1
// complex bins stored as interleaved (re, im) pairs, so len == N+2.
type Spectrum []float32

func New(fftSize int) Spectrum {
	return make(Spectrum, fftSize+2)
}

func (s Spectrum) Bins() int {
	return len(s) / 2
}

func (s Spectrum) Bin(k int) complex64 {
	return complex(s[2*k], s[2*k+1])
}

func (s Spectrum) SetBin(k int, v complex64) {
	s[2*k] = real(v)
	s[2*k+1] = imag(v)
}

// Power returns |X[k]|^2.
func (s Spectrum) Power(k int) float32 {
	re, im := s[2*k], s[2*k+1]
	return re*re + im*im
}

func (s Spectrum) Magnitude(k int) float32 {
	return float32(math.Sqrt(float64(s.Power(k))))
}

// Scale multiplies bin k by the real gain g.
func (s Spectrum) Scale(k int, g float32) {
	s[2*k] *= g
	s[2*k+1] *= g
}

func (s Spectrum) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Unpack converts the packed RealFFT layout in src (length N) into dst.
func Unpack(dst Spectrum, src []float32) {
	n := len(src)
	if len(dst) != n+2 {
		panic(fmt.Errorf("spectrum length %d does not match FFT size %d", len(dst), n))
	}
	copy(dst[2:n], src[2:])
	dst[0], dst[1] = src[0], 0
	dst[n], dst[n+1] = src[1], 0
}

// Pack converts src into the packed RealFFT layout in dst (length N). The
// imaginary parts of the DC and Nyquist bins are dropped.
func Pack(dst []float32, src Spectrum) {
	n := len(dst)
	if len(src) != n+2 {
		panic(fmt.Errorf("spectrum length %d does not match FFT size %d", len(src), n))
	}
	copy(dst[2:], src[2:n])
	dst[0] = src[0]
	dst[1] = src[n]
}
