// Package fft defines the real-valued FFT capability used by the streaming
// STFT stages.
//
// All implementations share one in-place packed layout for a real signal of
// length N (a power of two):
//
//	buf[2k], buf[2k+1] = Re(X[k]), Im(X[k])   for k = 1 .. N/2-1
//	buf[0]             = Re(X[0])             (DC, purely real)
//	buf[1]             = Re(X[N/2])           (Nyquist, purely real)
//
// The forward transform is unscaled; the inverse transform scales by 1/N, so
// a forward transform followed by an inverse one restores the input.
package fft

import (
	"fmt"
)

type RealFFT interface {
	// Size returns N, the length of the real signal.
	Size() int

	// RealFFT transforms buf in place; len(buf) must equal Size().
	RealFFT(buf []float32, invert bool)
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two that is not less than n.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// AssertSize panics if n is not a power of two of at least 2.
func AssertSize(n int) {
	if n < 2 || !IsPowerOfTwo(n) {
		panic(fmt.Errorf("FFT size %d is not a power of two >= 2", n))
	}
}

// AssertBuffer panics if buf does not have exactly n elements.
func AssertBuffer(buf []float32, n int) {
	if len(buf) != n {
		panic(fmt.Errorf("FFT buffer length %d does not match the FFT size %d", len(buf), n))
	}
}
