// Package radix2 implements an iterative radix-2 Cooley-Tukey FFT over
// power-of-two sizes with precomputed twiddle tables.
package radix2

import (
	"fmt"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
)

type FFTComputer struct {
	registerSize int

	// cosTable[k], sinTable[k] = cos, sin of pi*k/(registerSize/2)
	cosTable []float64
	sinTable []float64

	cache []float64
}

var _ fft.RealFFT = (*FFTComputer)(nil)

// New returns an FFT computer for real transforms of registerSize samples and
// complex transforms of up to registerSize points.
func New(registerSize int) *FFTComputer {
	fft.AssertSize(registerSize)
	tableSize := registerSize >> 1
	c := &FFTComputer{
		registerSize: registerSize,
		cosTable:     make([]float64, tableSize),
		sinTable:     make([]float64, tableSize),
		cache:        make([]float64, 2*registerSize),
	}
	for k := 0; k < tableSize; k++ {
		angle := math.Pi * float64(k) / float64(tableSize)
		c.cosTable[k] = math.Cos(angle)
		c.sinTable[k] = math.Sin(angle)
	}
	return c
}

func (c *FFTComputer) Size() int {
	return c.registerSize
}

// ComplexFFT computes the (inverse) FFT of the complex values
// [R0, I0, R1, I1, ..., R(n-1), I(n-1)] in place. n must be a power of two
// not greater than the register size. The inverse transform is scaled by 1/n.
func (c *FFTComputer) ComplexFFT(buf []float32, invert bool) {
	if len(buf)%2 != 0 {
		panic(fmt.Errorf("complex buffer has an odd length %d", len(buf)))
	}
	n := len(buf) / 2
	if !fft.IsPowerOfTwo(n) || n > c.registerSize {
		panic(fmt.Errorf("complex FFT size %d is not a power of two <= %d", n, c.registerSize))
	}
	x := c.cache[:len(buf)]
	for i, v := range buf {
		x[i] = float64(v)
	}
	c.complexFFT(x, invert)
	for i, v := range x {
		buf[i] = float32(v)
	}
}

// RealFFT computes the FFT of registerSize real samples in place, producing
// the packed layout described in package fft. With invert it takes the packed
// layout and restores the real signal.
func (c *FFTComputer) RealFFT(buf []float32, invert bool) {
	fft.AssertBuffer(buf, c.registerSize)
	x := c.cache[:c.registerSize]
	for i, v := range buf {
		x[i] = float64(v)
	}
	if invert {
		c.realInverse(x)
	} else {
		c.realForward(x)
	}
	for i, v := range x {
		buf[i] = float32(v)
	}
}

func (c *FFTComputer) realForward(x []float64) {
	half := len(x) / 2
	c.complexFFT(x, false)

	z0r, z0i := x[0], x[1]
	x[0] = z0r + z0i
	x[1] = z0r - z0i

	for k := 1; k <= half/2; k++ {
		mk := half - k
		ar, ai := x[2*k], x[2*k+1]
		br, bi := x[2*mk], x[2*mk+1]

		// even part: (Z[k] + conj(Z[M-k])) / 2
		er := (ar + br) / 2
		ei := (ai - bi) / 2
		// odd part: (Z[k] - conj(Z[M-k])) / 2i
		or := (ai + bi) / 2
		oi := -(ar - br) / 2

		wr, wi := c.cosTable[k], -c.sinTable[k]
		tr := wr*or - wi*oi
		ti := wr*oi + wi*or

		x[2*k] = er + tr
		x[2*k+1] = ei + ti
		x[2*mk] = er - tr
		x[2*mk+1] = ti - ei
	}
}

func (c *FFTComputer) realInverse(x []float64) {
	half := len(x) / 2

	dc, nyquist := x[0], x[1]
	x[0] = (dc + nyquist) / 2
	x[1] = (dc - nyquist) / 2

	for k := 1; k <= half/2; k++ {
		mk := half - k
		xkr, xki := x[2*k], x[2*k+1]
		xmr, xmi := x[2*mk], x[2*mk+1]

		er := (xkr + xmr) / 2
		ei := (xki - xmi) / 2
		dr := (xkr - xmr) / 2
		di := (xki + xmi) / 2

		wr, wi := c.cosTable[k], c.sinTable[k]
		or := dr*wr - di*wi
		oi := dr*wi + di*wr

		x[2*k] = er - oi
		x[2*k+1] = ei + or
		x[2*mk] = er + oi
		x[2*mk+1] = or - ei
	}

	c.complexFFT(x, true)
}

func (c *FFTComputer) complexFFT(x []float64, invert bool) {
	n := len(x) / 2
	if n <= 1 {
		return
	}
	complexBitReverse(x, n)

	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		step := c.registerSize / size
		for start := 0; start < n; start += size {
			for j := 0; j < halfSize; j++ {
				wr := c.cosTable[j*step]
				wi := -c.sinTable[j*step]
				if invert {
					wi = -wi
				}
				u := 2 * (start + j)
				v := u + 2*halfSize
				tr := wr*x[v] - wi*x[v+1]
				ti := wr*x[v+1] + wi*x[v]
				x[v] = x[u] - tr
				x[v+1] = x[u+1] - ti
				x[u] += tr
				x[u+1] += ti
			}
		}
	}

	if invert {
		scale := 1 / float64(n)
		for i := range x {
			x[i] *= scale
		}
	}
}

func complexBitReverse(x []float64, n int) {
	j := 0
	for i := 0; i < n-1; i++ {
		if i < j {
			x[2*i], x[2*j] = x[2*j], x[2*i]
			x[2*i+1], x[2*j+1] = x[2*j+1], x[2*i+1]
		}
		k := n >> 1
		for k <= j {
			j -= k
			k >>= 1
		}
		j += k
	}
}
