// Package stft implements the streaming short-time Fourier transform and its
// overlap-add inverse.
package stft

import (
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

// STFT transforms frames into one-sided spectra: analysis window, zero
// padding up to the FFT size, forward real FFT.
type STFT struct {
	fft    fft.RealFFT
	window []float32
	buf    []float32
}

func NewSTFT(fftImpl fft.RealFFT, analysisWindow []float32) (*STFT, error) {
	if len(analysisWindow) == 0 {
		return nil, fmt.Errorf("the analysis window is empty")
	}
	if len(analysisWindow) > fftImpl.Size() {
		return nil, fmt.Errorf("the frame length %d exceeds the FFT size %d", len(analysisWindow), fftImpl.Size())
	}
	return &STFT{
		fft:    fftImpl,
		window: analysisWindow,
		buf:    make([]float32, fftImpl.Size()),
	}, nil
}

func (s *STFT) FrameLen() int {
	return len(s.window)
}

func (s *STFT) FFTSize() int {
	return s.fft.Size()
}

// Transform writes the spectrum of frame into dst.
func (s *STFT) Transform(dst spectrum.Spectrum, frame []float32) {
	if len(frame) != len(s.window) {
		panic(fmt.Errorf("frame length %d does not match the window length %d", len(frame), len(s.window)))
	}
	for i, v := range frame {
		s.buf[i] = v * s.window[i]
	}
	for i := len(frame); i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	s.fft.RealFFT(s.buf, false)
	spectrum.Unpack(dst, s.buf)
}
