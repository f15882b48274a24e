package stft

import (
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
	"github.com/xaionaro-go/speechenhance/pkg/window"
)

const (
	// NormFloor bounds the window-sum normalisation away from zero.
	NormFloor = 1e-8

	colaTolerance = 1e-5
)

// ISTFT resynthesises samples from spectra by overlap-add. Each spectrum
// finalises FrameHop samples; the last FrameLen-FrameHop samples are held
// until Flush.
type ISTFT struct {
	fft       fft.RealFFT
	frameHop  int
	analysis  []float32
	synthesis []float32

	// scale is used when analysis·synthesis is COLA at frameHop; otherwise
	// norm accumulates analysis·synthesis alongside acc.
	scale float64
	norm  []float64
	acc   []float64
	buf   []float32

	frames uint64
}

func NewISTFT(
	fftImpl fft.RealFFT,
	analysisWindow []float32,
	synthesisWindow []float32,
	frameHop int,
) (*ISTFT, error) {
	frameLen := len(synthesisWindow)
	if frameLen == 0 || len(analysisWindow) != frameLen {
		return nil, fmt.Errorf("invalid window lengths: analysis %d, synthesis %d", len(analysisWindow), frameLen)
	}
	if frameLen > fftImpl.Size() {
		return nil, fmt.Errorf("the frame length %d exceeds the FFT size %d", frameLen, fftImpl.Size())
	}
	if frameHop < 1 || frameHop > frameLen {
		return nil, fmt.Errorf("frame hop must be within [1, %d], got %d", frameLen, frameHop)
	}

	t := &ISTFT{
		fft:       fftImpl,
		frameHop:  frameHop,
		analysis:  analysisWindow,
		synthesis: synthesisWindow,
		acc:       make([]float64, frameLen),
		buf:       make([]float32, fftImpl.Size()),
	}
	if scale, ok := window.COLAScale(analysisWindow, synthesisWindow, frameHop, colaTolerance); ok {
		t.scale = scale
	} else {
		t.norm = make([]float64, frameLen)
	}
	return t, nil
}

func (t *ISTFT) FrameLen() int {
	return len(t.acc)
}

func (t *ISTFT) FrameHop() int {
	return t.frameHop
}

// IsCOLA tells whether a constant normalisation is used.
func (t *ISTFT) IsCOLA() bool {
	return t.norm == nil
}

// Pending returns the amount of samples held in the accumulator that Flush
// would emit.
func (t *ISTFT) Pending() int {
	if t.frames == 0 {
		return 0
	}
	return len(t.acc) - t.frameHop
}

// ProcessAppend adds the spectrum s into the overlap-add accumulator and
// appends the FrameHop finalised samples to dst.
func (t *ISTFT) ProcessAppend(dst []float32, s spectrum.Spectrum) []float32 {
	spectrum.Pack(t.buf, s)
	t.fft.RealFFT(t.buf, true)

	for i, w := range t.synthesis {
		t.acc[i] += float64(t.buf[i] * w)
	}
	if t.norm != nil {
		for i, w := range t.synthesis {
			t.norm[i] += float64(t.analysis[i] * w)
		}
	}
	t.frames++

	dst = t.appendNormalized(dst, t.frameHop)
	t.shift()
	return dst
}

// FlushAppend appends up to limit held samples to dst and clears the state.
func (t *ISTFT) FlushAppend(dst []float32, limit int) []float32 {
	n := min(t.Pending(), max(limit, 0))
	dst = t.appendNormalized(dst, n)
	t.Reset()
	return dst
}

func (t *ISTFT) appendNormalized(dst []float32, n int) []float32 {
	if t.norm == nil {
		for _, v := range t.acc[:n] {
			dst = append(dst, float32(v*t.scale))
		}
		return dst
	}
	for i, v := range t.acc[:n] {
		dst = append(dst, float32(v/max(t.norm[i], NormFloor)))
	}
	return dst
}

func (t *ISTFT) shift() {
	hop := t.frameHop
	copy(t.acc, t.acc[hop:])
	clear(t.acc[len(t.acc)-hop:])
	if t.norm != nil {
		copy(t.norm, t.norm[hop:])
		clear(t.norm[len(t.norm)-hop:])
	}
}

// Frames returns the amount of spectra processed since the last Reset.
func (t *ISTFT) Frames() uint64 {
	return t.frames
}

func (t *ISTFT) Reset() {
	clear(t.acc)
	if t.norm != nil {
		clear(t.norm)
	}
	t.frames = 0
}
