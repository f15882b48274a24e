package stft

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/speechenhance/pkg/fft/implementations/radix2"
	"github.com/xaionaro-go/speechenhance/pkg/frame"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
	"github.com/xaionaro-go/speechenhance/pkg/window"
)

func whiteNoise(seed int64, n int) []float32 {
	rng := rand.New(rand.NewSource(seed))
	result := make([]float32, n)
	for i := range result {
		result[i] = float32(rng.Float64()*2 - 1)
	}
	return result
}

func resynthesize(
	t testing.TB,
	input []float32,
	windowType window.Type,
	frameLen, frameHop, fftSize int,
	blockSize int,
) ([]float32, *ISTFT) {
	w, err := windowType.Periodic(frameLen)
	require.NoError(t, err)

	fftImpl := radix2.New(fftSize)
	analysis, err := NewSTFT(fftImpl, w)
	require.NoError(t, err)
	synthesis, err := NewISTFT(fftImpl, w, w, frameHop)
	require.NoError(t, err)
	frames, err := frame.New(frameLen, frameHop)
	require.NoError(t, err)

	frameBuf := make([]float32, frameLen)
	spec := spectrum.New(fftSize)
	var output []float32
	for pos := 0; pos < len(input); pos += blockSize {
		require.NoError(t, frames.Process(input[pos:min(pos+blockSize, len(input))]))
		for frames.Len() > 0 {
			frames.PopTo(frameBuf)
			analysis.Transform(spec, frameBuf)
			output = synthesis.ProcessAppend(output, spec)
		}
	}
	frames.SetDone()
	for frames.Len() > 0 {
		frames.PopTo(frameBuf)
		analysis.Transform(spec, frameBuf)
		output = synthesis.ProcessAppend(output, spec)
	}
	output = synthesis.FlushAppend(output, len(input)-len(output))
	return output, synthesis
}

func TestIdentityResynthesis(t *testing.T) {
	input := whiteNoise(0, 16000)
	for _, windowType := range []window.Type{window.TypeHann, window.TypeSqrtHann, window.TypeHamming, window.TypeBlackman} {
		for _, blockSize := range []int{160, 1000, 16000} {
			t.Run(fmt.Sprintf("%s_block%d", windowType, blockSize), func(t *testing.T) {
				output, _ := resynthesize(t, input, windowType, 400, 200, 512, blockSize)
				require.Len(t, output, len(input))
				for i := 400; i < 15600; i++ {
					require.InDelta(t, input[i], output[i], 1e-5, "sample %d", i)
				}
			})
		}
	}
}

func TestCOLADetection(t *testing.T) {
	_, synthesis := resynthesize(t, whiteNoise(1, 1000), window.TypeSqrtHann, 400, 200, 512, 1000)
	require.True(t, synthesis.IsCOLA())
	_, synthesis = resynthesize(t, whiteNoise(1, 1000), window.TypeHann, 400, 200, 512, 1000)
	require.False(t, synthesis.IsCOLA())
	_, synthesis = resynthesize(t, whiteNoise(1, 1000), window.TypeHann, 400, 100, 512, 1000)
	require.True(t, synthesis.IsCOLA())
}

func TestZeroInputZeroOutput(t *testing.T) {
	input := make([]float32, 5000)
	for _, windowType := range []window.Type{window.TypeHann, window.TypeSqrtHann, window.TypeRectangular} {
		output, _ := resynthesize(t, input, windowType, 320, 160, 512, 333)
		require.Len(t, output, len(input))
		for i, v := range output {
			require.Zero(t, v, "sample %d", i)
		}
	}
}

func TestFlushTail(t *testing.T) {
	const frameLen, frameHop = 400, 200
	input := whiteNoise(2, frameLen+2*frameHop)

	w, err := window.TypeHann.Periodic(frameLen)
	require.NoError(t, err)
	fftImpl := radix2.New(512)
	analysis, err := NewSTFT(fftImpl, w)
	require.NoError(t, err)
	synthesis, err := NewISTFT(fftImpl, w, w, frameHop)
	require.NoError(t, err)
	require.Zero(t, synthesis.Pending())

	spec := spectrum.New(512)
	var output []float32
	for i := 0; i < 3; i++ {
		analysis.Transform(spec, input[i*frameHop:i*frameHop+frameLen])
		output = synthesis.ProcessAppend(output, spec)
	}
	require.Len(t, output, 3*frameHop)
	require.Equal(t, frameLen-frameHop, synthesis.Pending())

	output = synthesis.FlushAppend(output, 1<<30)
	require.Len(t, output, frameLen+2*frameHop)
	require.Zero(t, synthesis.Pending())
	require.Zero(t, synthesis.Frames())
}

func TestConstructorErrors(t *testing.T) {
	fftImpl := radix2.New(8)
	_, err := NewSTFT(fftImpl, nil)
	require.Error(t, err)
	_, err = NewSTFT(fftImpl, make([]float32, 9))
	require.Error(t, err)
	_, err = NewISTFT(fftImpl, make([]float32, 4), make([]float32, 5), 2)
	require.Error(t, err)
	_, err = NewISTFT(fftImpl, make([]float32, 8), make([]float32, 8), 9)
	require.Error(t, err)

	s, err := NewSTFT(fftImpl, make([]float32, 6))
	require.NoError(t, err)
	require.Panics(t, func() { s.Transform(spectrum.New(8), make([]float32, 5)) })
}

func BenchmarkResynthesis(b *testing.B) {
	input := whiteNoise(0, 16000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resynthesize(b, input, window.TypeHann, 400, 160, 512, 160)
	}
}
