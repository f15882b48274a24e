package contextbuffer

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

func constFrame(dim int, v float32) []float32 {
	frame := make([]float32, dim)
	for i := range frame {
		frame[i] = v
	}
	return frame
}

func chunkValues(t *testing.T, c *spectrum.Chunk) []float32 {
	values := make([]float32, len(c.Frames))
	for i, frame := range c.Frames {
		for _, v := range frame {
			require.Equal(t, frame[0], v, "frame %d is not constant", i)
		}
		values[i] = frame[0]
	}
	return values
}

func TestChunking(t *testing.T) {
	const dim = 3
	b, err := New(2, 3, 2, dim)
	require.NoError(t, err)

	var chunks []*spectrum.Chunk
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Process(constFrame(dim, float32(i+1))))
		for b.Len() > 0 {
			chunks = append(chunks, b.Pop())
		}
	}
	require.Len(t, chunks, 23)
	require.True(t, b.IsDone())

	b.SetDone()
	for b.Len() > 0 {
		chunks = append(chunks, b.Pop())
	}
	require.True(t, b.IsDone())
	require.Len(t, chunks, 25)

	valueAt := func(idx int) float32 {
		if idx < 1 {
			idx = 1
		}
		if idx > 50 {
			return 0
		}
		return float32(idx)
	}
	for k, c := range chunks {
		require.Equal(t, 7, c.Len())
		expected := []float32{
			valueAt(2*k - 1), valueAt(2 * k), valueAt(2*k + 1), valueAt(2*k + 2),
			valueAt(2*k + 3), valueAt(2*k + 4), valueAt(2*k + 5),
		}
		require.Equal(t, expected, chunkValues(t, c), "chunk %d: %s", k, spew.Sdump(c))
		require.Equal(t, 2, c.Valid, "chunk %d", k)
	}
	require.Equal(t, uint64(50), b.Pushed())
	require.Equal(t, uint64(25), b.Emitted())
}

func TestChunkCompleteness(t *testing.T) {
	for _, cfg := range [][3]int{{0, 0, 1}, {2, 3, 2}, {4, 0, 3}, {0, 5, 4}, {1, 1, 7}} {
		lctx, rctx, chunk := cfg[0], cfg[1], cfg[2]
		for _, frames := range []int{0, 1, 2, 5, 13, 64} {
			t.Run(fmt.Sprintf("l%d_r%d_c%d_T%d", lctx, rctx, chunk, frames), func(t *testing.T) {
				b, err := New(lctx, rctx, chunk, 1)
				require.NoError(t, err)
				c := b.NewChunk()

				count, valid := 0, 0
				for i := 0; i < frames; i++ {
					require.NoError(t, b.Process([]float32{float32(i + 1)}))
					for b.Len() > 0 {
						b.PopTo(c)
						count++
						valid += c.Valid
					}
				}
				b.SetDone()
				for b.Len() > 0 {
					b.PopTo(c)
					count++
					valid += c.Valid
				}
				require.Equal(t, (frames+chunk-1)/chunk, count)
				require.Equal(t, frames, valid)
			})
		}
	}
}

func TestLastChunkValid(t *testing.T) {
	b, err := New(1, 1, 4, 1)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		require.NoError(t, b.Process([]float32{float32(i + 1)}))
	}
	require.Equal(t, 1, b.Len())
	first := b.Pop()
	require.Equal(t, []float32{1, 1, 2, 3, 4, 5}, chunkValues(t, first))
	require.Equal(t, 4, first.Valid)

	b.SetDone()
	require.Equal(t, 1, b.Len())
	last := b.Pop()
	require.Equal(t, []float32{4, 5, 6, 0, 0, 0}, chunkValues(t, last))
	require.Equal(t, 2, last.Valid)
	require.Len(t, last.Center(), 4)
}

func TestGrowWithoutDraining(t *testing.T) {
	b, err := New(1, 1, 1, 2)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, b.Process(constFrame(2, float32(i+1))))
	}
	require.Equal(t, 99, b.Len())
	for k := 0; k < 99; k++ {
		c := b.Pop()
		require.Equal(t, []float32{float32(max(k, 1)), float32(k + 1), float32(k + 2)}, chunkValues(t, c))
	}
}

func TestErrorsAndPreconditions(t *testing.T) {
	_, err := New(-1, 0, 1, 1)
	require.Error(t, err)
	_, err = New(0, -1, 1, 1)
	require.Error(t, err)
	_, err = New(0, 0, 0, 1)
	require.Error(t, err)
	_, err = New(0, 0, 1, 0)
	require.Error(t, err)

	b, err := New(0, 0, 1, 2)
	require.NoError(t, err)
	require.Panics(t, func() { b.Pop() })
	require.Panics(t, func() { _ = b.Process([]float32{1}) })

	b.SetDone()
	require.ErrorIs(t, b.Process([]float32{1, 2}), ErrDone)
	require.True(t, b.IsDone())

	b.Reset()
	require.False(t, b.Done())
	require.NoError(t, b.Process([]float32{1, 2}))
	require.Equal(t, 1, b.Len())
}
