package spectrum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	packed := []float32{10, -2, 1, 2, 3, 4, 5, 6}

	s := New(8)
	Unpack(s, packed)
	require.Equal(t, 5, s.Bins())
	require.Equal(t, complex64(complex(10, 0)), s.Bin(0))
	require.Equal(t, complex64(complex(1, 2)), s.Bin(1))
	require.Equal(t, complex64(complex(5, 6)), s.Bin(3))
	require.Equal(t, complex64(complex(-2, 0)), s.Bin(4))

	repacked := make([]float32, 8)
	Pack(repacked, s)
	require.Equal(t, packed, repacked)

	require.Panics(t, func() { Pack(make([]float32, 4), s) })
	require.Panics(t, func() { Unpack(New(4), packed) })
}

func TestSpectrumHelpers(t *testing.T) {
	s := New(4)
	s.SetBin(1, complex(3, 4))
	require.Equal(t, float32(25), s.Power(1))
	require.InDelta(t, 5, s.Magnitude(1), 1e-6)
	s.Scale(1, 0.5)
	require.Equal(t, complex64(complex(1.5, 2)), s.Bin(1))
	s.Zero()
	require.Equal(t, New(4), s)
}

func TestChunk(t *testing.T) {
	c := NewChunk(2, 3, 1, 8)
	require.Equal(t, 6, c.Len())
	require.Equal(t, 5, c.Bins())
	c.Frames[2][0] = 7
	require.Len(t, c.Center(), 3)
	require.Equal(t, float32(7), c.Center()[0][0])
}
