package audio

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type float32ReaderFunc func(p []float32) (int, error)

func (fn float32ReaderFunc) Read(p []float32) (int, error) {
	return fn(p)
}

func TestReaderFromFloat32ReaderKeepsError(t *testing.T) {
	calls := 0
	r := newReaderFromFloat32Reader(float32ReaderFunc(func(p []float32) (int, error) {
		calls++
		if calls > 1 {
			return 0, nil
		}
		p[0], p[1] = 0.5, -0.25
		return 2, fmt.Errorf("corrupted page")
	}))

	buf := make([]byte, 8)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	_, err = r.Read(buf)
	require.ErrorContains(t, err, "corrupted page")
	_, err = r.Read(buf)
	require.ErrorContains(t, err, "corrupted page")
	require.Equal(t, 1, calls)
}

func TestReaderFromFloat32ReaderEOF(t *testing.T) {
	samples := []float32{1, 2, 3}
	r := newReaderFromFloat32Reader(float32ReaderFunc(func(p []float32) (int, error) {
		n := copy(p, samples)
		samples = samples[n:]
		if len(samples) == 0 {
			return n, io.EOF
		}
		return n, nil
	}))

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, data, 12)
}
