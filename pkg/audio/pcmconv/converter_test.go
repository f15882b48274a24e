package pcmconv

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

// oneByteReader returns the data one byte per Read call.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestConverter(t *testing.T) {
	t.Run("Identity_S16LE_Mono", func(t *testing.T) {
		f := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE}
		data := make([]byte, 200)
		for i := 0; i < 100; i++ {
			binary.LittleEndian.PutUint16(data[i*2:], uint16(i*100))
		}
		c, err := NewConverter(f, bytes.NewReader(data), f)
		require.NoError(t, err)

		out := make([]byte, 200)
		n, err := c.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 200, n)
		assert.Equal(t, data, out)
	})

	t.Run("U8_to_Float32LE", func(t *testing.T) {
		inFmt := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		outFmt := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatFloat32LE}
		c, err := NewConverter(inFmt, bytes.NewReader([]byte{0, 128, 255}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 12)
		n, err := c.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 12, n)
		assert.InDelta(t, -1.0, math.Float32frombits(binary.LittleEndian.Uint32(out[0:])), 0.01)
		assert.InDelta(t, 0.0, math.Float32frombits(binary.LittleEndian.Uint32(out[4:])), 0.01)
		assert.InDelta(t, 1.0, math.Float32frombits(binary.LittleEndian.Uint32(out[8:])), 0.01)
	})

	t.Run("Stereo_to_Mono", func(t *testing.T) {
		inFmt := Format{Channels: 2, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		outFmt := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		c, err := NewConverter(inFmt, bytes.NewReader([]byte{100, 200, 50, 150}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 2)
		n, err := c.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []byte{150, 100}, out)
	})

	t.Run("Mono_to_Stereo", func(t *testing.T) {
		inFmt := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		outFmt := Format{Channels: 2, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		c, err := NewConverter(inFmt, bytes.NewReader([]byte{10, 20, 30}), outFmt)
		require.NoError(t, err)

		out := make([]byte, 6)
		n, err := c.Read(out)
		assert.NoError(t, err)
		assert.Equal(t, 6, n)
		assert.Equal(t, []byte{10, 10, 20, 20, 30, 30}, out)
	})

	t.Run("PartialFrames", func(t *testing.T) {
		f := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatS16LE}
		data := []byte{1, 2, 3, 4, 5, 6}
		c, err := NewConverter(f, &oneByteReader{data: data}, f)
		require.NoError(t, err)

		var result []byte
		buf := make([]byte, 4)
		for {
			n, err := c.Read(buf)
			result = append(result, buf[:n]...)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
		}
		assert.Equal(t, data, result)
	})

	t.Run("SampleRateMismatch", func(t *testing.T) {
		inFmt := Format{Channels: 1, SampleRate: 44100, PCMFormat: audio.PCMFormatU8}
		outFmt := Format{Channels: 1, SampleRate: 16000, PCMFormat: audio.PCMFormatU8}
		_, err := NewConverter(inFmt, bytes.NewReader(nil), outFmt)
		require.Error(t, err)
	})
}

func TestDecodeEncodeFloat32(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.25}
	encoded, err := EncodeFloat32(audio.PCMFormatS16LE, nil, samples)
	require.NoError(t, err)
	require.Len(t, encoded, 8)

	decoded, err := DecodeFloat32(audio.PCMFormatS16LE, nil, encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], decoded[i], 1e-4)
	}

	_, err = DecodeFloat32(audio.PCMFormatS16LE, nil, []byte{1, 2, 3})
	require.Error(t, err)
}
