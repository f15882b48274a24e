package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePCMFormat(t *testing.T) {
	for f := PCMFormatU8; f < endOfPCMFormat; f++ {
		parsed, err := ParsePCMFormat(f.String())
		require.NoError(t, err)
		require.Equal(t, f, parsed)
		require.NotZero(t, f.Size(), f.String())
	}
	_, err := ParsePCMFormat("s12le")
	require.Error(t, err)
}

func TestEncodingPCM(t *testing.T) {
	e := EncodingPCM{PCMFormat: PCMFormatFloat32Native(), SampleRate: 16000}
	require.Equal(t, uint(4), e.BytesPerSample())
	require.Equal(t, uint64(640), e.BytesForDuration(10*time.Millisecond))
}

func TestNewVorbisReaderGarbage(t *testing.T) {
	_, err := NewVorbisReader(bytes.NewReader([]byte("definitely not an ogg stream")))
	require.Error(t, err)
}
