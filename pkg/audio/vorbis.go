package audio

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/jfreymuth/oggvorbis"
)

type float32Reader interface {
	Read(p []float32) (int, error)
}

// readerFromFloat32Reader exposes a reader of float32 samples as a reader
// of native-endian bytes.
type readerFromFloat32Reader struct {
	reader  float32Reader
	samples []float32
	pending []byte
	err     error
}

var _ io.Reader = (*readerFromFloat32Reader)(nil)

func newReaderFromFloat32Reader(r float32Reader) *readerFromFloat32Reader {
	return &readerFromFloat32Reader{reader: r}
}

func (r *readerFromFloat32Reader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		want := (len(p) + 3) / 4
		if want == 0 {
			return 0, nil
		}
		if cap(r.samples) < want {
			r.samples = make([]float32, want)
		}
		n, err := r.reader.Read(r.samples[:want])
		if n == 0 {
			return 0, err
		}
		// returned once the decoded samples are consumed
		r.err = err
		r.pending = unsafe.Slice((*byte)(unsafe.Pointer(&r.samples[0])), n*4)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// VorbisReader decodes an Ogg/Vorbis stream into interleaved native-endian
// float32 PCM.
type VorbisReader struct {
	*readerFromFloat32Reader
	decoder *oggvorbis.Reader
}

var _ io.Reader = (*VorbisReader)(nil)

func NewVorbisReader(rawReader io.Reader) (*VorbisReader, error) {
	decoder, err := oggvorbis.NewReader(rawReader)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a vorbis reader: %w", err)
	}
	return &VorbisReader{
		readerFromFloat32Reader: newReaderFromFloat32Reader(decoder),
		decoder:                 decoder,
	}, nil
}

func (r *VorbisReader) SampleRate() SampleRate {
	return SampleRate(r.decoder.SampleRate())
}

func (r *VorbisReader) Channels() Channel {
	return Channel(r.decoder.Channels())
}

func (r *VorbisReader) PCMFormat() PCMFormat {
	return PCMFormatFloat32Native()
}
