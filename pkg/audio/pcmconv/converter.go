// Package pcmconv converts PCM streams between sample formats and channel
// layouts. The sample rate is never changed: streams of different rates are
// rejected.
package pcmconv

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

type Format struct {
	Channels   audio.Channel
	SampleRate audio.SampleRate
	PCMFormat  audio.PCMFormat
}

func (f Format) frameSize() uint {
	return uint(f.Channels) * f.PCMFormat.Size()
}

type Converter struct {
	inReader  io.Reader
	inFormat  Format
	outFormat Format
	inCodec   sampleCodec
	outCodec  sampleCodec
	locker    sync.Mutex
	buffer    []byte
	pending   int
	eof       bool
}

var _ io.Reader = (*Converter)(nil)

func NewConverter(
	inFormat Format,
	inReader io.Reader,
	outFormat Format,
) (*Converter, error) {
	c := &Converter{
		inReader:  inReader,
		inFormat:  inFormat,
		outFormat: outFormat,
	}
	if err := c.init(); err != nil {
		return nil, fmt.Errorf("unable to initialize a converter from %#+v to %#+v: %w", inFormat, outFormat, err)
	}
	return c, nil
}

func (c *Converter) init() error {
	if c.inFormat.SampleRate != c.outFormat.SampleRate {
		return fmt.Errorf("sample rate conversion is not supported: %d != %d", c.inFormat.SampleRate, c.outFormat.SampleRate)
	}
	if c.inFormat.Channels == 0 || c.outFormat.Channels == 0 {
		return fmt.Errorf("the amount of channels must be positive")
	}
	if c.inFormat.Channels != c.outFormat.Channels && c.inFormat.Channels != 1 && c.outFormat.Channels != 1 {
		return fmt.Errorf("do not know how to convert %d channels to %d", c.inFormat.Channels, c.outFormat.Channels)
	}
	var err error
	c.inCodec, err = getCodec(c.inFormat.PCMFormat)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	c.outCodec, err = getCodec(c.outFormat.PCMFormat)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// Read fills p with whole output frames. Input bytes that do not form a whole
// input frame yet are kept until the next call.
func (c *Converter) Read(p []byte) (int, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	inFrame := int(c.inFormat.frameSize())
	outFrame := int(c.outFormat.frameSize())
	maxFrames := len(p) / outFrame
	if maxFrames == 0 {
		return 0, nil
	}

	want := maxFrames * inFrame
	if cap(c.buffer) < want {
		buf := make([]byte, want)
		copy(buf, c.buffer[:c.pending])
		c.buffer = buf
	}
	c.buffer = c.buffer[:cap(c.buffer)]

	var readErr error
	for c.pending < inFrame && !c.eof {
		n, err := c.inReader.Read(c.buffer[c.pending:want])
		c.pending += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = fmt.Errorf("unable to read from the backend: %w", err)
				break
			}
			c.eof = true
		}
		if n == 0 && err == nil {
			break
		}
	}

	frames := c.pending / inFrame
	if frames == 0 {
		if readErr != nil {
			return 0, readErr
		}
		if c.eof {
			if c.pending != 0 {
				return 0, fmt.Errorf("the input ended in the middle of a frame: %d trailing bytes", c.pending)
			}
			return 0, io.EOF
		}
		return 0, nil
	}

	inSize := int(c.inFormat.PCMFormat.Size())
	outSize := int(c.outFormat.PCMFormat.Size())
	inCh := int(c.inFormat.Channels)
	outCh := int(c.outFormat.Channels)
	for frameIdx := 0; frameIdx < frames; frameIdx++ {
		src := c.buffer[frameIdx*inFrame:]
		dst := p[frameIdx*outFrame:]
		switch {
		case inCh == outCh:
			for ch := 0; ch < inCh; ch++ {
				c.outCodec.encode(dst[ch*outSize:], c.inCodec.decode(src[ch*inSize:]))
			}
		case outCh == 1:
			var sum float64
			for ch := 0; ch < inCh; ch++ {
				sum += c.inCodec.decode(src[ch*inSize:])
			}
			c.outCodec.encode(dst, sum/float64(inCh))
		default:
			v := c.inCodec.decode(src)
			for ch := 0; ch < outCh; ch++ {
				c.outCodec.encode(dst[ch*outSize:], v)
			}
		}
	}

	consumed := frames * inFrame
	c.pending = copy(c.buffer, c.buffer[consumed:c.pending])
	return frames * outFrame, readErr
}
