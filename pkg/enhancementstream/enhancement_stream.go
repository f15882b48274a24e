// Package enhancementstream wraps an io.Reader of float32 mono PCM into an
// io.Reader of the enhanced PCM, running the enhancer in a background
// goroutine.
package enhancementstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/iamcalledrob/circular"
	"github.com/xaionaro-go/observability"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/audio/pcmconv"
	"github.com/xaionaro-go/speechenhance/pkg/enhancer"
)

type EnhancementStream struct {
	Enhancer *enhancer.TimeFrequencyNet

	pcmFormat  audio.PCMFormat
	blockBytes int

	inputBufferLocker  sync.Mutex
	inputBuffer        *circular.Buffer
	inputBufferSize    int
	inputEOF           bool
	outputBufferLocker sync.Mutex
	outputBuffer       *circular.Buffer
	outputBufferSize   int
	outputEOF          bool
	resultError        error
	readCtx            context.Context
	cancelFunc         context.CancelFunc

	readProgressedCh              chan struct{}
	enhancementInputProgressedCh  chan struct{}
	enhancementOutputProgressedCh chan struct{}
	outputProgressedCh            chan struct{}
}

var _ io.ReadCloser = (*EnhancementStream)(nil)

// NewEnhancementStream starts enhancing input, which must provide PCM in the
// encoding of the enhancer. blockSize is the amount of samples passed to the
// enhancer at once. The enhancer is flushed when input returns io.EOF.
func NewEnhancementStream(
	ctx context.Context,
	input io.Reader,
	enh *enhancer.TimeFrequencyNet,
	blockSize uint,
	inputBufferSize uint,
	outputBufferSize uint,
) (*EnhancementStream, error) {
	encoding, err := enh.Encoding(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the encoding of the enhancer: %w", err)
	}
	pcmEncoding, ok := encoding.(audio.EncodingPCM)
	if !ok {
		return nil, fmt.Errorf("the enhancer has a non-PCM encoding %T", encoding)
	}
	channels, err := enh.Channels(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get the amount of channels of the enhancer: %w", err)
	}
	if channels != 1 {
		return nil, fmt.Errorf("only mono is supported, but the enhancer expects %d channels", channels)
	}
	if blockSize == 0 {
		return nil, fmt.Errorf("the block size must be positive")
	}
	sampleSize := int(pcmEncoding.BytesPerSample())
	blockBytes := int(blockSize) * sampleSize
	if int(inputBufferSize) < blockBytes || int(outputBufferSize) < sampleSize {
		return nil, fmt.Errorf("the buffers are too small: input %d (needs at least %d), output %d", inputBufferSize, blockBytes, outputBufferSize)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	s := &EnhancementStream{
		Enhancer:         enh,
		pcmFormat:        pcmEncoding.PCMFormat,
		blockBytes:       blockBytes,
		inputBuffer:      circular.NewBuffer(int(inputBufferSize)),
		inputBufferSize:  int(inputBufferSize),
		outputBuffer:     circular.NewBuffer(int(outputBufferSize)),
		outputBufferSize: int(outputBufferSize),
		readCtx:          ctx,
		cancelFunc:       cancelFunc,

		readProgressedCh:              make(chan struct{}),
		enhancementInputProgressedCh:  make(chan struct{}),
		enhancementOutputProgressedCh: make(chan struct{}),
		outputProgressedCh:            make(chan struct{}),
	}
	observability.Go(ctx, func() {
		err := s.readerLoop(ctx, input)
		if err != nil {
			s.setError(ctx, fmt.Errorf("got an error from the reader loop: %w", err))
			cancelFunc()
		}
	})
	observability.Go(ctx, func() {
		err := s.enhancementLoop(ctx)
		if err != nil {
			s.setError(ctx, fmt.Errorf("got an error from the enhancement loop: %w", err))
			cancelFunc()
		}
	})
	return s, nil
}

func (s *EnhancementStream) setError(ctx context.Context, err error) {
	logger.Debugf(ctx, "setError: %v", err)
	s.outputBufferLocker.Lock()
	defer s.outputBufferLocker.Unlock()
	if s.resultError == nil {
		s.resultError = err
	}
	s.signalEnhancementOutputProgressed(ctx)
}

func (s *EnhancementStream) readerLoop(
	ctx context.Context,
	input io.Reader,
) (_err error) {
	logger.Tracef(ctx, "readerLoop")
	defer func() { logger.Tracef(ctx, "/readerLoop %v", _err) }()

	readBuf := make([]byte, min(65536, s.inputBufferSize))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logger.Tracef(ctx, "readerLoop: Read()")
		n, err := input.Read(readBuf)
		logger.Tracef(ctx, "/readerLoop: Read(): %v %v", n, err)
		if n < 0 {
			return fmt.Errorf("received invalid value of received bytes: %d", n)
		}
		if n > 0 {
			if err := s.writeInput(ctx, readBuf[:n]); err != nil {
				return err
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("unable to read the input: %w", err)
			}
			s.inputBufferLocker.Lock()
			defer s.inputBufferLocker.Unlock()
			s.inputEOF = true
			s.signalReadProgressed(ctx)
			return nil
		}
	}
}

func (s *EnhancementStream) writeInput(
	ctx context.Context,
	data []byte,
) error {
	s.inputBufferLocker.Lock()
	defer s.inputBufferLocker.Unlock()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		w, err := s.inputBuffer.Write(data)
		if err != nil {
			if errors.Is(err, circular.ErrNoSpace) {
				s.waitForEnhancementInputProgressed(ctx)
				continue
			}
			return fmt.Errorf("unable to write to the circular buffer: %w", err)
		}
		if w != len(data) {
			return fmt.Errorf("wrote != read: %d != %d", w, len(data))
		}
		break
	}
	s.signalReadProgressed(ctx)
	return nil
}

func (s *EnhancementStream) signalReadProgressed(ctx context.Context) {
	logger.Tracef(ctx, "closing readProgressedCh")
	oldCh := s.readProgressedCh
	s.readProgressedCh = make(chan struct{})
	close(oldCh)
}

func (s *EnhancementStream) waitForEnhancementInputProgressed(ctx context.Context) {
	logger.Tracef(ctx, "waitForEnhancementInputProgressed")
	defer logger.Tracef(ctx, "/waitForEnhancementInputProgressed")

	ch := s.enhancementInputProgressedCh
	s.inputBufferLocker.Unlock()
	defer s.inputBufferLocker.Lock()
	select {
	case <-ctx.Done():
	case <-ch:
		logger.Tracef(ctx, "waitForEnhancementInputProgressed: received an event")
	}
}

// readBlock fills buf from the input buffer; it returns less than len(buf)
// bytes only at the end of the input.
func (s *EnhancementStream) readBlock(
	ctx context.Context,
	buf []byte,
) (_ int, _eof bool, _err error) {
	receivedCount := 0
	for {
		var (
			waitCh chan struct{}
			eof    bool
		)
		if err := func() error {
			s.inputBufferLocker.Lock()
			defer s.inputBufferLocker.Unlock()
			n, err := s.inputBuffer.Read(buf[receivedCount:])
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("unable to read from the circular buffer: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("received a negative count: %d", n)
			}
			receivedCount += n
			waitCh = s.readProgressedCh
			eof = s.inputEOF
			logger.Tracef(ctx, "closing enhancementInputProgressedCh")
			var oldCh chan struct{}
			oldCh, s.enhancementInputProgressedCh = s.enhancementInputProgressedCh, make(chan struct{})
			close(oldCh)
			return nil
		}(); err != nil {
			return receivedCount, false, err
		}
		if receivedCount >= len(buf) {
			return receivedCount, false, nil
		}
		if eof {
			return receivedCount, true, nil
		}
		select {
		case <-ctx.Done():
			return receivedCount, false, ctx.Err()
		case <-waitCh:
			logger.Tracef(ctx, "readBlock: received a read event")
		}
	}
}

func (s *EnhancementStream) enhancementLoop(ctx context.Context) (_err error) {
	logger.Tracef(ctx, "enhancementLoop")
	defer func() { logger.Tracef(ctx, "/enhancementLoop: %v", _err) }()

	logger.Debugf(ctx, "block size: %d bytes", s.blockBytes)
	inputBuf := make([]byte, s.blockBytes)
	var (
		samples   []float32
		enhanced  []float32
		outputBuf []byte
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, eof, err := s.readBlock(ctx, inputBuf)
		if err != nil {
			return err
		}

		samples, err = pcmconv.DecodeFloat32(s.pcmFormat, samples[:0], inputBuf[:n])
		if err != nil {
			return fmt.Errorf("unable to decode the input: %w", err)
		}

		logger.Tracef(ctx, "s.Enhancer.ProcessAppend")
		enhanced, err = s.Enhancer.ProcessAppend(ctx, enhanced[:0], samples)
		logger.Tracef(ctx, "/s.Enhancer.ProcessAppend: %v", err)
		if err != nil {
			return fmt.Errorf("unable to enhance: %w", err)
		}
		if eof {
			enhanced, err = s.Enhancer.FlushAppend(ctx, enhanced)
			if err != nil {
				return fmt.Errorf("unable to flush the enhancer: %w", err)
			}
		}

		outputBuf, err = pcmconv.EncodeFloat32(s.pcmFormat, outputBuf[:0], enhanced)
		if err != nil {
			return fmt.Errorf("unable to encode the output: %w", err)
		}
		if err := s.writeOutput(ctx, outputBuf, eof); err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

func (s *EnhancementStream) writeOutput(
	ctx context.Context,
	data []byte,
	eof bool,
) error {
	logger.Tracef(ctx, "s.outputBufferLocker.Lock()")
	s.outputBufferLocker.Lock()
	defer s.outputBufferLocker.Unlock()
	logger.Tracef(ctx, "/s.outputBufferLocker.Lock()")

	for len(data) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		piece := data[:min(len(data), s.outputBufferSize)]
		w, err := s.outputBuffer.Write(piece)
		if err != nil {
			if errors.Is(err, circular.ErrNoSpace) {
				s.waitForOutput(ctx)
				continue
			}
			return fmt.Errorf("unable to write to the circular buffer: %w", err)
		}
		if w != len(piece) {
			return fmt.Errorf("wrote != read: %d != %d", w, len(piece))
		}
		data = data[w:]
		s.signalEnhancementOutputProgressed(ctx)
	}
	if eof {
		s.outputEOF = true
		s.signalEnhancementOutputProgressed(ctx)
	}
	return nil
}

func (s *EnhancementStream) signalEnhancementOutputProgressed(ctx context.Context) {
	logger.Tracef(ctx, "closing enhancementOutputProgressedCh")
	var oldCh chan struct{}
	oldCh, s.enhancementOutputProgressedCh = s.enhancementOutputProgressedCh, make(chan struct{})
	close(oldCh)
}

func (s *EnhancementStream) waitForOutput(ctx context.Context) {
	logger.Tracef(ctx, "waitForOutput")
	defer logger.Tracef(ctx, "/waitForOutput")

	ch := s.outputProgressedCh
	s.outputBufferLocker.Unlock()
	defer s.outputBufferLocker.Lock()
	select {
	case <-ctx.Done():
	case <-ch:
		logger.Tracef(ctx, "waitForOutput: received an event")
	}
}

// Read returns the enhanced PCM; it returns io.EOF after the flushed tail of
// the input has been read.
func (s *EnhancementStream) Read(pcm []byte) (_ret int, _err error) {
	logger.Tracef(s.readCtx, "Read, len:%d", len(pcm))
	defer func() { logger.Tracef(s.readCtx, "/Read, len:%d: %d, %v", len(pcm), _ret, _err) }()

	s.outputBufferLocker.Lock()
	defer s.outputBufferLocker.Unlock()

	for {
		if s.resultError != nil {
			return 0, s.resultError
		}
		logger.Tracef(s.readCtx, "Read: s.outputBuffer.Read()")
		n, err := s.outputBuffer.Read(pcm)
		logger.Tracef(s.readCtx, "/Read: s.outputBuffer.Read(): %v %v", n, err)
		if err == nil {
			var oldCh chan struct{}
			oldCh, s.outputProgressedCh = s.outputProgressedCh, make(chan struct{})
			close(oldCh)
			return n, nil
		}
		if !errors.Is(err, io.EOF) {
			return n, err
		}
		if s.outputEOF {
			return 0, io.EOF
		}
		if err := s.readCtx.Err(); err != nil {
			return 0, err
		}
		s.waitForEnhancementOutputProgressed(s.readCtx)
	}
}

func (s *EnhancementStream) waitForEnhancementOutputProgressed(ctx context.Context) {
	logger.Tracef(ctx, "waitForEnhancementOutputProgressed")
	defer logger.Tracef(ctx, "/waitForEnhancementOutputProgressed")

	ch := s.enhancementOutputProgressedCh
	s.outputBufferLocker.Unlock()
	defer s.outputBufferLocker.Lock()
	select {
	case <-ctx.Done():
	case <-ch:
		logger.Tracef(ctx, "waitForEnhancementOutputProgressed: received an event")
	}
}

// Close stops the background goroutines. It does not close the input or
// the enhancer.
func (s *EnhancementStream) Close() error {
	s.cancelFunc()
	return nil
}
