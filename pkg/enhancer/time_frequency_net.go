// Package enhancer implements the streaming speech enhancement pipeline:
// framing, STFT, context chunking, feature transform and model, and
// overlap-add resynthesis.
package enhancer

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/contextbuffer"
	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/fft/registry"
	"github.com/xaionaro-go/speechenhance/pkg/frame"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
	"github.com/xaionaro-go/speechenhance/pkg/stft"

	_ "github.com/xaionaro-go/speechenhance/pkg/fft/implementations/fourier"
	_ "github.com/xaionaro-go/speechenhance/pkg/fft/implementations/godsp"
	_ "github.com/xaionaro-go/speechenhance/pkg/fft/implementations/gonum"
	_ "github.com/xaionaro-go/speechenhance/pkg/fft/implementations/radix2"
)

type Stats struct {
	SamplesIn  uint64
	SamplesOut uint64
	Frames     uint64
	Chunks     uint64
}

// TimeFrequencyNet is the pipeline controller. It is not safe for
// concurrent use.
type TimeFrequencyNet struct {
	Options          Options
	FeatureTransform enhancement.FeatureTransform
	Model            enhancement.Model

	frames   *frame.Buffer
	stft     *stft.STFT
	contexts *contextbuffer.Buffer
	istft    *stft.ISTFT

	phase    Phase
	stats    Stats
	frameBuf []float32
	spec     spectrum.Spectrum
	chunk    *spectrum.Chunk
}

var _ audio.AbstractAnalyzer = (*TimeFrequencyNet)(nil)

func New(
	ctx context.Context,
	opts Options,
	featureTransform enhancement.FeatureTransform,
	model enhancement.Model,
) (_ret *TimeFrequencyNet, _err error) {
	logger.Debugf(ctx, "enhancer.New(%#+v)", opts)
	defer func() { logger.Debugf(ctx, "/enhancer.New(%#+v): %v", opts, _err) }()

	if model == nil {
		return nil, fmt.Errorf("%w: the model is not set", ErrConfig)
	}
	if featureTransform == nil {
		featureTransform = enhancement.NoFeatures{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	fftSize := opts.ResolvedFFTSize()
	opts.FFTSize = fftSize

	fftImpl, err := registry.NewRealFFT(opts.FFTBackend, fftSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	win, err := opts.Window.Periodic(opts.FrameLen)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to build the window: %w", ErrConfig, err)
	}

	n := &TimeFrequencyNet{
		Options:          opts,
		FeatureTransform: featureTransform,
		Model:            model,
		frameBuf:         make([]float32, opts.FrameLen),
		spec:             spectrum.New(fftSize),
	}
	if n.frames, err = frame.New(opts.FrameLen, opts.FrameHop); err != nil {
		return nil, fmt.Errorf("%w: unable to initialize the frame buffer: %w", ErrConfig, err)
	}
	n.frames.PadTail = opts.PadTail
	if n.stft, err = stft.NewSTFT(fftImpl, win); err != nil {
		return nil, fmt.Errorf("%w: unable to initialize the STFT: %w", ErrConfig, err)
	}
	if n.contexts, err = contextbuffer.New(opts.LeftContext, opts.RightContext, opts.Chunk, len(n.spec)); err != nil {
		return nil, fmt.Errorf("%w: unable to initialize the context buffer: %w", ErrConfig, err)
	}
	if n.istft, err = stft.NewISTFT(fftImpl, win, win, opts.FrameHop); err != nil {
		return nil, fmt.Errorf("%w: unable to initialize the inverse STFT: %w", ErrConfig, err)
	}
	n.chunk = n.contexts.NewChunk()
	logger.Debugf(ctx, "FFT size: %d; COLA: %v; latency: %d samples", fftSize, n.istft.IsCOLA(), n.Latency())
	return n, nil
}

// Process consumes a block of samples and returns the samples finalised so
// far.
func (n *TimeFrequencyNet) Process(
	ctx context.Context,
	in []float32,
) ([]float32, error) {
	return n.ProcessAppend(ctx, nil, in)
}

// ProcessAppend is Process appending the result to dst.
func (n *TimeFrequencyNet) ProcessAppend(
	ctx context.Context,
	dst []float32,
	in []float32,
) (_ret []float32, _err error) {
	logger.Tracef(ctx, "ProcessAppend: %d samples", len(in))
	defer func() { logger.Tracef(ctx, "/ProcessAppend: %d samples: %v", len(_ret), _err) }()

	if n.phase != PhaseRunning {
		return dst, fmt.Errorf("%w: unable to process samples in phase '%s', Reset is required", ErrInvalidPhase, n.phase)
	}
	if err := n.frames.Process(in); err != nil {
		return dst, fmt.Errorf("unable to push samples into the frame buffer: %w", err)
	}
	n.stats.SamplesIn += uint64(len(in))

	start := len(dst)
	dst, err := n.drainFrames(ctx, dst)
	n.stats.SamplesOut += uint64(len(dst) - start)
	return dst, err
}

func (n *TimeFrequencyNet) drainFrames(
	ctx context.Context,
	dst []float32,
) ([]float32, error) {
	for n.frames.Len() > 0 {
		n.frames.PopTo(n.frameBuf)
		n.stft.Transform(n.spec, n.frameBuf)
		if err := n.contexts.Process(n.spec); err != nil {
			return dst, fmt.Errorf("unable to push a spectrum into the context buffer: %w", err)
		}
		n.stats.Frames++

		var err error
		dst, err = n.drainChunks(ctx, dst)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func (n *TimeFrequencyNet) drainChunks(
	ctx context.Context,
	dst []float32,
) ([]float32, error) {
	for n.contexts.Len() > 0 {
		n.contexts.PopTo(n.chunk)
		n.stats.Chunks++

		enhanced, err := n.enhance(ctx, n.chunk)
		if err != nil {
			return dst, err
		}
		for _, s := range enhanced[:n.chunk.Valid] {
			dst = n.istft.ProcessAppend(dst, s)
		}
	}
	return dst, nil
}

func (n *TimeFrequencyNet) enhance(
	ctx context.Context,
	chunk *spectrum.Chunk,
) ([]spectrum.Spectrum, error) {
	features, err := n.FeatureTransform.Transform(ctx, chunk)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	enhanced, err := n.Model.Enhance(ctx, chunk, features)
	if err != nil {
		return nil, &ModelError{Err: err}
	}
	if len(enhanced) != chunk.CenterFrames {
		return nil, &ShapeError{What: "frames", Expected: chunk.CenterFrames, Received: len(enhanced)}
	}
	bins := chunk.Bins()
	for _, s := range enhanced {
		if s.Bins() != bins || len(s)%2 != 0 {
			return nil, &ShapeError{What: "bins", Expected: bins, Received: s.Bins()}
		}
	}
	return enhanced, nil
}

// Flush marks the end of the stream, drains every stage and returns the
// remaining samples. Afterwards only Reset is valid.
func (n *TimeFrequencyNet) Flush(ctx context.Context) ([]float32, error) {
	return n.FlushAppend(ctx, nil)
}

// FlushAppend is Flush appending the result to dst.
func (n *TimeFrequencyNet) FlushAppend(
	ctx context.Context,
	dst []float32,
) (_ret []float32, _err error) {
	logger.Tracef(ctx, "FlushAppend")
	defer func() { logger.Tracef(ctx, "/FlushAppend: %d samples: %v", len(_ret), _err) }()

	if n.phase == PhaseFlushed {
		return dst, fmt.Errorf("%w: already flushed, Reset is required", ErrInvalidPhase)
	}
	n.phase = PhaseFlushing

	start := len(dst)
	limit := n.stats.SamplesIn - n.stats.SamplesOut
	defer func() {
		if produced := uint64(len(_ret) - start); produced > limit {
			_ret = _ret[:start+int(limit)]
		}
		n.stats.SamplesOut += uint64(len(_ret) - start)
	}()

	n.frames.SetDone()
	dst, err := n.drainFrames(ctx, dst)
	if err != nil {
		return dst, err
	}
	n.contexts.SetDone()
	dst, err = n.drainChunks(ctx, dst)
	if err != nil {
		return dst, err
	}

	remaining := int(limit) - (len(dst) - start)
	dst = n.istft.FlushAppend(dst, remaining)
	n.phase = PhaseFlushed
	return dst, nil
}

// Reset drops all the buffered state; the controller becomes as new.
func (n *TimeFrequencyNet) Reset() {
	n.frames.Reset()
	n.contexts.Reset()
	n.istft.Reset()
	n.phase = PhaseRunning
	n.stats = Stats{}
}

func (n *TimeFrequencyNet) Phase() Phase {
	return n.phase
}

func (n *TimeFrequencyNet) Stats() Stats {
	return n.stats
}

// Latency returns the algorithmic delay in samples.
func (n *TimeFrequencyNet) Latency() int {
	return n.Options.Latency()
}

func (n *TimeFrequencyNet) Encoding(context.Context) (audio.Encoding, error) {
	return audio.EncodingPCM{
		PCMFormat:  audio.PCMFormatFloat32Native(),
		SampleRate: n.Options.SampleRate,
	}, nil
}

func (n *TimeFrequencyNet) Channels(context.Context) (audio.Channel, error) {
	return 1, nil
}

// Close releases the model and the feature transform if they are closable.
func (n *TimeFrequencyNet) Close() error {
	var mErr *multierror.Error
	if closer, ok := n.Model.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the model: %w", err))
		}
	}
	if closer, ok := n.FeatureTransform.(io.Closer); ok && !isSameObject(n.FeatureTransform, n.Model) {
		if err := closer.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to close the feature transform: %w", err))
		}
	}
	return mErr.ErrorOrNil()
}

func isSameObject(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Ptr || vb.Kind() != reflect.Ptr {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
