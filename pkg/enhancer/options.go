package enhancer

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
	"github.com/xaionaro-go/speechenhance/pkg/fft"
	"github.com/xaionaro-go/speechenhance/pkg/window"
)

type Options struct {
	FrameLen int `yaml:"frame_len"`
	FrameHop int `yaml:"frame_hop"`

	// FFTSize zero means the smallest power of two not less than FrameLen.
	FFTSize int         `yaml:"fft_size"`
	Window  window.Type `yaml:"window"`

	LeftContext  int `yaml:"lctx"`
	RightContext int `yaml:"rctx"`
	Chunk        int `yaml:"chunk"`

	SampleRate audio.SampleRate `yaml:"sample_rate"`

	// FFTBackend is a name from fft/registry; empty means the default one.
	FFTBackend string `yaml:"fft_backend"`

	// PadTail makes Flush zero-pad the trailing samples not covered by any
	// frame, so that the whole input is resynthesised.
	PadTail bool `yaml:"pad_tail"`
}

func DefaultOptions() Options {
	return Options{
		FrameLen:     400,
		FrameHop:     160,
		Window:       window.TypeHann,
		LeftContext:  0,
		RightContext: 0,
		Chunk:        1,
		SampleRate:   16000,
		PadTail:      true,
	}
}

// ResolvedFFTSize returns the FFT size to be used.
func (opts Options) ResolvedFFTSize() int {
	if opts.FFTSize == 0 {
		return fft.NextPowerOfTwo(opts.FrameLen)
	}
	return opts.FFTSize
}

// Validate returns all problems found in the options at once, matching
// ErrConfig.
func (opts Options) Validate() error {
	var mErr *multierror.Error
	if opts.FrameLen < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("frame_len must be positive, got %d", opts.FrameLen))
	}
	if opts.FrameHop < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("frame_hop must be positive, got %d", opts.FrameHop))
	}
	if opts.FrameHop > opts.FrameLen {
		mErr = multierror.Append(mErr, fmt.Errorf("frame_hop (%d) must not exceed frame_len (%d)", opts.FrameHop, opts.FrameLen))
	}
	if opts.FFTSize != 0 {
		if opts.FFTSize < 2 || !fft.IsPowerOfTwo(opts.FFTSize) {
			mErr = multierror.Append(mErr, fmt.Errorf("fft_size must be a power of two >= 2, got %d", opts.FFTSize))
		}
		if opts.FFTSize < opts.FrameLen {
			mErr = multierror.Append(mErr, fmt.Errorf("fft_size (%d) must not be less than frame_len (%d)", opts.FFTSize, opts.FrameLen))
		}
	}
	if _, err := window.ParseType(string(opts.Window)); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if opts.LeftContext < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("lctx must be non-negative, got %d", opts.LeftContext))
	}
	if opts.RightContext < 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("rctx must be non-negative, got %d", opts.RightContext))
	}
	if opts.Chunk < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("chunk must be positive, got %d", opts.Chunk))
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// Latency returns the algorithmic delay in samples: the frame overlap plus
// the right context.
func (opts Options) Latency() int {
	return opts.FrameLen - opts.FrameHop + opts.RightContext*opts.FrameHop
}
