// Package frame slices a stream of samples into fixed-size overlapping
// frames.
package frame

import (
	"errors"
	"fmt"
)

var ErrDone = errors.New("the frame buffer is already marked as done")

// Buffer turns appended samples into frames of frameLen samples, frame i
// starting at sample i*frameHop of the stream.
type Buffer struct {
	// PadTail enables emitting one trailing zero-padded frame on SetDone if
	// some samples are not covered by any frame.
	PadTail bool

	frameLen int
	frameHop int

	samples []float32
	start   int
	done    bool
	padding int
	emitted uint64
}

func New(frameLen, frameHop int) (*Buffer, error) {
	if frameLen < 1 {
		return nil, fmt.Errorf("frame length must be positive, got %d", frameLen)
	}
	if frameHop < 1 || frameHop > frameLen {
		return nil, fmt.Errorf("frame hop must be within [1, %d], got %d", frameLen, frameHop)
	}
	return &Buffer{
		PadTail:  true,
		frameLen: frameLen,
		frameHop: frameHop,
		samples:  make([]float32, 0, 2*frameLen),
	}, nil
}

func (b *Buffer) FrameLen() int {
	return b.frameLen
}

func (b *Buffer) FrameHop() int {
	return b.frameHop
}

// Process appends samples to the tail.
func (b *Buffer) Process(samples []float32) error {
	if b.done {
		return ErrDone
	}
	if len(samples) == 0 {
		return nil
	}
	b.compact()
	b.samples = append(b.samples, samples...)
	return nil
}

func (b *Buffer) compact() {
	if b.start == 0 {
		return
	}
	n := copy(b.samples, b.samples[b.start:])
	b.samples = b.samples[:n]
	b.start = 0
}

// Len returns the amount of frames ready to be popped.
func (b *Buffer) Len() int {
	available := len(b.samples) - b.start
	if available < b.frameLen {
		return 0
	}
	return (available-b.frameLen)/b.frameHop + 1
}

// Pop returns a copy of the oldest ready frame.
func (b *Buffer) Pop() []float32 {
	frame := make([]float32, b.frameLen)
	b.PopTo(frame)
	return frame
}

// PopTo copies the oldest ready frame into dst, which must have exactly
// FrameLen samples.
func (b *Buffer) PopTo(dst []float32) {
	if len(dst) != b.frameLen {
		panic(fmt.Errorf("destination length %d does not match the frame length %d", len(dst), b.frameLen))
	}
	if b.Len() == 0 {
		panic("pop from an empty frame buffer")
	}
	copy(dst, b.samples[b.start:b.start+b.frameLen])
	b.start += b.frameHop
	b.emitted++
}

// SetDone marks the end of the stream. If PadTail is set and the tail holds
// samples not covered by any frame, the tail is zero-padded so that exactly
// one more frame becomes ready. Calling it again does nothing.
func (b *Buffer) SetDone() {
	if b.done {
		return
	}
	b.done = true
	if !b.PadTail {
		return
	}

	ready := b.Len()
	nextStart := b.start + ready*b.frameHop
	remaining := len(b.samples) - nextStart
	uncovered := remaining
	if b.emitted > 0 || ready > 0 {
		uncovered = remaining - (b.frameLen - b.frameHop)
	}
	if uncovered < 1 {
		return
	}

	b.padding = b.frameLen - remaining
	b.compact()
	for i := 0; i < b.padding; i++ {
		b.samples = append(b.samples, 0)
	}
}

func (b *Buffer) IsDone() bool {
	return b.Len() == 0
}

func (b *Buffer) Done() bool {
	return b.done
}

// Padding returns the amount of zero samples appended by SetDone.
func (b *Buffer) Padding() int {
	return b.padding
}

// Emitted returns the amount of frames popped since the last Reset.
func (b *Buffer) Emitted() uint64 {
	return b.emitted
}

// Buffered returns the amount of samples held, including the samples of the
// ready frames and the padding.
func (b *Buffer) Buffered() int {
	return len(b.samples) - b.start
}

func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
	b.start = 0
	b.done = false
	b.padding = 0
	b.emitted = 0
}
