// Package contextbuffer groups successive frames into chunks padded with
// left and right context frames.
package contextbuffer

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

var ErrDone = errors.New("the context buffer is already marked as done")

type Buffer struct {
	lctx  int
	rctx  int
	chunk int
	dim   int

	// ring of frames; the first frame of the stream is replicated lctx
	// times in front of it.
	slots   [][]float32
	head    int
	count   int
	started bool
	done    bool

	pushed  uint64
	emitted uint64
}

func New(lctx, rctx, chunk, dim int) (*Buffer, error) {
	if lctx < 0 || rctx < 0 {
		return nil, fmt.Errorf("contexts must be non-negative, got lctx=%d, rctx=%d", lctx, rctx)
	}
	if chunk < 1 {
		return nil, fmt.Errorf("chunk must be positive, got %d", chunk)
	}
	if dim < 1 {
		return nil, fmt.Errorf("frame dimension must be positive, got %d", dim)
	}
	b := &Buffer{
		lctx:  lctx,
		rctx:  rctx,
		chunk: chunk,
		dim:   dim,
	}
	b.grow(lctx + chunk + rctx + chunk)
	return b, nil
}

// Width returns lctx+chunk+rctx: the amount of frames in an emitted chunk.
func (b *Buffer) Width() int {
	return b.lctx + b.chunk + b.rctx
}

func (b *Buffer) Dim() int {
	return b.dim
}

// NewChunk allocates a chunk suitable for PopTo.
func (b *Buffer) NewChunk() *spectrum.Chunk {
	c := &spectrum.Chunk{
		LeftContext:  b.lctx,
		CenterFrames: b.chunk,
		RightContext: b.rctx,
		Frames:       make([]spectrum.Spectrum, b.Width()),
	}
	for i := range c.Frames {
		c.Frames[i] = make(spectrum.Spectrum, b.dim)
	}
	return c
}

func (b *Buffer) grow(capacity int) {
	if capacity <= len(b.slots) {
		return
	}
	slots := make([][]float32, capacity)
	for i := 0; i < b.count; i++ {
		slots[i] = b.slots[(b.head+i)%len(b.slots)]
	}
	for i := b.count; i < capacity; i++ {
		slots[i] = make([]float32, b.dim)
	}
	b.slots = slots
	b.head = 0
}

func (b *Buffer) push(frame []float32) {
	if b.count == len(b.slots) {
		b.grow(2 * len(b.slots))
	}
	copy(b.slots[(b.head+b.count)%len(b.slots)], frame)
	b.count++
}

// Process appends one frame (its contents are copied).
func (b *Buffer) Process(frame []float32) error {
	if len(frame) != b.dim {
		panic(fmt.Errorf("frame dimension %d does not match %d", len(frame), b.dim))
	}
	if b.done {
		return ErrDone
	}
	if !b.started {
		b.started = true
		for i := 0; i < b.lctx; i++ {
			b.push(frame)
		}
	}
	b.push(frame)
	b.pushed++
	return nil
}

// Len returns the amount of chunks ready to be popped.
func (b *Buffer) Len() int {
	if b.done {
		remaining := b.count - b.lctx
		if remaining <= 0 {
			return 0
		}
		return (remaining + b.chunk - 1) / b.chunk
	}
	width := b.Width()
	if b.count < width {
		return 0
	}
	return (b.count-width)/b.chunk + 1
}

func (b *Buffer) Pop() *spectrum.Chunk {
	c := b.NewChunk()
	b.PopTo(c)
	return c
}

// PopTo copies the oldest ready chunk into c. After SetDone, frames missing
// at the end of the stream are zeros and c.Valid tells the amount of centre
// frames carrying real input.
func (b *Buffer) PopTo(c *spectrum.Chunk) {
	if b.Len() == 0 {
		panic("pop from an empty context buffer")
	}
	if len(c.Frames) != b.Width() {
		panic(fmt.Errorf("chunk length %d does not match %d", len(c.Frames), b.Width()))
	}
	c.LeftContext, c.CenterFrames, c.RightContext = b.lctx, b.chunk, b.rctx

	available := min(b.count, b.Width())
	for i, dst := range c.Frames {
		if len(dst) != b.dim {
			panic(fmt.Errorf("chunk frame dimension %d does not match %d", len(dst), b.dim))
		}
		if i < available {
			copy(dst, b.slots[(b.head+i)%len(b.slots)])
			continue
		}
		for j := range dst {
			dst[j] = 0
		}
	}
	c.Valid = min(b.chunk, b.count-b.lctx)

	advance := min(b.chunk, b.count)
	b.head = (b.head + advance) % len(b.slots)
	b.count -= advance
	b.emitted++
}

// SetDone marks the end of the stream: the remaining frames become
// poppable as zero-padded chunks. Calling it again does nothing.
func (b *Buffer) SetDone() {
	b.done = true
}

func (b *Buffer) IsDone() bool {
	return b.Len() == 0
}

func (b *Buffer) Done() bool {
	return b.done
}

// Pushed returns the amount of frames processed since the last Reset.
func (b *Buffer) Pushed() uint64 {
	return b.pushed
}

// Emitted returns the amount of chunks popped since the last Reset.
func (b *Buffer) Emitted() uint64 {
	return b.emitted
}

// Buffered returns the amount of frames held, including the replicated left
// context.
func (b *Buffer) Buffered() int {
	return b.count
}

func (b *Buffer) Reset() {
	b.head = 0
	b.count = 0
	b.started = false
	b.done = false
	b.pushed = 0
	b.emitted = 0
}
