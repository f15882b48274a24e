package spectrum

import (
	"fmt"
)

// Chunk is a context-padded group of consecutive spectra: LeftContext frames,
// then the centre frames, then RightContext frames.
type Chunk struct {
	LeftContext  int
	CenterFrames int
	RightContext int

	// Valid is the number of centre frames carrying real input; it is less
	// than CenterFrames only for the last chunk of a flushed stream.
	Valid int

	Frames []Spectrum
}

func NewChunk(lctx, chunk, rctx, fftSize int) *Chunk {
	c := &Chunk{
		LeftContext:  lctx,
		CenterFrames: chunk,
		RightContext: rctx,
		Frames:       make([]Spectrum, lctx+chunk+rctx),
	}
	for i := range c.Frames {
		c.Frames[i] = New(fftSize)
	}
	return c
}

func (c *Chunk) Len() int {
	return len(c.Frames)
}

// Center returns the centre frames, without copying.
func (c *Chunk) Center() []Spectrum {
	return c.Frames[c.LeftContext : c.LeftContext+c.CenterFrames]
}

func (c *Chunk) Bins() int {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[0].Bins()
}

func (c *Chunk) String() string {
	return fmt.Sprintf("Chunk{lctx: %d, chunk: %d, rctx: %d, valid: %d}", c.LeftContext, c.CenterFrames, c.RightContext, c.Valid)
}
