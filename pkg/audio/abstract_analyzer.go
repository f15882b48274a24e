package audio

import (
	"context"
	"io"
)

// AbstractAnalyzer is the common part of every component that consumes
// PCM audio of a fixed encoding and channel count.
type AbstractAnalyzer interface {
	io.Closer

	Encoding(context.Context) (Encoding, error)
	Channels(context.Context) (Channel, error)
}
