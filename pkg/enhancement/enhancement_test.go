package enhancement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

func TestFeatures(t *testing.T) {
	f := NewFeatures(3, 4)
	require.Equal(t, 12, f.Size())
	require.Len(t, f.Data, 12)
	f.Row(1)[0] = 5
	require.Equal(t, float32(5), f.Data[4])
	require.Equal(t, "Features[3 4]", f.String())

	require.Zero(t, (&Features{}).Size())
	require.Panics(t, func() { (&Features{}).Row(0) })
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()
	chunk := spectrum.NewChunk(1, 2, 1, 4)
	for i, frame := range chunk.Frames {
		frame[0] = float32(i)
	}

	features, err := NoFeatures{}.Transform(ctx, chunk)
	require.NoError(t, err)
	require.Nil(t, features)

	id := NewIdentity()
	out, err := id.Enhance(ctx, chunk, features)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, float32(1), out[0][0])
	require.Equal(t, float32(2), out[1][0])

	out[0][0] = 100
	require.Equal(t, float32(1), chunk.Frames[1][0], "the result must not alias the chunk")
}
