package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/enhancement/implementations/spectralgate"
	"github.com/xaionaro-go/speechenhance/pkg/enhancer"
	"github.com/xaionaro-go/speechenhance/pkg/window"
)

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
enhancer:
  frame_len: 320
  frame_hop: 160
  window: sqrthann
  lctx: 2
  rctx: 1
  chunk: 4
  fft_backend: gonum
model:
  type: spectralgate
  spectralgate:
    gain_floor: 0.05
`))
	require.NoError(t, err)
	require.Equal(t, 320, cfg.Enhancer.FrameLen)
	require.Equal(t, window.TypeSqrtHann, cfg.Enhancer.Window)
	require.Equal(t, 512, cfg.Enhancer.ResolvedFFTSize())
	require.Equal(t, "gonum", cfg.Enhancer.FFTBackend)
	require.True(t, cfg.Enhancer.PadTail, "defaults must survive")
	require.Equal(t, ModelTypeSpectralGate, cfg.Model.Type)
	require.Equal(t, 0.05, cfg.Model.SpectralGate.GainFloor)
	require.Equal(t, spectralgate.DefaultConfig().NoiseQuantile, cfg.Model.SpectralGate.NoiseQuantile)

	_, err = Parse(strings.NewReader("enhancer:\n  frame_length: 3\n"))
	require.Error(t, err)

	cfg, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Enhancer.Chunk = 8
	cfg.Model.Type = ModelTypeONNX
	cfg.Model.ONNX.ModelPath = "/models/mask.onnx"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewEnhancer(t *testing.T) {
	ctx := context.Background()

	cfg := Default()
	enh, err := cfg.NewEnhancer(ctx)
	require.NoError(t, err)
	require.IsType(t, &enhancement.Identity{}, enh.Model)

	cfg.Model.Type = ModelTypeSpectralGate
	enh, err = cfg.NewEnhancer(ctx)
	require.NoError(t, err)
	require.IsType(t, &spectralgate.Model{}, enh.Model)

	cfg.Model.Type = ModelTypeONNX
	cfg.Model.ONNX.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	_, err = cfg.NewEnhancer(ctx)
	require.Error(t, err)

	cfg = Default()
	cfg.Enhancer.FrameHop = 0
	_, err = cfg.NewEnhancer(ctx)
	require.ErrorIs(t, err, enhancer.ErrConfig)

	cfg = Default()
	cfg.Model.Type = "magic"
	_, err = cfg.NewEnhancer(ctx)
	require.Error(t, err)
}

func TestParseModelType(t *testing.T) {
	for _, s := range []string{"identity", "SpectralGate", " onnx "} {
		_, err := ParseModelType(s)
		require.NoError(t, err)
	}
	_, err := ParseModelType("wiener")
	require.Error(t, err)
}
