//go:build onnxruntime
// +build onnxruntime

package onnx

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

type Model struct {
	Config

	locker      sync.Mutex
	session     *ort.AdvancedSession
	input       *ort.Tensor[float32]
	mask        *ort.Tensor[float32]
	output      []spectrum.Spectrum
	ownsRuntime bool
}

var _ enhancement.Model = (*Model)(nil)

func New(
	ctx context.Context,
	cfg Config,
) (_ret *Model, _err error) {
	logger.Debugf(ctx, "onnx.New(%#+v)", cfg)
	defer func() { logger.Debugf(ctx, "/onnx.New(%#+v): %v", cfg, _err) }()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("unable to access the model '%s': %w", cfg.ModelPath, err)
	}

	m := &Model{Config: cfg}
	if !ort.IsInitialized() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("unable to initialize the ONNX runtime environment: %w", err)
		}
		m.ownsRuntime = true
	}

	if err := m.init(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *Model) init() error {
	var err error
	m.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.Frames), int64(m.FeatureDim)))
	if err != nil {
		return fmt.Errorf("unable to create the input tensor: %w", err)
	}
	m.mask, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.CenterFrames), int64(m.Bins)))
	if err != nil {
		return fmt.Errorf("unable to create the mask tensor: %w", err)
	}
	m.session, err = ort.NewAdvancedSession(
		m.ModelPath,
		[]string{m.InputName},
		[]string{m.OutputName},
		[]ort.Value{m.input},
		[]ort.Value{m.mask},
		nil,
	)
	if err != nil {
		return fmt.Errorf("unable to create a session for '%s': %w", m.ModelPath, err)
	}

	m.output = make([]spectrum.Spectrum, m.CenterFrames)
	for i := range m.output {
		m.output[i] = make(spectrum.Spectrum, 2*m.Bins)
	}
	return nil
}

// Enhance runs the network on the features and multiplies the resulting
// mask into the centre spectra. The returned spectra are reused by the next
// call.
func (m *Model) Enhance(
	ctx context.Context,
	chunk *spectrum.Chunk,
	features *enhancement.Features,
) (_ret []spectrum.Spectrum, _err error) {
	logger.Tracef(ctx, "Enhance")
	defer func() { logger.Tracef(ctx, "/Enhance: %v", _err) }()

	m.locker.Lock()
	defer m.locker.Unlock()
	if m.session == nil {
		return nil, fmt.Errorf("the model is closed")
	}

	if features == nil {
		return nil, fmt.Errorf("the model requires features")
	}
	input := m.input.GetData()
	if len(features.Data) != len(input) {
		return nil, fmt.Errorf("expected %d feature values (shape [%d %d]), received %d (shape %v)", len(input), m.Frames, m.FeatureDim, len(features.Data), features.Shape)
	}
	if chunk.CenterFrames != m.CenterFrames || chunk.Bins() != m.Bins {
		return nil, fmt.Errorf("the model is built for %d frames of %d bins, but received %d frames of %d bins", m.CenterFrames, m.Bins, chunk.CenterFrames, chunk.Bins())
	}
	copy(input, features.Data)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("unable to run the model: %w", err)
	}

	mask := m.mask.GetData()
	for i, src := range chunk.Center() {
		dst := m.output[i]
		copy(dst, src)
		gains := mask[i*m.Bins : (i+1)*m.Bins]
		for k, g := range gains {
			dst.Scale(k, g)
		}
	}
	return m.output, nil
}

func (m *Model) Close() error {
	m.locker.Lock()
	defer m.locker.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if m.mask != nil {
		m.mask.Destroy()
		m.mask = nil
	}
	if m.ownsRuntime {
		m.ownsRuntime = false
		if err := ort.DestroyEnvironment(); err != nil {
			return fmt.Errorf("unable to destroy the ONNX runtime environment: %w", err)
		}
	}
	return nil
}
