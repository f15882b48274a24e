// Package config is the YAML configuration of the enhancement pipeline and
// of its model.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/enhancement/implementations/logmel"
	"github.com/xaionaro-go/speechenhance/pkg/enhancement/implementations/onnx"
	"github.com/xaionaro-go/speechenhance/pkg/enhancement/implementations/spectralgate"
	"github.com/xaionaro-go/speechenhance/pkg/enhancer"
)

type ModelType string

const (
	ModelTypeIdentity     = ModelType("identity")
	ModelTypeSpectralGate = ModelType("spectralgate")
	ModelTypeONNX         = ModelType("onnx")
)

func ParseModelType(s string) (ModelType, error) {
	switch t := ModelType(strings.ToLower(strings.TrimSpace(s))); t {
	case ModelTypeIdentity, ModelTypeSpectralGate, ModelTypeONNX:
		return t, nil
	}
	return "", fmt.Errorf("unknown model type '%s'", s)
}

type Model struct {
	Type         ModelType           `yaml:"type"`
	LogMel       logmel.Config       `yaml:"logmel"`
	SpectralGate spectralgate.Config `yaml:"spectralgate"`
	ONNX         onnx.Config         `yaml:"onnx"`
}

type Stream struct {
	// BlockSize is in samples, buffer sizes are in bytes.
	BlockSize        uint `yaml:"block_size"`
	InputBufferSize  uint `yaml:"input_buffer_size"`
	OutputBufferSize uint `yaml:"output_buffer_size"`
}

type Config struct {
	Enhancer enhancer.Options `yaml:"enhancer"`
	Model    Model            `yaml:"model"`
	Stream   Stream           `yaml:"stream"`
}

func Default() Config {
	return Config{
		Enhancer: enhancer.DefaultOptions(),
		Model: Model{
			Type:         ModelTypeIdentity,
			LogMel:       logmel.DefaultConfig(),
			SpectralGate: spectralgate.DefaultConfig(),
			ONNX:         onnx.DefaultConfig(),
		},
		Stream: Stream{
			BlockSize:        1600,
			InputBufferSize:  1 << 16,
			OutputBufferSize: 1 << 16,
		},
	}
}

// Parse reads the YAML from r on top of Default(). Unknown keys are errors.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("unable to parse the config: %w", err)
	}
	return cfg, nil
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("unable to load '%s': %w", path, err)
	}
	return cfg, nil
}

func (cfg Config) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("unable to serialize the config: %w", err)
	}
	return encoder.Close()
}

// NewModel builds the feature transform and the model described by
// cfg.Model; the shape parameters are taken from cfg.Enhancer.
func (cfg Config) NewModel(
	ctx context.Context,
) (enhancement.FeatureTransform, enhancement.Model, error) {
	opts := cfg.Enhancer
	fftSize := opts.ResolvedFFTSize()

	switch cfg.Model.Type {
	case ModelTypeIdentity, "":
		return enhancement.NoFeatures{}, enhancement.NewIdentity(), nil
	case ModelTypeSpectralGate:
		model, err := spectralgate.New(cfg.Model.SpectralGate)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to initialize the spectral gate: %w", err)
		}
		return enhancement.NoFeatures{}, model, nil
	case ModelTypeONNX:
		featuresCfg := cfg.Model.LogMel
		featuresCfg.SampleRate = int(opts.SampleRate)
		featuresCfg.FFTSize = fftSize
		features, err := logmel.New(featuresCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to initialize the feature transform: %w", err)
		}

		modelCfg := cfg.Model.ONNX
		modelCfg.Frames = opts.LeftContext + opts.Chunk + opts.RightContext
		modelCfg.CenterFrames = opts.Chunk
		modelCfg.FeatureDim = features.FeatureDim()
		modelCfg.Bins = fftSize/2 + 1
		model, err := onnx.New(ctx, modelCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to initialize the ONNX model: %w", err)
		}
		return features, model, nil
	}
	return nil, nil, fmt.Errorf("unknown model type '%s'", cfg.Model.Type)
}

// NewEnhancer builds the pipeline with the configured model.
func (cfg Config) NewEnhancer(ctx context.Context) (*enhancer.TimeFrequencyNet, error) {
	features, model, err := cfg.NewModel(ctx)
	if err != nil {
		return nil, err
	}
	enh, err := enhancer.New(ctx, cfg.Enhancer, features, model)
	if err != nil {
		if closer, ok := model.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil, err
	}
	return enh, nil
}
