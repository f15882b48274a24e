// Package onnx implements a Model backed by an ONNX network which predicts a
// real-valued mask of shape [1, chunk, bins] from features of shape
// [1, frames, featureDim].
//
// Requires build tag 'onnxruntime' and the ONNX Runtime shared library.
package onnx

import (
	"fmt"
)

type Config struct {
	ModelPath         string `yaml:"model_path"`
	SharedLibraryPath string `yaml:"shared_library_path"`

	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`

	// Frames is lctx+chunk+rctx.
	Frames       int `yaml:"frames"`
	FeatureDim   int `yaml:"feature_dim"`
	CenterFrames int `yaml:"center_frames"`
	Bins         int `yaml:"bins"`
}

func DefaultConfig() Config {
	return Config{
		InputName:  "features",
		OutputName: "mask",
	}
}

func (cfg Config) validate() error {
	if cfg.ModelPath == "" {
		return fmt.Errorf("the model path is not set")
	}
	if cfg.InputName == "" || cfg.OutputName == "" {
		return fmt.Errorf("the input and output names must be set")
	}
	if cfg.Frames < 1 || cfg.FeatureDim < 1 || cfg.CenterFrames < 1 || cfg.Bins < 1 {
		return fmt.Errorf("invalid tensor dimensions: frames=%d, featureDim=%d, centerFrames=%d, bins=%d", cfg.Frames, cfg.FeatureDim, cfg.CenterFrames, cfg.Bins)
	}
	if cfg.CenterFrames > cfg.Frames {
		return fmt.Errorf("centre frames (%d) exceed the total frames (%d)", cfg.CenterFrames, cfg.Frames)
	}
	return nil
}
