// Package logmel implements a FeatureTransform computing log power (or log
// mel filterbank energy) features of every frame of a padded chunk.
package logmel

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

const (
	// LogFloor bounds energies before taking the logarithm.
	LogFloor = 1e-10
)

type Config struct {
	SampleRate int `yaml:"sample_rate"`
	FFTSize    int `yaml:"fft_size"`

	// NumMels is the amount of mel filters; zero means the log power of
	// every bin is used directly.
	NumMels  int     `yaml:"num_mels"`
	LowFreq  float64 `yaml:"low_freq"`
	HighFreq float64 `yaml:"high_freq"`

	// Normalize subtracts the per-feature mean and divides by the standard
	// deviation across the frames of the chunk.
	Normalize bool `yaml:"normalize"`
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		FFTSize:    512,
		NumMels:    80,
		LowFreq:    20,
		HighFreq:   7600,
	}
}

type filter struct {
	firstBin int
	weights  []float64
}

type Transform struct {
	Config
	filters []filter

	features *enhancement.Features
	power    []float64
	column   []float64
}

var _ enhancement.FeatureTransform = (*Transform)(nil)

func New(cfg Config) (*Transform, error) {
	if cfg.FFTSize < 2 {
		return nil, fmt.Errorf("invalid FFT size %d", cfg.FFTSize)
	}
	if cfg.NumMels < 0 {
		return nil, fmt.Errorf("invalid amount of mel filters %d", cfg.NumMels)
	}
	t := &Transform{
		Config: cfg,
		power:  make([]float64, cfg.FFTSize/2+1),
	}
	if cfg.NumMels > 0 {
		if cfg.SampleRate <= 0 {
			return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
		}
		if cfg.LowFreq < 0 || cfg.HighFreq <= cfg.LowFreq || cfg.HighFreq > float64(cfg.SampleRate)/2 {
			return nil, fmt.Errorf("invalid frequency range [%f, %f] for sample rate %d", cfg.LowFreq, cfg.HighFreq, cfg.SampleRate)
		}
		t.filters = melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	}
	return t, nil
}

// FeatureDim returns the size of the feature vector of one frame.
func (t *Transform) FeatureDim() int {
	if t.NumMels > 0 {
		return t.NumMels
	}
	return t.FFTSize/2 + 1
}

// Transform returns features of shape [chunk.Len(), FeatureDim()]. The
// returned tensor is reused by the next call.
func (t *Transform) Transform(
	ctx context.Context,
	chunk *spectrum.Chunk,
) (*enhancement.Features, error) {
	if chunk.Bins() != len(t.power) {
		return nil, fmt.Errorf("the chunk has %d bins, but %d were expected", chunk.Bins(), len(t.power))
	}

	dim := t.FeatureDim()
	if t.features == nil || t.features.Shape[0] != chunk.Len() {
		t.features = enhancement.NewFeatures(chunk.Len(), dim)
	}

	for i, frame := range chunk.Frames {
		row := t.features.Row(i)
		for k := range t.power {
			t.power[k] = float64(frame.Power(k))
		}
		if t.filters == nil {
			for k, p := range t.power {
				row[k] = float32(math.Log(max(p, LogFloor)))
			}
			continue
		}
		for m, f := range t.filters {
			sum := 0.0
			for j, w := range f.weights {
				sum += w * t.power[f.firstBin+j]
			}
			row[m] = float32(math.Log(max(sum, LogFloor)))
		}
	}

	if t.Normalize {
		t.normalize(chunk.Len(), dim)
	}
	return t.features, nil
}

// normalize standardises every feature over the frames using the
// population statistics.
func (t *Transform) normalize(frames, dim int) {
	if cap(t.column) < frames {
		t.column = make([]float64, frames)
	}
	column := t.column[:frames]
	data := t.features.Data
	for m := 0; m < dim; m++ {
		for i := range column {
			column[i] = float64(data[i*dim+m])
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		std = max(std, LogFloor)
		for i, v := range column {
			data[i*dim+m] = float32((v - mean) / std)
		}
	}
}
