// Package spectralgate implements a Model which attenuates every bin of the
// centre frames by a gain derived from a noise floor estimated over the
// whole context-padded chunk.
package spectralgate

import (
	"context"
	"fmt"
	"sort"

	"github.com/facebookincubator/go-belt/tool/logger"
	"gonum.org/v1/gonum/stat"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
	"github.com/xaionaro-go/speechenhance/pkg/spectrum"
)

type Config struct {
	// NoiseQuantile is the quantile of the per-bin magnitudes taken as the
	// noise floor.
	NoiseQuantile float64 `yaml:"noise_quantile"`

	// Oversubtraction scales the noise floor before subtraction.
	Oversubtraction float64 `yaml:"oversubtraction"`

	// GainFloor is the minimal gain applied to a bin.
	GainFloor float64 `yaml:"gain_floor"`
}

func DefaultConfig() Config {
	return Config{
		NoiseQuantile:   0.2,
		Oversubtraction: 1.5,
		GainFloor:       0.1,
	}
}

type Model struct {
	Config

	magnitudes [][]float64
	sorted     []float64
	noise      []float64
	output     []spectrum.Spectrum
}

var _ enhancement.Model = (*Model)(nil)

func New(cfg Config) (*Model, error) {
	if cfg.NoiseQuantile < 0 || cfg.NoiseQuantile > 1 {
		return nil, fmt.Errorf("the noise quantile %f is out of [0, 1]", cfg.NoiseQuantile)
	}
	if cfg.Oversubtraction < 0 {
		return nil, fmt.Errorf("the oversubtraction factor %f is negative", cfg.Oversubtraction)
	}
	if cfg.GainFloor < 0 || cfg.GainFloor > 1 {
		return nil, fmt.Errorf("the gain floor %f is out of [0, 1]", cfg.GainFloor)
	}
	return &Model{Config: cfg}, nil
}

// Enhance returns the gated centre frames. The returned spectra are reused
// by the next call. Features are ignored.
func (m *Model) Enhance(
	ctx context.Context,
	chunk *spectrum.Chunk,
	_ *enhancement.Features,
) ([]spectrum.Spectrum, error) {
	bins := chunk.Bins()
	if bins == 0 {
		return nil, fmt.Errorf("an empty chunk")
	}
	m.prepare(chunk.Len(), chunk.CenterFrames, bins)

	// frames with no energy are padding
	count := 0
	for _, frame := range chunk.Frames {
		if isSilent(frame) {
			continue
		}
		row := m.magnitudes[count]
		for k := range row {
			row[k] = float64(frame.Magnitude(k))
		}
		count++
	}

	for k := range m.noise {
		m.noise[k] = 0
		if count == 0 {
			continue
		}
		m.sorted = m.sorted[:0]
		for _, row := range m.magnitudes[:count] {
			m.sorted = append(m.sorted, row[k])
		}
		sort.Float64s(m.sorted)
		m.noise[k] = stat.Quantile(m.NoiseQuantile, stat.Empirical, m.sorted, nil)
	}
	logger.Tracef(ctx, "spectralgate: estimated the noise floor over %d frames", count)

	for i, src := range chunk.Center() {
		dst := m.output[i]
		copy(dst, src)
		for k := 0; k < bins; k++ {
			mag := float64(src.Magnitude(k))
			if mag == 0 {
				continue
			}
			gain := max(1-m.Oversubtraction*m.noise[k]/mag, m.GainFloor)
			dst.Scale(k, float32(gain))
		}
	}
	return m.output, nil
}

func (m *Model) prepare(frames, centerFrames, bins int) {
	if len(m.noise) != bins || len(m.magnitudes) != frames {
		m.noise = make([]float64, bins)
		m.magnitudes = make([][]float64, frames)
		for i := range m.magnitudes {
			m.magnitudes[i] = make([]float64, bins)
		}
		m.sorted = make([]float64, 0, frames)
		m.output = nil
	}
	if len(m.output) != centerFrames {
		m.output = make([]spectrum.Spectrum, centerFrames)
		for i := range m.output {
			m.output[i] = make(spectrum.Spectrum, 2*bins)
		}
	}
}

func isSilent(s spectrum.Spectrum) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}
