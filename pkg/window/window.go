// Package window builds the periodic analysis/synthesis windows used by the
// STFT stages and checks their constant-overlap-add property.
package window

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

type Type string

const (
	TypeUndefined   = Type("")
	TypeHann        = Type("hann")
	TypeSqrtHann    = Type("sqrthann")
	TypeHamming     = Type("hamming")
	TypeBlackman    = Type("blackman")
	TypeRectangular = Type("rect")
)

func Types() []Type {
	return []Type{
		TypeHann,
		TypeSqrtHann,
		TypeHamming,
		TypeBlackman,
		TypeRectangular,
	}
}

func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return TypeUndefined, fmt.Errorf("unknown window '%s'", s)
}

func (t Type) String() string {
	return string(t)
}

// Periodic returns the periodic variant (the symmetric window of size+1 with
// the last point dropped) of the window of type t.
func (t Type) Periodic(size int) ([]float32, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	seq := make([]float64, size+1)
	for i := range seq {
		seq[i] = 1
	}
	switch t {
	case TypeHann:
		window.Hann(seq)
	case TypeSqrtHann:
		window.Hann(seq)
		for i, v := range seq {
			seq[i] = math.Sqrt(v)
		}
	case TypeHamming:
		window.Hamming(seq)
	case TypeBlackman:
		window.Blackman(seq)
	case TypeRectangular:
		window.Rectangular(seq)
	default:
		return nil, fmt.Errorf("unknown window '%s'", t)
	}

	result := make([]float32, size)
	for i := range result {
		result[i] = float32(seq[i])
	}
	return result, nil
}

// OverlapAddSum returns, for each position within one hop, the sum of
// analysis·synthesis products of all frames overlapping that position in
// steady state.
func OverlapAddSum(analysis, synthesis []float32, hop int) []float64 {
	if len(analysis) != len(synthesis) {
		panic(fmt.Errorf("analysis and synthesis windows have different sizes: %d != %d", len(analysis), len(synthesis)))
	}
	if hop < 1 || hop > len(analysis) {
		panic(fmt.Errorf("hop %d is out of range [1, %d]", hop, len(analysis)))
	}

	sum := make([]float64, hop)
	for i := range analysis {
		sum[i%hop] += float64(analysis[i]) * float64(synthesis[i])
	}
	return sum
}

// COLAScale returns the factor which turns the overlap-added
// analysis·synthesis product into unity, if that product is constant at the
// given hop. Otherwise ok is false.
func COLAScale(analysis, synthesis []float32, hop int, tolerance float64) (scale float64, ok bool) {
	sum := OverlapAddSum(analysis, synthesis, hop)
	minV, maxV := sum[0], sum[0]
	for _, v := range sum[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if maxV <= 0 {
		return 0, false
	}
	if maxV-minV > tolerance*maxV {
		return 0, false
	}
	return 2 / (maxV + minV), true
}
