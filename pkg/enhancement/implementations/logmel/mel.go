package logmel

import (
	"math"
)

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterBank builds numMels triangular HTK filters over the fftSize/2+1
// bins, each filter at least one bin wide.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) []filter {
	bins := fftSize/2 + 1
	lowMel, highMel := hzToMel(lowFreq), hzToMel(highFreq)
	step := (highMel - lowMel) / float64(numMels+1)

	edges := make([]int, numMels+2)
	for i := range edges {
		hz := melToHz(lowMel + float64(i)*step)
		edges[i] = min(int(math.Round(hz*float64(fftSize)/float64(sampleRate))), bins-1)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
	}

	result := make([]filter, numMels)
	for m := range result {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		last := min(right, bins-1)
		if left > last {
			result[m] = filter{firstBin: min(left, bins-1)}
			continue
		}
		weights := make([]float64, last-left+1)
		for k := left; k <= last; k++ {
			switch {
			case k < center:
				weights[k-left] = float64(k-left) / float64(center-left)
			default:
				weights[k-left] = float64(right-k) / float64(right-center)
			}
		}
		result[m] = filter{firstBin: left, weights: weights}
	}
	return result
}
