package ui

import (
	"math"
	"strings"
)

var sparkLevels = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Downsample reduces a price series to at most target points while
// preserving peaks and valleys. The first bucket keeps its closing
// value; later buckets keep whichever extreme (min or max) sits
// farther from the previously emitted point.
func Downsample(data []float64, target int) []float64 {
	if target <= 0 || len(data) == 0 {
		return nil
	}
	if len(data) <= target {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	result := make([]float64, 0, target)
	bucketSize := float64(len(data)) / float64(target)
	for i := 0; i < target; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			if len(result) > 0 {
				result = append(result, result[len(result)-1])
			}
			continue
		}

		slice := data[start:end]
		min, max := slice[0], slice[0]
		for _, v := range slice[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}

		if len(result) == 0 {
			result = append(result, slice[len(slice)-1])
			continue
		}
		prev := result[len(result)-1]
		if math.Abs(min-prev) > math.Abs(max-prev) {
			result = append(result, min)
		} else {
			result = append(result, max)
		}
	}
	return result
}

// Chart renders a series as a block-character chart of the given height.
// Resolution is height*8 sub-levels, one partial block per cell.
func Chart(data []float64, width, height int) string {
	if height <= 1 {
		return Sparkline(data, width)
	}
	sampled := Downsample(data, width)
	if len(sampled) == 0 {
		return ""
	}

	min, max := sampled[0], sampled[0]
	for _, v := range sampled[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	resolution := float64(height * 8)
	levels := make([]int, len(sampled))
	span := max - min
	for i, v := range sampled {
		if span == 0 {
			levels[i] = int(resolution / 2)
		} else {
			levels[i] = int((v - min) / span * resolution)
		}
	}

	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		for _, level := range levels {
			cell := level - row*8
			switch {
			case cell >= 8:
				b.WriteRune(sparkLevels[7])
			case cell >= 1:
				b.WriteRune(sparkLevels[cell-1])
			default:
				b.WriteByte(' ')
			}
		}
		if row > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Sparkline renders a series as one line of block characters, scaled to
// the series' own min/max. A flat series draws at mid height.
func Sparkline(data []float64, width int) string {
	sampled := Downsample(data, width)
	if len(sampled) == 0 {
		return ""
	}

	min, max := sampled[0], sampled[0]
	for _, v := range sampled[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	span := max - min
	for _, v := range sampled {
		var idx int
		if span == 0 {
			idx = len(sparkLevels) / 2
		} else {
			idx = int((v - min) / span * float64(len(sparkLevels)-1))
		}
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}
