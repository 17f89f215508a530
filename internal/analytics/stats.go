package analytics

import (
	"math"
	"sort"
)

// Bin is one histogram bucket covering [Start, End). The last bin also
// includes End.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram counts values into equal-width bins spanning [min, max]
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if bins < 1 {
		bins = 1
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Start: lo, End: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Start = lo + float64(i)*width
		out[i].End = lo + float64(i+1)*width
	}
	out[bins-1].End = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}

// Summary is the descriptive statistics of a numeric column
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Describe summarises values. Std is the sample standard deviation and is
// zero for fewer than two values.
func Describe(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(n-1))
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q1:     percentile(sorted, 0.25),
		Median: percentile(sorted, 0.5),
		Q3:     percentile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// percentile interpolates linearly between the closest ranks of a sorted slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Floats converts ints for the numeric helpers
func Floats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
