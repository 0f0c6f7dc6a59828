package z

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Creates bounds for an histogram. The bounds are powers of two of the form
// [2^min_exponent, ..., 2^max_exponent].
func HistogramBounds(minExponent, maxExponent uint32) []float64 {
	var bounds []float64
	for i := minExponent; i <= maxExponent; i++ {
		bounds = append(bounds, float64(int(1)<<i))
	}
	return bounds
}

// HistogramData buckets int64 samples by the given upper bounds. The last
// bucket holds everything at or above the last bound.
type HistogramData struct {
	Bounds         []float64
	Count          int64
	CountPerBucket []int64
	Min            int64
	Max            int64
	Sum            int64
}

// NewHistogramData returns a new instance of HistogramData with properly initialized fields.
func NewHistogramData(bounds []float64) *HistogramData {
	return &HistogramData{
		Bounds:         bounds,
		CountPerBucket: make([]int64, len(bounds)+1),
		Max:            0,
		Min:            math.MaxInt64,
	}
}

// Copy returns a deep copy of the histogram.
func (histogram *HistogramData) Copy() *HistogramData {
	if histogram == nil {
		return nil
	}
	return &HistogramData{
		Bounds:         append([]float64{}, histogram.Bounds...),
		CountPerBucket: append([]int64{}, histogram.CountPerBucket...),
		Count:          histogram.Count,
		Min:            histogram.Min,
		Max:            histogram.Max,
		Sum:            histogram.Sum,
	}
}

// Update adds one sample.
func (histogram *HistogramData) Update(value int64) {
	if value > histogram.Max {
		histogram.Max = value
	}
	if value < histogram.Min {
		histogram.Min = value
	}

	histogram.Sum += value
	histogram.Count++

	for index := 0; index <= len(histogram.Bounds); index++ {
		// Allocate value in the last buckets if we reached the end of the Bounds array.
		if index == len(histogram.Bounds) {
			histogram.CountPerBucket[index]++
			break
		}

		if value < int64(histogram.Bounds[index]) {
			histogram.CountPerBucket[index]++
			break
		}
	}
}

// Mean of all samples, or 0 without samples.
func (histogram *HistogramData) Mean() float64 {
	if histogram == nil || histogram.Count == 0 {
		return 0
	}
	return float64(histogram.Sum) / float64(histogram.Count)
}

// Percentile returns the upper bound of the bucket holding the p-th
// percentile sample, p in [0, 1]. Samples in the overflow bucket report the
// last bound.
func (histogram *HistogramData) Percentile(p float64) float64 {
	if histogram == nil || histogram.Count == 0 || len(histogram.Bounds) == 0 {
		return 0
	}
	target := int64(math.Ceil(p * float64(histogram.Count)))
	if target < 1 {
		target = 1
	}
	var seen int64
	for i, count := range histogram.CountPerBucket {
		seen += count
		if seen >= target && i < len(histogram.Bounds) {
			return histogram.Bounds[i]
		}
	}
	return histogram.Bounds[len(histogram.Bounds)-1]
}

// WriteTo writes the histogram in a human-readable format.
func (histogram *HistogramData) WriteTo(w io.Writer) (int64, error) {
	if histogram == nil || histogram.Count == 0 {
		return 0, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Min value: %d\n", histogram.Min)
	fmt.Fprintf(&b, "Max value: %d\n", histogram.Max)
	fmt.Fprintf(&b, "Mean: %.2f\n", histogram.Mean())
	fmt.Fprintf(&b, "%24s %9s\n", "Range", "Count")

	numBounds := len(histogram.Bounds)
	for index, count := range histogram.CountPerBucket {
		if count == 0 {
			continue
		}

		// The last bucket represents the bucket that contains the range from
		// the last bound up to infinity so it's processed differently than the
		// other buckets.
		if index == len(histogram.CountPerBucket)-1 {
			lowerBound := int(histogram.Bounds[numBounds-1])
			fmt.Fprintf(&b, "[%10d, %10s) %9d\n", lowerBound, "infinity", count)
			continue
		}

		upperBound := int(histogram.Bounds[index])
		lowerBound := 0
		if index > 0 {
			lowerBound = int(histogram.Bounds[index-1])
		}

		fmt.Fprintf(&b, "[%10d, %10d) %9d\n", lowerBound, upperBound, count)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
