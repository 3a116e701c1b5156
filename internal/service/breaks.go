package service

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-heat/internal/heatmap"
)

// Break methods accepted by Breaks and ThresholdService.Suggest.
const (
	MethodEqual    = "equal"
	MethodQuantile = "quantile"
)

// MaxBreaks caps the number of suggested thresholds.
const MaxBreaks = 64

// Breaks computes up to n thresholds over values with the given method.
func Breaks(method string, values []float64, n int) ([]float64, error) {
	switch method {
	case MethodEqual, "":
		return EqualInterval(values, n)
	case MethodQuantile:
		return Quantile(values, n)
	}
	return nil, eris.Wrapf(heatmap.ErrInvalidInput, "unknown break method %q", method)
}

// EqualInterval splits (0, max] into n equal buckets.
func EqualInterval(values []float64, n int) ([]float64, error) {
	pos, err := positives(values, n)
	if err != nil {
		return nil, err
	}
	max := pos[len(pos)-1]
	out := make([]float64, n)
	for k := 1; k <= n; k++ {
		out[k-1] = max * float64(k) / float64(n)
	}
	return Normalize(out), nil
}

// Quantile places thresholds at the k/n quantiles of the positive values,
// interpolating linearly between ranks.
func Quantile(values []float64, n int) ([]float64, error) {
	pos, err := positives(values, n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for k := 1; k <= n; k++ {
		out[k-1] = quantile(pos, float64(k)/float64(n))
	}
	return Normalize(out), nil
}

// Normalize drops non-positive, non-finite and non-increasing entries so the
// result is valid input for heatmap.Generate.
func Normalize(breaks []float64) []float64 {
	out := make([]float64, 0, len(breaks))
	prev := 0.0
	for _, b := range breaks {
		if math.IsNaN(b) || math.IsInf(b, 0) || b <= prev {
			continue
		}
		out = append(out, b)
		prev = b
	}
	return out
}

// quantile expects sorted input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func positives(values []float64, n int) ([]float64, error) {
	if n < 1 || n > MaxBreaks {
		return nil, eris.Wrapf(heatmap.ErrInvalidInput, "break count %d out of range 1..%d", n, MaxBreaks)
	}
	pos := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			pos = append(pos, v)
		}
	}
	if len(pos) == 0 {
		return nil, eris.Wrap(heatmap.ErrInvalidInput, "no positive values to break")
	}
	sort.Float64s(pos)
	return pos, nil
}
