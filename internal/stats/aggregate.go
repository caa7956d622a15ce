package stats

import (
	"math"
	"sort"
)

// Mean returns the mean of the defined values, or undefined if none are defined.
func Mean(values ...Value) Value {
	sum := 0.0
	n := 0
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.Float
		n++
	}
	if n == 0 {
		return Undefined()
	}
	return Of(sum / float64(n))
}

// WeightedMean returns sum(w*v)/sum(w) over the defined values. Weights of
// undefined values do not count toward the denominator. The result is undefined
// when no defined value carries a positive weight.
func WeightedMean(values, weights []float64, defined []bool) Value {
	sum := 0.0
	total := 0.0
	for i := range values {
		if i >= len(weights) || i >= len(defined) || !defined[i] {
			continue
		}
		sum += values[i] * weights[i]
		total += weights[i]
	}
	if total <= 0 {
		return Undefined()
	}
	return Of(sum / total)
}

// Median returns the median of values. Even-length inputs average the two
// middle elements. The input is not modified. Empty input is undefined.
func Median(values []float64) Value {
	if len(values) == 0 {
		return Undefined()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return Of((sorted[mid-1] + sorted[mid]) / 2)
	}
	return Of(sorted[mid])
}

// Mode returns the most frequent value. Ties resolve to the value that reached
// the winning count first in input order. ok is false for empty input.
func Mode(values []int) (mode int, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	counts := make(map[int]int, len(values))
	best := 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > best {
			best = counts[v]
			mode = v
		}
	}
	return mode, true
}

// CeilQuorum returns ceil(n*fraction). A product within rounding error of an
// integer is taken as that integer, so 10*0.3 counts as 3 and not 4.
func CeilQuorum(n int, fraction float64) int {
	const relTolerance = 1e-12
	x := float64(n) * fraction
	if r := math.Round(x); math.Abs(x-r) <= relTolerance*math.Max(1, math.Abs(x)) {
		return int(r)
	}
	return int(math.Ceil(x))
}
