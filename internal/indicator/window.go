package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// Rolling statistics below use trailing windows of exactly n values ending at
// the current index. A window that is not full, or that contains an undefined
// value, yields None. No function looks past the current index.

func window(s types.Series, end, n int) ([]float64, bool) {
	if n <= 0 || end-n+1 < 0 {
		return nil, false
	}

	values := make([]float64, 0, n)

	for i := end - n + 1; i <= end; i++ {
		v, err := s[i].Take()
		if err != nil {
			return nil, false
		}

		values = append(values, v)
	}

	return values, true
}

func rolling(s types.Series, n int, fn func([]float64) (float64, bool)) types.Series {
	out := types.NewSeries(len(s))

	for i := range s {
		values, ok := window(s, i, n)
		if !ok {
			continue
		}

		if v, ok := fn(values); ok {
			out[i] = optional.Some(v)
		}
	}

	return out
}

// SMA is the trailing simple moving average over n periods.
func SMA(s types.Series, n int) types.Series {
	return rolling(s, n, func(values []float64) (float64, bool) {
		return mean(values), true
	})
}

// RollingSum is the trailing sum over n periods.
func RollingSum(s types.Series, n int) types.Series {
	return rolling(s, n, func(values []float64) (float64, bool) {
		return sum(values), true
	})
}

// RollingStd is the trailing sample standard deviation (n-1 denominator).
// A window of one value has no sample deviation and stays undefined.
func RollingStd(s types.Series, n int) types.Series {
	return rolling(s, n, sampleStdDev)
}

// RollingMax is the trailing maximum over n periods.
func RollingMax(s types.Series, n int) types.Series {
	return rolling(s, n, func(values []float64) (float64, bool) {
		m := values[0]
		for _, v := range values[1:] {
			m = math.Max(m, v)
		}

		return m, true
	})
}

// RollingMin is the trailing minimum over n periods.
func RollingMin(s types.Series, n int) types.Series {
	return rolling(s, n, func(values []float64) (float64, bool) {
		m := values[0]
		for _, v := range values[1:] {
			m = math.Min(m, v)
		}

		return m, true
	})
}

// Shift moves the series forward by k periods, leaving the first k undefined.
func Shift(s types.Series, k int) types.Series {
	out := types.NewSeries(len(s))
	for i := k; i < len(s); i++ {
		if i-k >= 0 {
			out[i] = s[i-k]
		}
	}

	return out
}

// Diff is s[t] - s[t-1]; undefined at t=0.
func Diff(s types.Series) types.Series {
	return Combine(s, Shift(s, 1), func(a, b float64) (float64, bool) {
		return a - b, true
	})
}

// CumSum accumulates defined values from the start of the series. Undefined
// inputs produce None at their index without resetting the running total.
func CumSum(s types.Series) types.Series {
	out := types.NewSeries(len(s))
	total := 0.0

	for i, o := range s {
		v, err := o.Take()
		if err != nil {
			continue
		}

		total += v
		out[i] = optional.Some(total)
	}

	return out
}

// Map applies fn to every defined value.
func Map(s types.Series, fn func(float64) float64) types.Series {
	out := types.NewSeries(len(s))
	for i, o := range s {
		if v, err := o.Take(); err == nil {
			out[i] = optional.Some(fn(v))
		}
	}

	return out
}

// Combine merges two aligned series. The result is defined only where both
// inputs are defined and fn reports a finite value.
func Combine(a, b types.Series, fn func(x, y float64) (float64, bool)) types.Series {
	out := types.NewSeries(len(a))

	for i := range a {
		if i >= len(b) {
			break
		}

		x, errA := a[i].Take()
		y, errB := b[i].Take()

		if errA != nil || errB != nil {
			continue
		}

		if v, ok := fn(x, y); ok && isFinite(v) {
			out[i] = optional.Some(v)
		}
	}

	return out
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}

	return total
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}

func sampleStdDev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}

	m := mean(values)
	squared := 0.0

	for _, v := range values {
		squared += (v - m) * (v - m)
	}

	return math.Sqrt(squared / float64(len(values)-1)), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
