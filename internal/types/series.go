package types

import "github.com/moznion/go-optional"

// Series is a numeric column aligned 1:1 with the bars it was derived from.
// None marks a period without enough history for the value to exist.
type Series []optional.Option[float64]

// NewSeries returns a series of n undefined values.
func NewSeries(n int) Series {
	return make(Series, n)
}

// SeriesOf wraps plain values into a fully defined series.
func SeriesOf(values []float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = optional.Some(v)
	}

	return s
}

// At returns the value at index i, or None when i is out of range.
func (s Series) At(i int) optional.Option[float64] {
	if i < 0 || i >= len(s) {
		return optional.None[float64]()
	}

	return s[i]
}

// Last returns the final value of the series.
func (s Series) Last() optional.Option[float64] {
	return s.At(len(s) - 1)
}

// Defined counts the entries that carry a value.
func (s Series) Defined() int {
	n := 0

	for _, v := range s {
		if v.IsSome() {
			n++
		}
	}

	return n
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.IsSome() {
			return i
		}
	}

	return -1
}
