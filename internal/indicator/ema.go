package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// EMA is the exponential moving average with alpha = 2/(span+1):
//
//	ema[t] = alpha*x[t] + (1-alpha)*ema[t-1]
//
// seeded with the first defined input. Leading undefined inputs stay
// undefined. An undefined input after the seed yields None for that index and
// the recurrence resumes from the last defined average. A span of 1 returns
// the input unchanged.
func EMA(s types.Series, span int) types.Series {
	out := types.NewSeries(len(s))
	if span <= 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	seeded := false

	var prev float64

	for i, o := range s {
		x, err := o.Take()
		if err != nil {
			continue
		}

		if !seeded {
			prev = x
			seeded = true
		} else {
			prev = alpha*x + (1-alpha)*prev
		}

		out[i] = optional.Some(prev)
	}

	return out
}
