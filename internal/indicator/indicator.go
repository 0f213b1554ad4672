package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// Indicator interface defines methods that any technical indicator must implement.
// Implementations are pure: Apply reads the bar sequence and writes only the
// columns the indicator owns.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config overrides the default periods and multipliers
	Config(params ...any) error
	// Lookback is the number of leading bars that stay undefined
	Lookback() int
	// Apply writes the indicator columns into rows, which is aligned with bars
	Apply(bars []types.Bar, rows []types.IndicatorSet)
}

func closes(bars []types.Bar) types.Series {
	return fromBars(bars, func(b types.Bar) float64 { return b.Close })
}

func highs(bars []types.Bar) types.Series {
	return fromBars(bars, func(b types.Bar) float64 { return b.High })
}

func lows(bars []types.Bar) types.Series {
	return fromBars(bars, func(b types.Bar) float64 { return b.Low })
}

func volumes(bars []types.Bar) types.Series {
	return fromBars(bars, func(b types.Bar) float64 { return b.Volume })
}

func fromBars(bars []types.Bar, field func(types.Bar) float64) types.Series {
	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = field(b)
	}

	return types.SeriesOf(values)
}

// periodParam reads a positive period from a Config argument. Integers and
// whole floats are accepted so values decoded from JSON or YAML work as is.
func periodParam(name string, param any) (int, error) {
	var period int

	switch v := param.(type) {
	case int:
		period = v
	case int64:
		period = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a whole number, got %v", name, v)
		}

		period = int(v)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected int", name)
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}

func floatParam(name string, param any) (float64, error) {
	switch v := param.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected float64", name)
	}
}

func expectParams(name types.IndicatorType, params []any, minimum, maximum int) error {
	if len(params) < minimum || len(params) > maximum {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"%s Config expects %d to %d parameters, got %d", name, minimum, maximum, len(params))
	}

	return nil
}
