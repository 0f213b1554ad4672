package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
)

// Engine runs every registered indicator over one bar sequence.
type Engine struct {
	registry IndicatorRegistry
}

// NewEngine returns an engine over the default indicator set.
func NewEngine() *Engine {
	return &Engine{registry: NewDefaultRegistry()}
}

// NewEngineWithRegistry returns an engine over a custom registry.
func NewEngineWithRegistry(registry IndicatorRegistry) *Engine {
	return &Engine{registry: registry}
}

// Configure forwards parameters to a registered indicator.
func (e *Engine) Configure(name types.IndicatorType, params ...any) error {
	ind, err := e.registry.GetIndicator(name)
	if err != nil {
		return err
	}

	return ind.Config(params...)
}

// Compute validates the bars and returns one indicator row per bar.
// The momentum accumulator starts from zero on every call.
func (e *Engine) Compute(bars []types.Bar) (types.EnrichedSeries, error) {
	if err := ValidateBars(bars); err != nil {
		return types.EnrichedSeries{}, err
	}

	owned := make([]types.Bar, len(bars))
	copy(owned, bars)

	rows := make([]types.IndicatorSet, len(owned))

	for _, name := range e.registry.ListIndicators() {
		ind, err := e.registry.GetIndicator(name)
		if err != nil {
			return types.EnrichedSeries{}, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "indicator %s", name)
		}

		ind.Apply(owned, rows)
	}

	return types.EnrichedSeries{
		Symbol: owned[0].Symbol,
		Bars:   owned,
		Rows:   rows,
	}, nil
}

// ValidateBars rejects empty input and dates that are not strictly ascending.
func ValidateBars(bars []types.Bar) error {
	if len(bars) == 0 {
		return errors.New(errors.ErrCodeMalformedInput, "bars must not be empty")
	}

	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Time, bars[i].Time

		switch {
		case cur.Equal(prev):
			return errors.Newf(errors.ErrCodeMalformedInput, "duplicate bar date %s at index %d", bars[i].Date(), i)
		case cur.Before(prev):
			return errors.Newf(errors.ErrCodeMalformedInput,
				"bars are not sorted: %s at index %d precedes %s", bars[i].Date(), i, bars[i-1].Date())
		}
	}

	return nil
}
