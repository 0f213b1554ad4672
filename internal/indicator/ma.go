package indicator

import (
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// VolumeMA is the simple moving average of traded volume.
type VolumeMA struct {
	period int
}

// NewVolumeMA creates a 20-period volume average.
func NewVolumeMA() *VolumeMA {
	return &VolumeMA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (v *VolumeMA) Name() types.IndicatorType {
	return types.IndicatorTypeVolumeMA
}

// Config configures the average. Expected parameters: period (int).
func (v *VolumeMA) Config(params ...any) error {
	if err := expectParams(v.Name(), params, 1, 1); err != nil {
		return err
	}

	period, err := periodParam("period", params[0])
	if err != nil {
		return err
	}

	v.period = period

	return nil
}

func (v *VolumeMA) Lookback() int {
	return v.period - 1
}

func (v *VolumeMA) Apply(bars []types.Bar, rows []types.IndicatorSet) {
	values := SMA(volumes(bars), v.period)
	for i := range rows {
		rows[i].VolumeMA = values[i]
	}
}
