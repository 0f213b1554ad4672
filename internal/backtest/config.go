package backtest

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Config holds the simulator settings.
type Config struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital" jsonschema:"title=Initial Capital,description=Cash available at the first bar,default=500000" validate:"gt=0"`
	PositionRatio  float64 `json:"position_ratio" yaml:"position_ratio" jsonschema:"title=Position Ratio,description=Fraction of cash invested on entry,default=0.3,minimum=0,maximum=1" validate:"gt=0,lte=1"`
	StopLossPct    float64 `json:"stop_loss_pct" yaml:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Loss from entry price that forces an exit,default=0.05" validate:"gt=0,lt=1"`
	TakeProfitPct  float64 `json:"take_profit_pct" yaml:"take_profit_pct" jsonschema:"title=Take Profit,description=Gain from entry price that forces an exit,default=0.1" validate:"gt=0"`
}

// DefaultConfig returns the standard settings: 500,000 capital, 30% position,
// 5% stop loss and 10% take profit.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 500000,
		PositionRatio:  0.3,
		StopLossPct:    0.05,
		TakeProfitPct:  0.10,
	}
}

// Validate checks every field against its bounds.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	return nil
}

// LoadConfig reads a YAML file on top of the defaults, so a partial file
// only overrides the fields it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "failed to read backtest config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSchemaJSON returns the JSON schema of Config.
func GenerateSchemaJSON() (string, error) {
	return utils.GetSchemaFromConfig(Config{})
}
