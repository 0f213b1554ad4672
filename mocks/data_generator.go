package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
)

// DataGenerator generates synthetic bars for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	Symbol string
	// StartTime is the date of the first bar.
	StartTime time.Time
	// Interval is the distance between bars. Daily by default.
	Interval time.Duration
	Count    int
	// InitialPrice is the first open.
	InitialPrice float64
	// Volatility is the standard deviation of the per bar return.
	Volatility float64
	// Trend is the total drift spread across all bars.
	Trend      float64
	VolumeBase float64
	// VolumeVariance is the relative variance of volume (0.0 to 1.0).
	VolumeVariance float64
	// Futures adds open interest and settle prices.
	Futures bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "600000.SH",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          250,
		InitialPrice:   10.0,
		Volatility:     0.015,
		Trend:          0.0,
		VolumeBase:     100000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	now := config.StartTime
	openInterest := config.VolumeBase * 2

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bar := types.Bar{
			Time:   now,
			Symbol: config.Symbol,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
			Amount: optional.Some(roundToDecimals(volume*(open+closePrice)/2, 2)),
		}

		if config.Futures {
			openInterest = math.Max(0, openInterest+(g.rng.Float64()*2-1)*config.VolumeBase*0.05)
			bar.OpenInterest = optional.Some(roundToDecimals(openInterest, 0))
			bar.Settle = optional.Some(roundToDecimals((high+low+closePrice)/3, 4))
		}

		bars[i] = bar
		price = closePrice
		now = now.Add(config.Interval)
	}

	return bars
}

// GenerateTrend returns count bars drifting by the given total trend with the
// default settings otherwise.
func GenerateTrend(symbol string, count int, trend float64) []types.Bar {
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = count
	config.Trend = trend

	return NewDataGenerator(42).Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
