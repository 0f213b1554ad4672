package provider

import (
	"fmt"

	"github.com/polygon-io/client-go/rest/models"
)

// Interval is the bar size, written the way exchanges write it.
type Interval string

const (
	IntervalOneMinute      Interval = "1m"
	IntervalFiveMinutes    Interval = "5m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalThirtyMinutes  Interval = "30m"
	IntervalOneHour        Interval = "1h"
	IntervalFourHours      Interval = "4h"
	IntervalOneDay         Interval = "1d"
	IntervalOneWeek        Interval = "1w"
	IntervalOneMonth       Interval = "1M"
)

// AllIntervals lists the supported bar sizes.
var AllIntervals = []Interval{
	IntervalOneMinute, IntervalFiveMinutes, IntervalFifteenMinutes, IntervalThirtyMinutes,
	IntervalOneHour, IntervalFourHours, IntervalOneDay, IntervalOneWeek, IntervalOneMonth,
}

// OrDefault returns the daily interval for an empty value.
func (i Interval) OrDefault() Interval {
	if i == "" {
		return IntervalOneDay
	}

	return i
}

// Valid reports whether the interval is one of AllIntervals.
func (i Interval) Valid() bool {
	for _, v := range AllIntervals {
		if v == i {
			return true
		}
	}

	return false
}

// Multiplier returns the number of timespan units in one bar.
func (i Interval) Multiplier() int {
	switch i {
	case IntervalFiveMinutes:
		return 5
	case IntervalFifteenMinutes:
		return 15
	case IntervalThirtyMinutes:
		return 30
	case IntervalFourHours:
		return 4
	default:
		return 1
	}
}

// Timespan returns the Polygon aggregate unit.
func (i Interval) Timespan() models.Timespan {
	switch i {
	case IntervalOneMinute, IntervalFiveMinutes, IntervalFifteenMinutes, IntervalThirtyMinutes:
		return models.Minute
	case IntervalOneHour, IntervalFourHours:
		return models.Hour
	case IntervalOneWeek:
		return models.Week
	case IntervalOneMonth:
		return models.Month
	default:
		return models.Day
	}
}

// tushareFrequency maps an interval onto the suffix of the tushare endpoint.
func (i Interval) tushareFrequency() (string, error) {
	switch i.OrDefault() {
	case IntervalOneDay:
		return "daily", nil
	case IntervalOneWeek:
		return "weekly", nil
	case IntervalOneMonth:
		return "monthly", nil
	default:
		return "", fmt.Errorf("tushare does not serve %s bars", i)
	}
}
