package marketdata

import (
	"time"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/utils"
)

// DefaultLookbackDays is how far back an inverted range is restarted from its end.
const DefaultLookbackDays = 30

// DateRange is an inclusive range of calendar dates in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the start in YYYY-MM-DD form.
func (r DateRange) StartDate() string {
	return r.Start.Format(types.DateLayout)
}

// EndDate returns the end in YYYY-MM-DD form.
func (r DateRange) EndDate() string {
	return r.End.Format(types.DateLayout)
}

// ValidateDateRange parses two YYYY-MM-DD dates and repairs the range: an end
// after today becomes today, and a start after the end becomes the end minus
// DefaultLookbackDays.
func ValidateDateRange(start, end string, now time.Time) (DateRange, error) {
	r, err := parseRange(start, end)
	if err != nil {
		return DateRange{}, err
	}

	today := truncateDay(now)
	if r.End.After(today) {
		r.End = today
	}

	if r.Start.After(r.End) {
		r.Start = r.End.AddDate(0, 0, -DefaultLookbackDays)
	}

	return r, nil
}

// ValidateDateRangeStrict rejects instead of repairing: dates after today and
// a start after the end are errors.
func ValidateDateRangeStrict(start, end string, now time.Time) (DateRange, error) {
	r, err := parseRange(start, end)
	if err != nil {
		return DateRange{}, err
	}

	today := truncateDay(now)
	if r.Start.After(today) || r.End.After(today) {
		return DateRange{}, errors.New(errors.ErrCodeInvalidDateRange, "date range must not include future dates")
	}

	if r.Start.After(r.End) {
		return DateRange{}, errors.New(errors.ErrCodeInvalidDateRange, "start date must not be after end date")
	}

	return r, nil
}

func parseRange(start, end string) (DateRange, error) {
	s, err := utils.ParseDate(start)
	if err != nil {
		return DateRange{}, errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid start date %q, use YYYY-MM-DD", start)
	}

	e, err := utils.ParseDate(end)
	if err != nil {
		return DateRange{}, errors.Wrapf(errors.ErrCodeInvalidDateRange, err, "invalid end date %q, use YYYY-MM-DD", end)
	}

	return DateRange{Start: s, End: e}, nil
}

// truncateDay keeps the calendar date of t in its own location and returns it as UTC midnight.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
