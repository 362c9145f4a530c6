package ticket

import (
	"time"

	"dsbcal/internal/model"
)

// RawDate is the day.month[.year] capture of the departure token.
type RawDate struct {
	Day   int
	Month int
	// Year is already expanded to four digits when HasYear is set.
	Year    int
	HasYear bool
}

// ResolveDate turns raw into a full calendar date.
//
// An explicit year is used as-is. Without one the year of ref is assumed,
// moving to the following year when the month lies before ref's month, so a
// ticket printed in December for a January journey lands in January of the
// next year. If the inferred year does not contain the day (29.02), the next
// year is tried as well.
//
// ref is the caller's notion of "today"; ResolveDate never reads the clock.
func ResolveDate(raw RawDate, ref time.Time) (model.Date, error) {
	if raw.Day == 0 || raw.Month == 0 {
		return model.Date{}, &DateError{Day: raw.Day, Month: raw.Month}
	}

	var candidates []int
	if raw.HasYear {
		candidates = []int{raw.Year}
	} else {
		year := ref.Year()
		if raw.Month < int(ref.Month()) {
			year++
		}
		candidates = []int{year, year + 1}
	}

	for _, y := range candidates {
		d := model.Date{Day: raw.Day, Month: raw.Month, Year: y}
		if d.Real() {
			return d, nil
		}
	}
	return model.Date{}, &DateError{Day: raw.Day, Month: raw.Month, Years: candidates}
}
