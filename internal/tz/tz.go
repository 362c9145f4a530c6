package tz

import (
	"errors"
	"fmt"
	"time"

	// Zone rules ship with the binary so hosts without /usr/share/zoneinfo
	// still resolve Europe/Copenhagen.
	_ "time/tzdata"

	"dsbcal/internal/model"
)

// DefaultZone is the zone DSB prints ticket times in.
const DefaultZone = "Europe/Copenhagen"

// ErrComposition means a journey lacks the date or time needed to place it on
// the timeline.
var ErrComposition = errors.New("cannot compose journey instants")

type CompositionError struct {
	Field  string
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrComposition, e.Field, e.Reason)
}

func (e *CompositionError) Unwrap() error { return ErrComposition }

// Instants holds the absolute start and end of a journey, both in UTC.
type Instants struct {
	Departure time.Time
	Arrival   time.Time
}

// Duration is the travel time; zero when the arrival is unknown.
func (in Instants) Duration() time.Duration {
	return in.Arrival.Sub(in.Departure)
}

// Composer turns ticket wall times into instants using one zone's rules.
// It holds no mutable state and is safe for concurrent use.
type Composer struct {
	loc *time.Location
}

// New loads the named IANA zone. An empty name selects DefaultZone.
func New(name string) (*Composer, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return &Composer{loc: loc}, nil
}

func (c *Composer) Location() *time.Location { return c.loc }

// Compose places the departure on the journey's date and the arrival on the
// same date, or the following one when the arrival clock is earlier than the
// departure clock. Each end uses the offset in force at its own wall time. A
// journey without arrival time yields Arrival == Departure.
func (c *Composer) Compose(j model.Journey) (Instants, error) {
	if j.DepartureDate == nil {
		return Instants{}, &CompositionError{Field: "departure_date", Reason: "is missing"}
	}
	if !j.DepartureDate.Real() {
		return Instants{}, &CompositionError{Field: "departure_date", Reason: fmt.Sprintf("%s is not a real date", j.DepartureDate)}
	}
	if j.DepartureTime == nil {
		return Instants{}, &CompositionError{Field: "departure_time", Reason: "is missing"}
	}

	dep := c.Resolve(*j.DepartureDate, *j.DepartureTime)
	if j.ArrivalTime == nil {
		return Instants{Departure: dep, Arrival: dep}, nil
	}

	arrDate := *j.DepartureDate
	if j.ArrivalTime.Before(*j.DepartureTime) {
		arrDate = arrDate.AddDays(1)
	}
	return Instants{Departure: dep, Arrival: c.Resolve(arrDate, *j.ArrivalTime)}, nil
}

// Resolve converts a wall-clock reading in the composer's zone to UTC.
//
// A reading that occurs twice (autumn fall-back) takes the later, standard
// time offset. A reading that never occurs (spring gap) is read with the
// offset in force before the gap, which lands it the same distance past the
// transition (02:30 becomes 03:30 summer time).
func (c *Composer) Resolve(d model.Date, clk model.Clock) time.Time {
	naive := time.Date(d.Year, time.Month(d.Month), d.Day, clk.Hour, clk.Minute, 0, 0, time.UTC)

	_, before := naive.Add(-12 * time.Hour).In(c.loc).Zone()
	_, after := naive.Add(12 * time.Hour).In(c.loc).Zone()

	if t, ok := c.readAs(naive, after); ok {
		return t
	}
	if t, ok := c.readAs(naive, before); ok {
		return t
	}
	return naive.Add(-time.Duration(before) * time.Second)
}

// readAs interprets naive with the given UTC offset and reports whether the
// zone actually shows that wall time at the resulting instant.
func (c *Composer) readAs(naive time.Time, offset int) (time.Time, bool) {
	t := naive.Add(-time.Duration(offset) * time.Second)
	local := t.In(c.loc)
	same := local.Year() == naive.Year() && local.Month() == naive.Month() && local.Day() == naive.Day() &&
		local.Hour() == naive.Hour() && local.Minute() == naive.Minute()
	return t, same
}
