package ticket

import (
	"time"

	"dsbcal/internal/model"
)

// Journey assembles the captures into a model.Journey, resolving the date
// against ref. Missing captures stay empty; use Journey.Valid to decide
// whether the result is usable.
func (c Captures) Journey(ref time.Time) (model.Journey, error) {
	j := model.Journey{
		FromStation:   c.From,
		ToStation:     c.To,
		DepartureTime: c.Departure,
		ArrivalTime:   c.Arrival,
		TrainType:     c.TrainType,
		TrainNumber:   c.TrainNumber,
		Wagon:         c.Wagon,
		Seat:          c.Seat,
		TravelClass:   c.Class,
		Price:         c.Price,
	}
	if c.Date != nil {
		d, err := ResolveDate(*c.Date, ref)
		if err != nil {
			return j, err
		}
		j.DepartureDate = &d
	}
	return j, nil
}

// Parse extracts a journey from ticket text. ref is used for year inference
// only.
//
// A text without stations and date fails with ErrNotATicket and a date that
// cannot exist fails with ErrUnparseableDate. Otherwise the journey is
// returned even when required fields are missing.
func Parse(text string, ref time.Time) (model.Journey, error) {
	c, err := Extract(text)
	if err != nil {
		return model.Journey{}, err
	}
	return c.Journey(ref)
}
