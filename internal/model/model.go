package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Unknown fills an expected field that could not be extracted.
const Unknown = "Unknown"

// Date is a calendar date in the ticket's own (Danish) calendar.
type Date struct {
	Day   int `json:"day" validate:"gte=1,lte=31"`
	Month int `json:"month" validate:"gte=1,lte=12"`
	Year  int `json:"year" validate:"gte=1"`
}

// Real reports whether d names an existing calendar day (no 31.02).
func (d Date) Real() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Year < 1 {
		return false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == d.Day && int(t.Month()) == d.Month && t.Year() == d.Year
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Clock is a 24-hour wall-clock time.
type Clock struct {
	Hour   int `json:"hour" validate:"gte=0,lte=23"`
	Minute int `json:"minute" validate:"gte=0,lte=59"`
}

// Before reports whether c is strictly earlier in the day than o.
func (c Clock) Before(o Clock) bool {
	return c.Hour*60+c.Minute < o.Hour*60+o.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Journey is one train journey read from a ticket. It is built once per
// document and treated as read-only afterwards; copies share no state.
type Journey struct {
	FromStation   string `json:"from_station" validate:"required"`
	ToStation     string `json:"to_station" validate:"required"`
	DepartureDate *Date  `json:"departure_date" validate:"required"`
	DepartureTime *Clock `json:"departure_time" validate:"required"`
	ArrivalTime   *Clock `json:"arrival_time"`

	TrainType   string `json:"train_type"`
	TrainNumber string `json:"train_number"`
	Wagon       string `json:"wagon"`
	Seat        string `json:"seat"`
	TravelClass string `json:"class"`
	Price       string `json:"price"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report record field names (from_station) instead of Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Missing lists the required fields that are absent or malformed, in
// declaration order. An empty result means the journey is valid.
func (j Journey) Missing() []string {
	var out []string
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}
		}
		seen := map[string]bool{}
		for _, fe := range verrs {
			name := topLevelField(fe.Namespace())
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	if j.DepartureDate != nil && !j.DepartureDate.Real() && !contains(out, "departure_date") {
		out = append(out, "departure_date")
	}
	return out
}

// Valid reports whether the stations, departure date and departure time are
// all present and the date is real.
func (j Journey) Valid() bool {
	return len(j.Missing()) == 0
}

// FormattedDeparture renders "2025-11-14 13:15", or "" without date or time.
func (j Journey) FormattedDeparture() string {
	if j.DepartureDate == nil || j.DepartureTime == nil {
		return ""
	}
	return j.DepartureDate.String() + " " + j.DepartureTime.String()
}

// FormattedArrival renders "16:06", or "" without an arrival time.
func (j Journey) FormattedArrival() string {
	if j.ArrivalTime == nil {
		return ""
	}
	return j.ArrivalTime.String()
}

// Train renders "<type> <number>". A missing half is shown as Unknown; when
// both halves are missing the result is empty.
func (j Journey) Train() string {
	if j.TrainType == "" && j.TrainNumber == "" {
		return ""
	}
	return orUnknown(j.TrainType) + " " + orUnknown(j.TrainNumber)
}

// Record is the JSON view of a Journey handed to the CLI and web layers.
type Record struct {
	FromStation   string `json:"from_station"`
	ToStation     string `json:"to_station"`
	DepartureDate *Date  `json:"departure_date"`
	DepartureTime *Clock `json:"departure_time"`
	ArrivalTime   *Clock `json:"arrival_time"`
	TrainType     string `json:"train_type"`
	TrainNumber   string `json:"train_number"`
	Wagon         string `json:"wagon"`
	Seat          string `json:"seat"`
	TravelClass   string `json:"class"`
	Price         string `json:"price"`

	Valid     bool     `json:"valid"`
	Missing   []string `json:"missing,omitempty"`
	Departure string   `json:"departure,omitempty"`
	Arrival   string   `json:"arrival,omitempty"`
	Train     string   `json:"train,omitempty"`
}

// Record builds the JSON view of j.
func (j Journey) Record() Record {
	missing := j.Missing()
	return Record{
		FromStation:   j.FromStation,
		ToStation:     j.ToStation,
		DepartureDate: j.DepartureDate,
		DepartureTime: j.DepartureTime,
		ArrivalTime:   j.ArrivalTime,
		TrainType:     j.TrainType,
		TrainNumber:   j.TrainNumber,
		Wagon:         j.Wagon,
		Seat:          j.Seat,
		TravelClass:   j.TravelClass,
		Price:         j.Price,
		Valid:         len(missing) == 0,
		Missing:       missing,
		Departure:     j.FormattedDeparture(),
		Arrival:       j.FormattedArrival(),
		Train:         j.Train(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// topLevelField turns "Journey.departure_time.hour" into "departure_time".
func topLevelField(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		return parts[1]
	}
	return ns
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
