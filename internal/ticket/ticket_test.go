package ticket

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"dsbcal/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

const tableTicket = `DSB Billet
Aarhus H → København H
Afgang 14.11 13:15
Ankomst 16:06
InterCityLyn 42 91 22
DSB 1'
Pris 30 kr.
`

func TestParseTableTicket(t *testing.T) {
	j, err := Parse(tableTicket, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := model.Journey{
		FromStation:   "Aarhus H",
		ToStation:     "København H",
		DepartureDate: &model.Date{Day: 14, Month: 11, Year: 2025},
		DepartureTime: &model.Clock{Hour: 13, Minute: 15},
		ArrivalTime:   &model.Clock{Hour: 16, Minute: 6},
		TrainType:     "InterCityLyn",
		TrainNumber:   "42",
		Wagon:         "91",
		Seat:          "22",
		TravelClass:   "1. klasse",
		Price:         "30 kr.",
	}
	if !reflect.DeepEqual(j, want) {
		t.Errorf("Parse() =\n%+v\nwant\n%+v", j, want)
	}
	if !j.Valid() {
		t.Errorf("expected a valid journey, missing %v", j.Missing())
	}
}

func TestParseItineraryLine(t *testing.T) {
	text := "Rejsedetaljer\n14.nov. 13:15 Aarhus H København H 14.nov. 16:06\nInterCity 123\nVogn 5 Plads 41\n2. klasse\nDKK 299,00\n"

	j, err := Parse(text, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if j.FromStation != "Aarhus H" || j.ToStation != "København H" {
		t.Errorf("stations = %q -> %q", j.FromStation, j.ToStation)
	}
	if j.FormattedDeparture() != "2025-11-14 13:15" || j.FormattedArrival() != "16:06" {
		t.Errorf("times = %q / %q", j.FormattedDeparture(), j.FormattedArrival())
	}
	if j.Train() != "InterCity 123" {
		t.Errorf("Train() = %q", j.Train())
	}
	if j.Wagon != "5" || j.Seat != "41" {
		t.Errorf("wagon/seat = %q/%q", j.Wagon, j.Seat)
	}
	if j.TravelClass != "2. klasse" || j.Price != "299,00 kr." {
		t.Errorf("class/price = %q/%q", j.TravelClass, j.Price)
	}
}

func TestParseLabeledStations(t *testing.T) {
	text := "Fra: Odense St.\nTil: Aalborg H\nDato 03.12.2025 kl. 07:45\n"

	j, err := Parse(text, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if j.FromStation != "Odense St." || j.ToStation != "Aalborg H" {
		t.Errorf("stations = %q -> %q", j.FromStation, j.ToStation)
	}
	if got := j.DepartureDate.String(); got != "2025-12-03" {
		t.Errorf("date = %s", got)
	}
	if j.ArrivalTime != nil {
		t.Errorf("expected no arrival, got %v", j.ArrivalTime)
	}
	if j.Train() != "" || j.Wagon != "" || j.Price != "" {
		t.Errorf("secondary fields should be empty: %+v", j)
	}
}

func TestParseDashedRoute(t *testing.T) {
	text := "Rejse: Aarhus H - Skanderborg St\n14.nov. 09:00\n"

	j, err := Parse(text, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if j.FromStation != "Aarhus H" || j.ToStation != "Skanderborg St." {
		t.Errorf("stations = %q -> %q", j.FromStation, j.ToStation)
	}
}

func TestParseYearRollover(t *testing.T) {
	text := "Aarhus H → København H\n14.01 08:00\n"

	j, err := Parse(text, day(2025, time.December, 1))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := j.DepartureDate.String(); got != "2026-01-14" {
		t.Errorf("date = %s, want 2026-01-14", got)
	}
}

func TestParseNotATicket(t *testing.T) {
	_, err := Parse("Hello world, nothing to see here.", day(2025, time.June, 1))
	if !errors.Is(err, ErrNotATicket) {
		t.Fatalf("expected ErrNotATicket, got %v", err)
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) || ee.TextLength == 0 {
		t.Errorf("expected *ExtractionError with length, got %#v", err)
	}
}

func TestParseUnrealDate(t *testing.T) {
	_, err := Parse("Aarhus H → København H\n31.02 10:00\n", day(2025, time.June, 1))
	if !errors.Is(err, ErrUnparseableDate) {
		t.Fatalf("expected ErrUnparseableDate, got %v", err)
	}
}

func TestParseIncomplete(t *testing.T) {
	j, err := Parse("Aarhus H → København H\n", day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("stations alone should not fail: %v", err)
	}
	if j.Valid() {
		t.Fatal("journey without date should be invalid")
	}
	want := []string{"departure_date", "departure_time"}
	if got := j.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDate
		ref  time.Time
		want model.Date
	}{
		{"same year", RawDate{Day: 14, Month: 11}, day(2025, time.June, 1), model.Date{Day: 14, Month: 11, Year: 2025}},
		{"month before reference rolls over", RawDate{Day: 14, Month: 1}, day(2025, time.December, 1), model.Date{Day: 14, Month: 1, Year: 2026}},
		{"same month stays", RawDate{Day: 2, Month: 12}, day(2025, time.December, 20), model.Date{Day: 2, Month: 12, Year: 2025}},
		{"explicit year wins", RawDate{Day: 14, Month: 1, Year: 2025, HasYear: true}, day(2025, time.December, 1), model.Date{Day: 14, Month: 1, Year: 2025}},
		{"leap day moves forward", RawDate{Day: 29, Month: 2}, day(2027, time.January, 10), model.Date{Day: 29, Month: 2, Year: 2028}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDate(tt.raw, tt.ref)
			if err != nil {
				t.Fatalf("ResolveDate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveDateErrors(t *testing.T) {
	_, err := ResolveDate(RawDate{Day: 29, Month: 2, Year: 2025, HasYear: true}, day(2025, time.January, 1))
	var de *DateError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DateError, got %v", err)
	}
	if !reflect.DeepEqual(de.Years, []int{2025}) {
		t.Errorf("Years = %v", de.Years)
	}

	if _, err := ResolveDate(RawDate{}, day(2025, time.January, 1)); !errors.Is(err, ErrUnparseableDate) {
		t.Errorf("empty raw date should fail, got %v", err)
	}
}

func TestNormalizeStation(t *testing.T) {
	tests := map[string]string{
		"Aarhus  h":        "Aarhus H",
		"  Odense st ":     "Odense St.",
		"Odense St.":       "Odense St.",
		"Roskilde m":       "Roskilde M",
		"København H kl":   "København H",
		"A\u030arhus H":   "Århus H",
		"Hillerød.":        "Hillerød",
		"Kastrup Lufthavn": "Kastrup Lufthavn",
	}
	for in, want := range tests {
		if got := NormalizeStation(in); got != want {
			t.Errorf("NormalizeStation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractTwoDigitYear(t *testing.T) {
	c, err := Extract("Aarhus H → Vejle St.\n14.11.26 kl. 06:05\n")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if c.Date == nil || !c.Date.HasYear || c.Date.Year != 2026 {
		t.Fatalf("expected year 2026, got %+v", c.Date)
	}
	if c.Departure == nil || c.Departure.String() != "06:05" {
		t.Errorf("departure = %v", c.Departure)
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"plain kroner", "Pris 30 kr.", "30 kr."},
		{"decimal comma", "Pris 299,00 kr.", "299,00 kr."},
		{"thousands separator", "Pris 1.299,00 kr.", "1.299,00 kr."},
		{"thousands without decimals", "I alt 2.450 kr", "2.450 kr."},
		{"DKK prefix", "DKK 299,00", "299,00 kr."},
		{"DKK with thousands separator", "DKK 1.299,00", "1.299,00 kr."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Extract("Aarhus H → København H\n14.11 13:15\n" + tt.line + "\n")
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if c.Price != tt.want {
				t.Errorf("Price = %q, want %q", c.Price, tt.want)
			}
		})
	}
}

func TestParsePurchaseStampBeforeJourney(t *testing.T) {
	tests := map[string]string{
		"labelled departure": "Købt 12.11.25 10:22\nAarhus H → København H\nAfgang 14.11 13:15\nAnkomst 16:06\n",
		"route line":         "Købt 12.11.25 10:22\nAarhus H → København H 14.11 13:15\nAnkomst 16:06\n",
		"unlabelled stamp":   "12.11.25 10:22\nAarhus H → København H\n14.11 13:15\nAnkomst 16:06\n",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			j, err := Parse(text, day(2025, time.June, 1))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got := j.FormattedDeparture(); got != "2025-11-14 13:15" {
				t.Errorf("departure = %q, want 2025-11-14 13:15", got)
			}
			if got := j.FormattedArrival(); got != "16:06" {
				t.Errorf("arrival = %q, want 16:06", got)
			}
		})
	}
}

func TestParseRouteWithLeadingLabel(t *testing.T) {
	tests := map[string]string{
		"Strækning Aarhus H → København H\n14.11 13:15\n": "Aarhus H",
		"Rejse Odense St. -> Aalborg H\n14.11 13:15\n":    "Odense St.",
		"afgang fra Vejle St. → Aarhus H\n14.11 13:15\n":  "Vejle St.",
		"Høje Taastrup St. → Aarhus H\n14.11 13:15\n":     "Høje Taastrup St.",
	}
	for text, want := range tests {
		j, err := Parse(text, day(2025, time.June, 1))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", text, err)
		}
		if j.FromStation != want {
			t.Errorf("Parse(%q).FromStation = %q, want %q", text, j.FromStation, want)
		}
	}
}

func TestExtractBareDate(t *testing.T) {
	c, err := Extract("Rejse 14.11\n")
	if err != nil {
		t.Fatalf("a bare date should mark the text as a ticket: %v", err)
	}
	if c.Date == nil || c.Date.Day != 14 || c.Date.Month != 11 || c.Date.HasYear {
		t.Errorf("Date = %+v", c.Date)
	}
	if c.Departure != nil {
		t.Errorf("Departure = %v, want none", c.Departure)
	}

	j, err := c.Journey(day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("Journey failed: %v", err)
	}
	if got, want := j.Missing(), []string{"from_station", "to_station", "departure_time"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}
