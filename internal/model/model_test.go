package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func fullJourney() Journey {
	return Journey{
		FromStation:   "Aarhus H",
		ToStation:     "København H",
		DepartureDate: &Date{Day: 14, Month: 11, Year: 2025},
		DepartureTime: &Clock{Hour: 13, Minute: 15},
		ArrivalTime:   &Clock{Hour: 16, Minute: 6},
		TrainType:     "InterCityLyn",
		TrainNumber:   "42",
		Wagon:         "91",
		Seat:          "22",
		TravelClass:   "1. klasse",
		Price:         "30 kr.",
	}
}

func TestFormattedDeparture(t *testing.T) {
	j := fullJourney()
	if got := j.FormattedDeparture(); got != "2025-11-14 13:15" {
		t.Errorf("FormattedDeparture() = %q, want %q", got, "2025-11-14 13:15")
	}
	if got := j.FormattedArrival(); got != "16:06" {
		t.Errorf("FormattedArrival() = %q, want %q", got, "16:06")
	}

	j.DepartureTime = nil
	if got := j.FormattedDeparture(); got != "" {
		t.Errorf("expected empty departure without time, got %q", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Journey)
		valid   bool
		missing []string
	}{
		{"complete", func(*Journey) {}, true, nil},
		{"no arrival is still valid", func(j *Journey) { j.ArrivalTime = nil }, true, nil},
		{"secondary fields absent", func(j *Journey) {
			j.TrainType, j.TrainNumber, j.Wagon, j.Seat, j.TravelClass, j.Price = "", "", "", "", "", ""
		}, true, nil},
		{"missing to_station", func(j *Journey) { j.ToStation = "" }, false, []string{"to_station"}},
		{"missing both stations", func(j *Journey) { j.FromStation, j.ToStation = "", "" }, false, []string{"from_station", "to_station"}},
		{"missing date", func(j *Journey) { j.DepartureDate = nil }, false, []string{"departure_date"}},
		{"unreal date", func(j *Journey) { j.DepartureDate = &Date{Day: 31, Month: 2, Year: 2025} }, false, []string{"departure_date"}},
		{"hour out of range", func(j *Journey) { j.DepartureTime = &Clock{Hour: 24, Minute: 0} }, false, []string{"departure_time"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := fullJourney()
			tt.mutate(&j)
			if got := j.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := j.Missing(); !reflect.DeepEqual(got, tt.missing) {
				t.Errorf("Missing() = %v, want %v", got, tt.missing)
			}
		})
	}
}

func TestTrain(t *testing.T) {
	j := fullJourney()
	if got := j.Train(); got != "InterCityLyn 42" {
		t.Errorf("Train() = %q", got)
	}
	j.TrainNumber = ""
	if got := j.Train(); got != "InterCityLyn Unknown" {
		t.Errorf("Train() with missing number = %q", got)
	}
	j.TrainType = ""
	if got := j.Train(); got != "" {
		t.Errorf("Train() with nothing = %q", got)
	}
}

func TestDateHelpers(t *testing.T) {
	if (Date{Day: 29, Month: 2, Year: 2024}).Real() != true {
		t.Error("29.02.2024 should be real")
	}
	if (Date{Day: 29, Month: 2, Year: 2025}).Real() {
		t.Error("29.02.2025 should not be real")
	}
	next := Date{Day: 31, Month: 12, Year: 2025}.AddDays(1)
	if next != (Date{Day: 1, Month: 1, Year: 2026}) {
		t.Errorf("AddDays across year = %+v", next)
	}
	if !(Clock{Hour: 0, Minute: 30}).Before(Clock{Hour: 13, Minute: 15}) {
		t.Error("00:30 should be before 13:15")
	}
}

func TestRecordJSON(t *testing.T) {
	data, err := json.Marshal(fullJourney().Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["valid"] != true {
		t.Errorf("expected valid=true, got %v", m["valid"])
	}
	if m["departure"] != "2025-11-14 13:15" || m["arrival"] != "16:06" {
		t.Errorf("unexpected formatted fields: %v / %v", m["departure"], m["arrival"])
	}
	if m["class"] != "1. klasse" || m["train"] != "InterCityLyn 42" {
		t.Errorf("unexpected fields: %v", m)
	}
	if _, ok := m["missing"]; ok {
		t.Errorf("missing should be omitted for a valid record")
	}
}
