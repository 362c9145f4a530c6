package convert

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"dsbcal/internal/ics"
	"dsbcal/internal/sample"
	"dsbcal/internal/ticket"
)

const ticketText = `DSB Billet
Aarhus H → København H
Afgang 14.11 13:15
Ankomst 16:06
InterCityLyn 42 91 22
1. klasse
Pris 30 kr.
`

var ref = time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)

func newConverter(t *testing.T) *Converter {
	t.Helper()
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestConvert(t *testing.T) {
	res, err := newConverter(t).Convert(ticketText, ref)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.FileName != "DSB_Rejse_2025-11-14_13-15.ics" {
		t.Errorf("FileName = %q", res.FileName)
	}
	if got := res.Instants.Departure.Format(time.RFC3339); got != "2025-11-14T12:15:00Z" {
		t.Errorf("departure = %s", got)
	}

	ev, err := ics.ParseEvent(res.ICS)
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}
	if ev.Location != "Aarhus H til København H" {
		t.Errorf("Location = %q", ev.Location)
	}
	if !ev.Stamp.Equal(ref) {
		t.Errorf("DTSTAMP = %s, want reference time", ev.Stamp)
	}
	for _, want := range []string{"Tog: InterCityLyn 42", "Vogn: 91", "Plads: 22", "Klasse: 1. klasse", "Pris: 30 kr."} {
		if !strings.Contains(ev.Description, want) {
			t.Errorf("description lacks %q: %q", want, ev.Description)
		}
	}
}

func TestConvertIdempotent(t *testing.T) {
	c := newConverter(t)

	var wg sync.WaitGroup
	outputs := make([][]byte, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Convert(ticketText, ref)
			if err != nil {
				t.Errorf("Convert failed: %v", err)
				return
			}
			outputs[i] = res.ICS
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(outputs); i++ {
		if string(outputs[i]) != string(outputs[0]) {
			t.Fatalf("output %d differs from output 0", i)
		}
	}
}

func TestConvertErrors(t *testing.T) {
	c := newConverter(t)

	if _, err := c.Convert("nothing useful", ref); !errors.Is(err, ticket.ErrNotATicket) {
		t.Errorf("expected ErrNotATicket, got %v", err)
	}

	res, err := c.Convert("Fra: Aarhus H\n14.11 13:15\n", ref)
	if !errors.Is(err, ics.ErrIncompleteJourney) {
		t.Fatalf("expected ErrIncompleteJourney, got %v", err)
	}
	if res.Journey.FromStation != "" || res.ICS != nil {
		t.Errorf("unexpected result for incomplete ticket: %+v", res)
	}
	if res.Journey.DepartureTime == nil {
		t.Error("incomplete result should still carry extracted fields")
	}
}

func TestConvertSamplePDF(t *testing.T) {
	data, err := sample.Bytes(sample.Default())
	if err != nil {
		t.Fatalf("render sample: %v", err)
	}

	res, err := newConverter(t).ConvertPDF(data, ref)
	if err != nil {
		t.Fatalf("ConvertPDF failed: %v", err)
	}
	j := res.Journey
	if j.FromStation != "Aarhus H" {
		t.Errorf("FromStation = %q", j.FromStation)
	}
	if j.FormattedDeparture() != "2025-11-14 13:15" || j.FormattedArrival() != "16:06" {
		t.Errorf("times = %q / %q", j.FormattedDeparture(), j.FormattedArrival())
	}
	if j.Train() != "InterCityLyn 42" {
		t.Errorf("Train() = %q", j.Train())
	}
}

func TestFileNameWithoutDate(t *testing.T) {
	j, _ := newConverter(t).Inspect("Aarhus H → Odense St.\n", ref)
	if got := FileName(j); got != "DSB_Rejse.ics" {
		t.Errorf("FileName = %q", got)
	}
}
