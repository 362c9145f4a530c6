package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"dsbcal/internal/model"
	"dsbcal/internal/tz"
)

const (
	DefaultProductID = "-//DSB Transport//dsbcal//DA"
	DefaultDomain    = "dsbcal.local"
	DefaultCategory  = "Travel"
)

// ErrIncompleteJourney is returned when a journey lacks a required field.
var ErrIncompleteJourney = errors.New("incomplete journey")

// SynthesisError lists the required fields that blocked synthesis.
type SynthesisError struct {
	Missing []string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrIncompleteJourney, strings.Join(e.Missing, ", "))
}

func (e *SynthesisError) Unwrap() error { return ErrIncompleteJourney }

// Synthesizer renders a journey as a single-event iCalendar payload.
// Zero-valued fields fall back to the Default* constants.
type Synthesizer struct {
	ProductID string
	// Domain is the right-hand side of generated UIDs.
	Domain   string
	Category string
}

// Synthesize builds the calendar for j. in must come from composing j; stamp
// becomes DTSTAMP. Identical arguments give byte-identical output.
func (s Synthesizer) Synthesize(j model.Journey, in tz.Instants, stamp time.Time) ([]byte, error) {
	if missing := j.Missing(); len(missing) > 0 {
		return nil, &SynthesisError{Missing: missing}
	}

	cal := ical.NewCalendar()
	cal.SetProductId(or(s.ProductID, DefaultProductID))
	cal.SetVersion("2.0")
	cal.SetMethod(ical.MethodPublish)

	ev := cal.AddEvent(s.UID(j, in))
	ev.SetDtStampTime(stamp.UTC())
	ev.SetStartAt(in.Departure.UTC())
	ev.SetEndAt(in.Arrival.UTC())
	ev.SetSummary(Summary(j))
	ev.SetLocation(j.FromStation + " til " + j.ToStation)
	if desc := Description(j); desc != "" {
		ev.SetDescription(desc)
	}
	ev.SetProperty(ical.ComponentPropertyCategories, or(s.Category, DefaultCategory))

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// UID derives a name-based (SHA-1) UUID from the journey's instants and
// stations, so converting the same ticket twice yields the same event.
func (s Synthesizer) UID(j model.Journey, in tz.Instants) string {
	domain := or(s.Domain, DefaultDomain)
	ns := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(domain))
	name := strings.Join([]string{
		in.Departure.UTC().Format(time.RFC3339),
		in.Arrival.UTC().Format(time.RFC3339),
		j.FromStation,
		j.ToStation,
	}, "|")
	return uuid.NewSHA1(ns, []byte(name)).String() + "@" + domain
}

// Summary is the event title, "DSB Rejse – Aarhus H → København H".
func Summary(j model.Journey) string {
	return "DSB Rejse – " + j.FromStation + " → " + j.ToStation
}

// Description lists the secondary ticket fields, one per line. Lines for
// fields the ticket does not carry are left out; a reservation with only one
// of wagon and seat shows the other as Unknown.
func Description(j model.Journey) string {
	var lines []string
	if train := j.Train(); train != "" {
		lines = append(lines, "Tog: "+train)
	}
	if j.Wagon != "" || j.Seat != "" {
		lines = append(lines, "Vogn: "+or(j.Wagon, model.Unknown), "Plads: "+or(j.Seat, model.Unknown))
	}
	if j.TravelClass != "" {
		lines = append(lines, "Klasse: "+j.TravelClass)
	}
	if j.Price != "" {
		lines = append(lines, "Pris: "+j.Price)
	}
	return strings.Join(lines, "\n")
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
