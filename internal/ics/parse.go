package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is the read-back view of a synthesized VEVENT.
type Event struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Categories  string

	Start time.Time
	End   time.Time
	Stamp time.Time
}

// ParseEvent reads the single VEVENT of an ICS payload.
func ParseEvent(body []byte) (Event, error) {
	if len(body) == 0 {
		return Event{}, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return Event{}, fmt.Errorf("parse calendar: %w", err)
	}

	events := cal.Events()
	switch len(events) {
	case 0:
		return Event{}, errors.New("calendar has no VEVENT")
	case 1:
	default:
		return Event{}, fmt.Errorf("calendar has %d VEVENTs, want 1", len(events))
	}
	ve := events[0]

	var out Event
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return Event{}, errors.New("missing UID")
	}
	out.UID = uid.Value

	out.Summary = textValue(ve, ical.ComponentPropertySummary)
	out.Location = textValue(ve, ical.ComponentPropertyLocation)
	out.Description = textValue(ve, ical.ComponentPropertyDescription)
	out.Categories = textValue(ve, ical.ComponentPropertyCategories)

	if out.Start, err = ve.GetStartAt(); err != nil {
		return Event{}, fmt.Errorf("DTSTART: %w", err)
	}
	if out.End, err = ve.GetEndAt(); err != nil {
		return Event{}, fmt.Errorf("DTEND: %w", err)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtstamp); p != nil {
		if t, err := time.Parse("20060102T150405Z", p.Value); err == nil {
			out.Stamp = t
		}
	}
	return out, nil
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func textValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return textUnescaper.Replace(p.Value)
}
