// Package convert wires the ticket pipeline together:
// text -> captures -> journey -> instants -> iCalendar bytes.
package convert

import (
	"fmt"
	"time"

	"dsbcal/internal/ics"
	appLog "dsbcal/internal/log"
	"dsbcal/internal/model"
	"dsbcal/internal/pdftext"
	"dsbcal/internal/ticket"
	"dsbcal/internal/tz"
)

// Options configures a Converter. Zero values select the defaults of the
// tz and ics packages.
type Options struct {
	Timezone  string
	ProductID string
	UIDDomain string
	Category  string
}

// Result is one converted ticket.
type Result struct {
	Journey  model.Journey
	Instants tz.Instants
	ICS      []byte
	// FileName is the suggested download name, e.g. DSB_Rejse_2025-11-14_13-15.ics.
	FileName string
}

// Converter is stateless after construction and safe for concurrent use.
type Converter struct {
	composer *tz.Composer
	synth    ics.Synthesizer
}

func New(opts Options) (*Converter, error) {
	c, err := tz.New(opts.Timezone)
	if err != nil {
		return nil, err
	}
	return &Converter{
		composer: c,
		synth: ics.Synthesizer{
			ProductID: opts.ProductID,
			Domain:    opts.UIDDomain,
			Category:  opts.Category,
		},
	}, nil
}

// Inspect parses text without synthesizing. ref is "today" for year
// inference.
func (c *Converter) Inspect(text string, ref time.Time) (model.Journey, error) {
	return ticket.Parse(text, ref)
}

// Convert runs the full pipeline. ref is used for year inference and as the
// event's DTSTAMP.
//
// When the journey is incomplete the returned Result still carries the
// extracted Journey next to an error wrapping ics.ErrIncompleteJourney.
func (c *Converter) Convert(text string, ref time.Time) (Result, error) {
	j, err := ticket.Parse(text, ref)
	if err != nil {
		return Result{}, err
	}
	res := Result{Journey: j}

	if missing := j.Missing(); len(missing) > 0 {
		appLog.Warn("ticket incomplete", "missing", missing)
		return res, &ics.SynthesisError{Missing: missing}
	}

	in, err := c.composer.Compose(j)
	if err != nil {
		return res, err
	}
	res.Instants = in

	data, err := c.synth.Synthesize(j, in, ref)
	if err != nil {
		return res, err
	}
	res.ICS = data
	res.FileName = FileName(j)

	appLog.Info("ticket converted",
		"from", j.FromStation,
		"to", j.ToStation,
		"departure", j.FormattedDeparture(),
		"bytes", len(data),
	)
	return res, nil
}

// ConvertPDF extracts the text of a ticket PDF and converts it.
func (c *Converter) ConvertPDF(pdf []byte, ref time.Time) (Result, error) {
	text, err := pdftext.Extract(pdf)
	if err != nil {
		return Result{}, fmt.Errorf("extract pdf text: %w", err)
	}
	return c.Convert(text, ref)
}

// FileName suggests an output name for j's calendar file.
func FileName(j model.Journey) string {
	if j.DepartureDate == nil || j.DepartureTime == nil {
		return "DSB_Rejse.ics"
	}
	return fmt.Sprintf("DSB_Rejse_%s_%02d-%02d.ics", j.DepartureDate, j.DepartureTime.Hour, j.DepartureTime.Minute)
}
