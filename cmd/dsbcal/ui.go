package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dsbcal/internal/ics"
	"dsbcal/internal/model"
	"dsbcal/internal/pdftext"
	"dsbcal/internal/ticket"
	"dsbcal/internal/tz"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("161")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(11)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// printJourney renders the extracted fields; absent ones show as N/A.
func printJourney(w io.Writer, j model.Journey) {
	fmt.Fprintln(w, titleStyle.Render("Extracted information"))

	field := func(label, value string) {
		v := valueStyle.Render(value)
		if value == "" {
			v = missingStyle.Render("N/A")
		}
		fmt.Fprintln(w, "  "+labelStyle.Render(label)+v)
	}
	field("From", j.FromStation)
	field("To", j.ToStation)
	field("Departure", j.FormattedDeparture())
	field("Arrival", j.FormattedArrival())
	field("Train", j.Train())
	field("Wagon", j.Wagon)
	field("Seat", j.Seat)
	field("Class", j.TravelClass)
	field("Price", j.Price)

	if missing := j.Missing(); len(missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render("Warning: required information is missing: "+strings.Join(missing, ", ")))
	}
}

// describeError prefixes err with a message naming its kind.
func describeError(err error) string {
	switch {
	case errors.Is(err, ticket.ErrNotATicket):
		return "the input does not look like a DSB ticket (" + err.Error() + ")"
	case errors.Is(err, ticket.ErrUnparseableDate):
		return "the ticket date could not be read (" + err.Error() + ")"
	case errors.Is(err, ics.ErrIncompleteJourney):
		return "no calendar file written: " + err.Error()
	case errors.Is(err, pdftext.ErrNotPDF), errors.Is(err, pdftext.ErrUnreadable):
		return "could not read the PDF (" + err.Error() + ")"
	case errors.Is(err, tz.ErrComposition):
		return "could not place the journey in time (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
