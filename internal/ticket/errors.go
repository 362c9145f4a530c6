package ticket

import (
	"errors"
	"fmt"
)

var (
	// ErrNotATicket means the text has neither a station pair nor a date token.
	ErrNotATicket = errors.New("not a recognizable ticket")
	// ErrUnparseableDate means the captured day and month never form a real date.
	ErrUnparseableDate = errors.New("unparseable date")
)

// ExtractionError describes why a text was rejected as a ticket.
type ExtractionError struct {
	// TextLength is the rune count of the inspected text.
	TextLength int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: no station pair and no date token in %d characters of text", ErrNotATicket, e.TextLength)
}

func (e *ExtractionError) Unwrap() error { return ErrNotATicket }

// DateError carries the capture that could not be resolved.
type DateError struct {
	Day, Month int
	// Years holds the candidate years that were tried; empty when day or
	// month was absent.
	Years []int
}

func (e *DateError) Error() string {
	if len(e.Years) == 0 {
		return fmt.Sprintf("%s: day or month missing", ErrUnparseableDate)
	}
	return fmt.Sprintf("%s: %02d.%02d is not a real date in %v", ErrUnparseableDate, e.Day, e.Month, e.Years)
}

func (e *DateError) Unwrap() error { return ErrUnparseableDate }
