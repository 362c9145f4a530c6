// Package pdftext pulls the printed text out of a ticket PDF, one line per
// visual row, so the ticket matchers can work line by line.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	appLog "dsbcal/internal/log"
)

var (
	// ErrNotPDF is returned for input that does not start with a PDF header.
	ErrNotPDF = errors.New("input is not a PDF document")
	// ErrUnreadable wraps failures of the PDF reader itself.
	ErrUnreadable = errors.New("unreadable PDF")
)

// gapFactor is the horizontal gap, relative to the font size, above which two
// adjacent glyph runs are treated as separate words.
const gapFactor = 0.15

// Extract returns the text of every page, rows top to bottom, pages separated
// by a blank line.
func Extract(data []byte) (text string, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return "", ErrNotPDF
	}

	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", ErrUnreadable, i, err)
		}
		pages = append(pages, renderRows(rows))
	}

	text = strings.TrimSpace(strings.Join(pages, "\n\n"))
	appLog.Debug("pdf text extracted", "pages", r.NumPage(), "chars", len(text))
	return text, nil
}

func renderRows(rows pdf.Rows) string {
	// Higher Y is further up the page.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := renderRow(row.Content); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func renderRow(texts pdf.TextHorizontal) string {
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var b strings.Builder
	end := 0.0
	for i, t := range texts {
		if t.S == "" {
			continue
		}
		if i > 0 && t.X-end > t.FontSize*gapFactor && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
