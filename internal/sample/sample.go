// Package sample renders demonstration DSB-style ticket PDFs. The output is
// laid out so that pdftext and the ticket matchers read it back like a real
// ticket, which makes it useful for trying the converter without one.
package sample

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"dsbcal/internal/tz"
)

var danishMonths = [...]string{"jan", "feb", "mar", "apr", "maj", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

// Ticket is the content printed on a demo ticket. Times are wall-clock times
// in Europe/Copenhagen; only their date and clock fields are used.
type Ticket struct {
	OrderNo     string
	From        string
	To          string
	Departure   time.Time
	Arrival     time.Time
	TrainType   string
	TrainNumber string
	Wagon       string
	Seat        string
	Class       int
	PriceKr     int
}

// Default is the ticket used by "dsbcal sample" when no flags are given.
func Default() Ticket {
	loc := time.UTC
	if c, err := tz.New(tz.DefaultZone); err == nil {
		loc = c.Location()
	}
	return Ticket{
		OrderNo:     "DSB-4711-2025",
		From:        "Aarhus H",
		To:          "København H",
		Departure:   time.Date(2025, time.November, 14, 13, 15, 0, 0, loc),
		Arrival:     time.Date(2025, time.November, 14, 16, 6, 0, 0, loc),
		TrainType:   "InterCityLyn",
		TrainNumber: "42",
		Wagon:       "91",
		Seat:        "22",
		Class:       1,
		PriceKr:     30,
	}
}

// danishDate renders "14.nov.".
func danishDate(t time.Time) string {
	return fmt.Sprintf("%d.%s.", t.Day(), danishMonths[t.Month()-1])
}

// QRPayload is the string encoded in the ticket's QR code.
func (t Ticket) QRPayload() string {
	return strings.Join([]string{
		t.OrderNo,
		t.From,
		t.To,
		t.Departure.Format("2006-01-02T15:04"),
		t.TrainType + " " + t.TrainNumber,
	}, "|")
}

// Render writes the ticket as a one-page A5 PDF to w.
func Render(w io.Writer, t Ticket) error {
	qrPNG, err := qrcode.Encode(t.QRPayload(), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("DSB Billet "+t.OrderNo, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 10, "DSB")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Billet / Ticket   Ordrenr. "+t.OrderNo)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	row(pdf, tr, []float64{22, 14, 32, 32, 22, 14}, "Dato", "Kl.", "Rejse fra", "Rejse til", "Dato", "Kl.")
	pdf.SetFont("Helvetica", "", 10)
	row(pdf, tr, []float64{22, 14, 32, 32, 22, 14},
		danishDate(t.Departure), t.Departure.Format("15:04"), t.From, t.To,
		danishDate(t.Arrival), t.Arrival.Format("15:04"))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	row(pdf, tr, []float64{30, 14, 20, 20}, "Tog", "", "Vogn", "Plads")
	pdf.SetFont("Helvetica", "", 10)
	row(pdf, tr, []float64{30, 14, 20, 20}, t.TrainType, t.TrainNumber, t.Wagon, t.Seat)
	pdf.Ln(6)

	pdf.Cell(0, 6, tr(fmt.Sprintf("DSB %d'   %d. klasse", t.Class, t.Class)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Pris %d kr.", t.PriceKr))
	pdf.Ln(10)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 94, 150, 40, 40, false, opts, 0, "")

	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, 5, "Eksempelbillet - ikke gyldig til rejse")

	return pdf.Output(w)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, cells ...string) {
	for i, c := range cells {
		pdf.Cell(widths[i], 6, tr(c))
	}
	pdf.Ln(6)
}

// Bytes renders t into memory.
func Bytes(t Ticket) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
