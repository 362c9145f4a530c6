package ticket

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	appLog "dsbcal/internal/log"
	"dsbcal/internal/model"
)

// Captures is the raw per-field result of Extract. A zero value (empty
// string or nil pointer) means the field was not found.
type Captures struct {
	From string
	To   string

	// Date may be set without Departure when the text prints a date with
	// no time next to it.
	Date      *RawDate
	Departure *model.Clock
	Arrival   *model.Clock

	TrainType   string
	TrainNumber string
	Wagon       string
	Seat        string
	Class       string
	// Price is already in display form, e.g. "30 kr.".
	Price string
}

// HasStations reports whether both ends of the journey were found.
func (c Captures) HasStations() bool {
	return c.From != "" && c.To != ""
}

// Base fragments shared by the rules below.
const (
	monthAlt = `jan|feb|mar|apr|maj|jun|jul|aug|sep|okt|nov|dec`
	// dateTok matches "14.nov.", "14. nov", "14.11", "14.11.25" and "14.11.2025".
	dateTok = `\d{1,2}\.\s?(?:` + monthAlt + `|\d{1,2})\.?(?:\d{2,4})?`
	// stationTok is a station name ending in one of the suffix tokens.
	stationTok = `[\p{L}\p{M}][\p{L}\p{M} .']*?[ \t](?-i:H|M|[Ss]t\.?)`
	// freeName is a station name of letters, spaces and punctuation.
	freeName = `[\p{L}\p{M}][\p{L}\p{M} .'-]*`
	// amountTok is a price with an optional thousands separator: "30",
	// "299,00", "1.299,00".
	amountTok = `\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+(?:[.,]\d{1,2})?`
)

var (
	itineraryRe = regexp.MustCompile(`(?i)` + dateTok + `\s+\d{1,2}:\d{2}\s+(` + stationTok + `)\s+(` + stationTok + `)\s+` + dateTok + `\s+(\d{1,2}):(\d{2})`)
	arrowRe     = regexp.MustCompile(`(` + freeName + `?)[ \t]*(?:→|⟶|->)[ \t]*(` + freeName + `)`)
	fraRe       = regexp.MustCompile(`(?m)\bFra:?[ \t]+(` + freeName + `)`)
	tilRe       = regexp.MustCompile(`(?m)\bTil:?[ \t]+(` + freeName + `)`)
	labelCutRe  = regexp.MustCompile(`\s+(?:Til|Fra)\b`)
	dashRe      = regexp.MustCompile(`(` + stationTok + `)[ \t]*[-–][ \t]*(` + stationTok + `)(?:[^\p{L}]|$)`)

	danishDateRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\.\s?(` + monthAlt + `)\.?(?:[ \t]?(\d{4}))?\s+(?:kl\.?\s*)?(\d{1,2}):(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?\.?\s+(?:kl\.?\s*)?(\d{1,2}):(\d{2})\b`)

	bareDanishDateRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\.[ \t]?(` + monthAlt + `)`)
	bareNumericDateRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?\b`)

	// stampLabelRe finds the label nearest before a date+time token.
	stampLabelRe = regexp.MustCompile(`(?i)\b(Afg(?:ang)?|Ank(?:omst)?|Købt|Købsdato|Bestilt|Udstedt)\b`)

	arrivalLabelRe = regexp.MustCompile(`(?i)\b(?:Ankomst|Ank)\.?[: \t]*(?:` + dateTok + `[ \t]+)?(?:kl\.?[ \t]*)?(\d{1,2}):(\d{2})\b`)
	timeRe         = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	trainRe      = regexp.MustCompile(`(?i)\b(InterCityLyn|InterCity|Regionaltog|Lyn)[ \t]+(\d{1,5})\b`)
	trainTableRe = regexp.MustCompile(`(?i)\b(?:InterCityLyn|InterCity|Regionaltog|Lyn)[ \t]+\d{1,5}[ \t]+(\d{1,3})[ \t]+(\d{1,3})\b`)
	wagonRe      = regexp.MustCompile(`(?i)\bVogn(?:nr)?\.?[: \t]*(\d{1,3})\b`)
	seatRe       = regexp.MustCompile(`(?i)\bPlads(?:nr)?\.?[: \t]*(\d{1,3})\b`)

	classRe    = regexp.MustCompile(`(?i)(?:DSB[ \t]*([12])[ \t]*['’´]|\b([12])\.[ \t]*klasse)`)
	priceKrRe  = regexp.MustCompile(`(?i)\b(` + amountTok + `)[ \t]*kr\b\.?`)
	priceDKKRe = regexp.MustCompile(`(?i)\bDKK[ \t]*(` + amountTok + `)`)
)

var danishMonths = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4,
	"maj": 5, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "okt": 10, "nov": 11, "dec": 12,
}

var trainTypes = map[string]string{
	"intercitylyn": "InterCityLyn",
	"intercity":    "InterCity",
	"regionaltog":  "Regionaltog",
	"lyn":          "Lyn",
}

// routeLabels are words that may precede the origin on a route line.
var routeLabels = map[string]bool{
	"strækning":     true,
	"rejse":         true,
	"rute":          true,
	"tur":           true,
	"retur":         true,
	"billet":        true,
	"enkeltbillet":  true,
	"rejsedetaljer": true,
}

var stationSuffixes = map[string]string{
	"h":   "H",
	"m":   "M",
	"st":  "St.",
	"st.": "St.",
}

// rule is one independent field matcher. It reports whether it found
// anything; a miss is never an error.
type rule struct {
	field string
	apply func(text string, c *Captures) bool
}

var rules = []rule{
	{"stations", matchStations},
	{"departure", matchDeparture},
	{"arrival", matchArrival},
	{"train", matchTrain},
	{"reservation", matchReservation},
	{"class", matchClass},
	{"price", matchPrice},
}

// Extract applies every field rule to the ticket text. It fails only when the
// text has neither a station pair nor a date token.
func Extract(text string) (Captures, error) {
	text = cleanText(text)

	var c Captures
	var missed []string
	for _, r := range rules {
		if !r.apply(text, &c) {
			missed = append(missed, r.field)
		}
	}

	if !c.HasStations() && c.Date == nil {
		return Captures{}, &ExtractionError{TextLength: utf8.RuneCountInString(text)}
	}

	if len(missed) > 0 {
		appLog.Debug("ticket fields not found", "fields", strings.Join(missed, ","))
	}
	return c, nil
}

// cleanText normalizes to NFC (PDF text often carries decomposed å/ø) and
// flattens non-breaking spaces and CRLF.
func cleanText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, " ", " ")
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func matchStations(text string, c *Captures) bool {
	if m := itineraryRe.FindStringSubmatch(text); m != nil {
		return setStations(c, m[1], m[2])
	}
	if m := arrowRe.FindStringSubmatch(text); m != nil {
		if setStations(c, m[1], m[2]) {
			return true
		}
	}
	from := fraRe.FindStringSubmatch(text)
	to := tilRe.FindStringSubmatch(text)
	if from != nil && to != nil {
		if setStations(c, cutAtLabel(from[1]), cutAtLabel(to[1])) {
			return true
		}
	}
	if m := dashRe.FindStringSubmatch(text); m != nil {
		return setStations(c, m[1], m[2])
	}
	return false
}

func setStations(c *Captures, from, to string) bool {
	from, to = NormalizeStation(trimRouteLabel(from)), NormalizeStation(to)
	if from == "" || to == "" {
		return false
	}
	c.From, c.To = from, to
	return true
}

// trimRouteLabel drops leading label words and lowercase words from an
// origin capture, so "Strækning Aarhus H" becomes "Aarhus H".
func trimRouteLabel(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 1 {
		r, _ := utf8.DecodeRuneInString(fields[0])
		if !unicode.IsLower(r) && !routeLabels[strings.ToLower(fields[0])] {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func cutAtLabel(s string) string {
	if loc := labelCutRe.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// NormalizeStation collapses whitespace and canonicalizes the suffix token
// (h -> H, st -> St., m -> M). Anything after the first suffix token is
// dropped, so "København H kl" becomes "København H".
func NormalizeStation(name string) string {
	fields := strings.Fields(norm.NFC.String(name))
	for i := 1; i < len(fields); i++ {
		if canon, ok := stationSuffixes[strings.ToLower(fields[i])]; ok {
			fields[i] = canon
			fields = fields[:i+1]
			break
		}
	}
	out := strings.Trim(strings.Join(fields, " "), " -'")
	if !strings.HasSuffix(out, " St.") {
		out = strings.TrimRight(out, ".")
	}
	return out
}

// Where a date+time token sits decides how likely it is to be the departure.
const (
	stampDeparture = iota // after an Afgang/Afg. label
	stampRoute            // on the line naming the route
	stampPlain
	stampOther // after an arrival or purchase label
)

type departureToken struct {
	raw   RawDate
	clock model.Clock
	start int
	end   int
	rank  int
}

// findDeparture picks the departure date+time token. Tokens are ranked by
// their line context first, then by form: spelled-out Danish months, then
// numeric dates, then numeric dates with a two-digit year (the form purchase
// stamps use). Ties go to the earliest token. end is the byte offset just
// past the chosen token.
func findDeparture(text string) (raw RawDate, clock model.Clock, end int, ok bool) {
	var best departureToken
	consider := func(tok departureToken) {
		if !ok || tok.rank < best.rank || (tok.rank == best.rank && tok.start < best.start) {
			best, ok = tok, true
		}
	}

	for _, m := range danishDateRe.FindAllStringSubmatchIndex(text, -1) {
		day := atoi(text[m[2]:m[3]])
		month := danishMonths[strings.ToLower(text[m[4]:m[5]])]
		clk, valid := parseClock(text[m[8]:m[9]], text[m[10]:m[11]])
		if !valid || day == 0 {
			continue
		}
		tok := departureToken{raw: RawDate{Day: day, Month: month}, clock: clk, start: m[0], end: m[1]}
		if m[6] >= 0 {
			tok.raw.Year, tok.raw.HasYear = atoi(text[m[6]:m[7]]), true
		}
		tok.rank = stampContext(text, m[0]) * 3
		consider(tok)
	}

	for _, m := range numericDateRe.FindAllStringSubmatchIndex(text, -1) {
		day := atoi(text[m[2]:m[3]])
		month := atoi(text[m[4]:m[5]])
		clk, valid := parseClock(text[m[8]:m[9]], text[m[10]:m[11]])
		if !valid || day == 0 || month < 1 || month > 12 {
			continue
		}
		tok := departureToken{raw: RawDate{Day: day, Month: month}, clock: clk, start: m[0], end: m[1]}
		form := 1
		if m[6] >= 0 {
			tok.raw.Year, tok.raw.HasYear = fullYear(text[m[6]:m[7]]), true
			if m[7]-m[6] == 2 {
				form = 2
			}
		}
		tok.rank = stampContext(text, m[0])*3 + form
		consider(tok)
	}

	if !ok {
		return RawDate{}, model.Clock{}, 0, false
	}
	return best.raw, best.clock, best.end, true
}

// stampContext classifies the line a token starting at start sits on.
func stampContext(text string, start int) int {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	if labels := stampLabelRe.FindAllString(text[lineStart:start], -1); len(labels) > 0 {
		if strings.HasPrefix(strings.ToLower(labels[len(labels)-1]), "afg") {
			return stampDeparture
		}
		return stampOther
	}

	lineEnd := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		lineEnd = start + i
	}
	line := text[lineStart:lineEnd]
	if itineraryRe.MatchString(line) || arrowRe.MatchString(line) {
		return stampRoute
	}
	return stampPlain
}

// findBareDate returns the first date token that has no time next to it.
func findBareDate(text string) (RawDate, bool) {
	for _, m := range bareDanishDateRe.FindAllStringSubmatch(text, -1) {
		if day := atoi(m[1]); day >= 1 && day <= 31 {
			return RawDate{Day: day, Month: danishMonths[strings.ToLower(m[2])]}, true
		}
	}
	for _, m := range bareNumericDateRe.FindAllStringSubmatch(text, -1) {
		day, month := atoi(m[1]), atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			continue
		}
		raw := RawDate{Day: day, Month: month}
		if m[3] != "" {
			raw.Year, raw.HasYear = fullYear(m[3]), true
		}
		return raw, true
	}
	return RawDate{}, false
}

// fullYear reads a two-digit year as 20yy.
func fullYear(s string) int {
	y := atoi(s)
	if y >= 0 && y < 100 {
		y += 2000
	}
	return y
}

func matchDeparture(text string, c *Captures) bool {
	raw, clk, _, ok := findDeparture(text)
	if !ok {
		if raw, found := findBareDate(text); found {
			c.Date = &raw
		}
		return false
	}
	c.Date = &raw
	c.Departure = &clk
	return true
}

func matchArrival(text string, c *Captures) bool {
	if m := itineraryRe.FindStringSubmatch(text); m != nil {
		if clk, ok := parseClock(m[3], m[4]); ok {
			c.Arrival = &clk
			return true
		}
	}
	if m := arrivalLabelRe.FindStringSubmatch(text); m != nil {
		if clk, ok := parseClock(m[1], m[2]); ok {
			c.Arrival = &clk
			return true
		}
	}

	// Fall back to the first time printed after the departure.
	_, _, end, ok := findDeparture(text)
	if !ok {
		return false
	}
	for _, m := range timeRe.FindAllStringSubmatch(text[end:], -1) {
		if clk, ok := parseClock(m[1], m[2]); ok {
			c.Arrival = &clk
			return true
		}
	}
	return false
}

func matchTrain(text string, c *Captures) bool {
	m := trainRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	c.TrainType = trainTypes[strings.ToLower(m[1])]
	c.TrainNumber = m[2]
	return true
}

// matchReservation reads wagon and seat from the "<train> <no> <wagon> <seat>"
// table row, falling back to the Vogn/Plads labels for each half.
func matchReservation(text string, c *Captures) bool {
	if m := trainTableRe.FindStringSubmatch(text); m != nil {
		c.Wagon, c.Seat = m[1], m[2]
		return true
	}
	if m := wagonRe.FindStringSubmatch(text); m != nil {
		c.Wagon = m[1]
	}
	if m := seatRe.FindStringSubmatch(text); m != nil {
		c.Seat = m[1]
	}
	return c.Wagon != "" || c.Seat != ""
}

func matchClass(text string, c *Captures) bool {
	m := classRe.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	digit := m[1]
	if digit == "" {
		digit = m[2]
	}
	c.Class = digit + ". klasse"
	return true
}

func matchPrice(text string, c *Captures) bool {
	kr := priceKrRe.FindStringSubmatchIndex(text)
	dkk := priceDKKRe.FindStringSubmatchIndex(text)

	var amount string
	switch {
	case kr != nil && (dkk == nil || kr[0] <= dkk[0]):
		amount = text[kr[2]:kr[3]]
	case dkk != nil:
		amount = text[dkk[2]:dkk[3]]
	default:
		return false
	}
	c.Price = amount + " kr."
	return true
}

func parseClock(h, m string) (model.Clock, bool) {
	clk := model.Clock{Hour: atoi(h), Minute: atoi(m)}
	if clk.Hour < 0 || clk.Hour > 23 || clk.Minute < 0 || clk.Minute > 59 {
		return model.Clock{}, false
	}
	return clk, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
