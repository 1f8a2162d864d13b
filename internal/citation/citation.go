// Package citation formats archive records as bibliographic citations.
package citation

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultArchiveName = "Heritage Roots Archive"
	DefaultURL         = "https://heritageroots.org/collections"
)

type Style string

const (
	Chicago Style = "chicago"
	MLA     Style = "mla"
	APA     Style = "apa"
	BibTeX  Style = "bibtex"
)

// Styles lists every supported style in display order.
var Styles = []Style{Chicago, MLA, APA, BibTeX}

// ParseStyle accepts a style name case-insensitively.
func ParseStyle(s string) (Style, bool) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Styles {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Data describes a record. Year 0 and an empty Location mean absent.
type Data struct {
	CollectionName   string    `json:"collectionName"`
	RecordIdentifier string    `json:"recordIdentifier"`
	Year             int       `json:"year,omitempty"`
	Location         string    `json:"location,omitempty"`
	ArchiveName      string    `json:"archiveName,omitempty"`
	URL              string    `json:"url,omitempty"`
	AccessDate       time.Time `json:"accessDate,omitempty"`
}

// UnmarshalJSON accepts accessDate as RFC 3339 or as a plain YYYY-MM-DD date.
func (d *Data) UnmarshalJSON(b []byte) error {
	type plain Data
	aux := struct {
		*plain
		AccessDate string `json:"accessDate,omitempty"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	d.AccessDate = time.Time{}
	if aux.AccessDate == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, aux.AccessDate); err == nil {
			d.AccessDate = t
			return nil
		}
	}
	return fmt.Errorf("accessDate %q: want RFC 3339 or YYYY-MM-DD", aux.AccessDate)
}

type Citation struct {
	Style Style  `json:"style"`
	Text  string `json:"text"`
}

// Generator fills defaults and formats citations. The clock supplies the
// access date when the caller leaves it empty.
type Generator struct {
	now func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

func (g *Generator) withDefaults(d Data) Data {
	if d.ArchiveName == "" {
		d.ArchiveName = DefaultArchiveName
	}
	if d.URL == "" {
		d.URL = DefaultURL
	}
	if d.AccessDate.IsZero() {
		d.AccessDate = g.now()
	}
	return d
}

// Format renders d in the given style. Unknown styles fall back to Chicago.
func (g *Generator) Format(style Style, d Data) string {
	d = g.withDefaults(d)
	switch style {
	case MLA:
		return mla(d)
	case APA:
		return apa(d)
	case BibTeX:
		return bibtex(d)
	default:
		return chicago(d)
	}
}

// All renders d in every style.
func (g *Generator) All(d Data) []Citation {
	d = g.withDefaults(d)
	out := make([]Citation, 0, len(Styles))
	for _, st := range Styles {
		out = append(out, Citation{Style: st, Text: g.Format(st, d)})
	}
	return out
}

// Archive. "Record." *Collection*, Year. Location. Accessed January 2, 2006. URL.
func chicago(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. \"%s.\" *%s*", d.ArchiveName, sentence(d.RecordIdentifier), d.CollectionName)
	if d.Year > 0 {
		fmt.Fprintf(&b, ", %d", d.Year)
	}
	b.WriteString(".")
	if d.Location != "" {
		fmt.Fprintf(&b, " %s.", d.Location)
	}
	fmt.Fprintf(&b, " Accessed %s. %s.", d.AccessDate.Format("January 2, 2006"), d.URL)
	return b.String()
}

// "Record." *Collection*, Archive, Year, Location. Accessed 2 Jan. 2006, URL.
func mla(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\"%s.\" *%s*, %s", sentence(d.RecordIdentifier), d.CollectionName, d.ArchiveName)
	if d.Year > 0 {
		fmt.Fprintf(&b, ", %d", d.Year)
	}
	if d.Location != "" {
		fmt.Fprintf(&b, ", %s", d.Location)
	}
	fmt.Fprintf(&b, ". Accessed %s, %s.", mlaDate(d.AccessDate), d.URL)
	return b.String()
}

// sentence drops one trailing period so a quoted title ends with exactly one.
func sentence(s string) string {
	return strings.TrimSuffix(s, ".")
}

// MLA abbreviates months longer than four letters.
func mlaDate(t time.Time) string {
	month := t.Month().String()
	if len(month) > 4 {
		month = month[:3] + "."
	}
	return fmt.Sprintf("%d %s %d", t.Day(), month, t.Year())
}

// Archive. (Year). *Record* [Collection]. Location. Retrieved January 2, 2006, from URL
func apa(d Data) string {
	var b strings.Builder
	b.WriteString(d.ArchiveName)
	b.WriteString(".")
	if d.Year > 0 {
		fmt.Fprintf(&b, " (%d).", d.Year)
	}
	fmt.Fprintf(&b, " *%s* [%s].", d.RecordIdentifier, d.CollectionName)
	if d.Location != "" {
		fmt.Fprintf(&b, " %s.", d.Location)
	}
	fmt.Fprintf(&b, " Retrieved %s, from %s", d.AccessDate.Format("January 2, 2006"), d.URL)
	return b.String()
}

func bibtex(d Data) string {
	fields := [][2]string{
		{"title", latexEscape(d.RecordIdentifier)},
		{"howpublished", latexEscape(d.CollectionName)},
		{"publisher", latexEscape(d.ArchiveName)},
	}
	if d.Year > 0 {
		fields = append(fields, [2]string{"year", strconv.Itoa(d.Year)})
	}
	if d.Location != "" {
		fields = append(fields, [2]string{"address", latexEscape(d.Location)})
	}
	fields = append(fields,
		[2]string{"url", d.URL},
		[2]string{"note", "Accessed " + d.AccessDate.Format("2006-01-02")},
	)

	var b strings.Builder
	fmt.Fprintf(&b, "@misc{%s,\n", bibKey(d))
	for i, f := range fields {
		fmt.Fprintf(&b, "  %s = {%s}", f[0], f[1])
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// bibKey is the record identifier slugged, suffixed with the year when known.
func bibKey(d Data) string {
	key := strings.Trim(nonKeyChars.ReplaceAllString(strings.ToLower(d.RecordIdentifier), "_"), "_")
	if key == "" {
		key = "record"
	}
	if d.Year > 0 {
		key += strconv.Itoa(d.Year)
	}
	return key
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func latexEscape(s string) string {
	return latexReplacer.Replace(s)
}

var emphasis = regexp.MustCompile(`\*([^*]+)\*`)

// Display converts a formatted citation to HTML. Narrative styles have their
// *emphasis* markup turned into <em>; BibTeX is shown verbatim in <pre>.
func Display(style Style, text string) string {
	escaped := html.EscapeString(text)
	if style == BibTeX {
		return "<pre>" + escaped + "</pre>"
	}
	return emphasis.ReplaceAllString(escaped, "<em>$1</em>")
}
