// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"fmt"
	"strings"
	"time"
)

// DefaultProducer is the SOUR value written in the header.
const DefaultProducer = "OralGen"

// Serializer renders a Pedigree as a GEDCOM 5.5.1 lineage-linked document.
type Serializer struct {
	producer string
	now      func() time.Time
}

// SerializerOption configures a Serializer.
type SerializerOption func(*Serializer)

// WithProducer sets the SOUR value of the header.
func WithProducer(name string) SerializerOption {
	return func(s *Serializer) {
		if name != "" {
			s.producer = name
		}
	}
}

// WithClock sets the clock used for the header DATE.
func WithClock(now func() time.Time) SerializerOption {
	return func(s *Serializer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSerializer creates a Serializer.
func NewSerializer(opts ...SerializerOption) *Serializer {
	s := &Serializer{producer: DefaultProducer, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// gedcomDate formats t as DD MON YYYY with an upper-case month.
func gedcomDate(t time.Time) string {
	return strings.ToUpper(t.Format("02 Jan 2006"))
}

// FormatName marks the last whitespace-separated token of a name as the
// surname. Names with fewer than two tokens are returned trimmed.
func FormatName(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return strings.TrimSpace(fullName)
	}
	last := len(parts) - 1
	return fmt.Sprintf("%s /%s/", strings.Join(parts[:last], " "), parts[last])
}

// Serialize renders p. The output is deterministic for a fixed clock.
func (s *Serializer) Serialize(p *Pedigree) string {
	var b gedcomWriter
	b.line(0, "HEAD")
	b.line(1, "SOUR "+s.producer)
	b.line(1, "DATE "+gedcomDate(s.now()))
	b.line(1, "CHAR UTF-8")
	b.line(1, "GEDC")
	b.line(2, "VERS 5.5.1")
	b.line(2, "FORM LINEAGE-LINKED")

	if p != nil {
		for _, ind := range p.Individuals {
			s.individual(&b, p, ind)
		}
		for _, f := range p.Families {
			s.family(&b, f)
		}
	}

	b.line(0, "TRLR")
	return b.String()
}

func (s *Serializer) individual(b *gedcomWriter, p *Pedigree, ind Row) {
	b.line(0, fmt.Sprintf("%s INDI", individualXref(ind.RIN)))
	if name := FormatName(ind.FullName); name != "" {
		b.line(1, "NAME "+name)
	}
	if ind.Sex == SexMale || ind.Sex == SexFemale {
		b.line(1, "SEX "+string(ind.Sex))
	}
	event(b, "BIRT", ind.BirthDate, ind.BirthPlace)
	event(b, "DEAT", ind.DeathDate, ind.DeathPlace)
	for _, key := range p.SpouseIn(ind.RIN) {
		b.line(1, fmt.Sprintf("FAMS @%s@", key))
	}
	for _, key := range p.ChildIn(ind.RIN) {
		b.line(1, fmt.Sprintf("FAMC @%s@", key))
	}
}

func (s *Serializer) family(b *gedcomWriter, f *Family) {
	b.line(0, fmt.Sprintf("@%s@ FAM", f.Key))
	if f.ParentA != 0 {
		b.line(1, "HUSB "+individualXref(f.ParentA))
	}
	if f.ParentB != 0 {
		b.line(1, "WIFE "+individualXref(f.ParentB))
	}
	for _, c := range f.Children {
		b.line(1, "CHIL "+individualXref(c))
	}
}

func event(b *gedcomWriter, tag, date, place string) {
	if date == "" && place == "" {
		return
	}
	b.line(1, tag)
	if date != "" {
		b.line(2, "DATE "+date)
	}
	if place != "" {
		b.line(2, "PLAC "+place)
	}
}

func individualXref(rin int) string {
	return fmt.Sprintf("@I%d@", rin)
}

// gedcomWriter accumulates level-prefixed lines joined by newlines.
type gedcomWriter struct {
	strings.Builder
	n int
}

func (w *gedcomWriter) line(level int, text string) {
	if w.n > 0 {
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "%d %s", level, text)
	w.n++
}
