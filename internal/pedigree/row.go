// SPDX-License-Identifier: Apache-2.0

package pedigree

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PageSize is the number of rows on one page of the MZ11 form.
const PageSize = 25

// FormRows is the total number of rows on an MZ11 form (three pages).
const FormRows = 3 * PageSize

// Sex is the recorded sex of an individual. The zero value means unknown.
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
)

// ParseSex maps a transcribed sex column to a Sex. Anything it does not
// recognise is unknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male", "masculino", "h", "homem":
		return SexMale
	case "f", "female", "feminino", "mulher":
		return SexFemale
	}
	return SexUnknown
}

// Row is one transcribed person on the form. RIN is the only identifier used
// for cross references.
type Row struct {
	RIN        int    `json:"rin" yaml:"rin"`
	FullName   string `json:"fullName" yaml:"fullName"`
	Relation   string `json:"relation" yaml:"relation"`
	Sex        Sex    `json:"sex" yaml:"sex"`
	BirthDate  string `json:"birthDate" yaml:"birthDate"`
	BirthPlace string `json:"birthPlace" yaml:"birthPlace"`
	DeathDate  string `json:"deathDate" yaml:"deathDate"`
	DeathPlace string `json:"deathPlace" yaml:"deathPlace"`
	Page       int    `json:"page" yaml:"page"`
	RowInPage  int    `json:"row" yaml:"row"`
}

// Metadata describes the interview a form was collected in.
type Metadata struct {
	InterviewID      string `json:"interviewId" yaml:"interviewId"`
	InterviewDate    string `json:"interviewDate" yaml:"interviewDate"`
	InterviewPlace   string `json:"interviewPlace" yaml:"interviewPlace"`
	IntervieweeName  string `json:"intervieweeName" yaml:"intervieweeName"`
	IntervieweeRIN   string `json:"intervieweeRin" yaml:"intervieweeRin"`
	TotalNames       int    `json:"totalNames" yaml:"totalNames"`
	OriginalFilename string `json:"originalFilename,omitempty" yaml:"originalFilename,omitempty"`
}

// Document is a whole transcribed form: interview metadata plus rows in
// document order.
type Document struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Rows     []Row    `json:"individuals" yaml:"individuals"`
}

// PageOf returns the form page a RIN is printed on.
func PageOf(rin int) int {
	if rin <= 0 {
		return 0
	}
	return (rin-1)/PageSize + 1
}

// RowOf returns the position of a RIN within its page, starting at 1.
func RowOf(rin int) int {
	if rin <= 0 {
		return 0
	}
	return (rin-1)%PageSize + 1
}

// Complete returns a copy of rows with missing RINs inferred from position,
// missing page/row inferred from the RIN, sex canonicalised and text fields
// trimmed and NFC-normalised.
func Complete(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if r.RIN <= 0 {
			r.RIN = i + 1
		}
		if r.Page <= 0 {
			r.Page = PageOf(r.RIN)
		}
		if r.RowInPage <= 0 {
			r.RowInPage = RowOf(r.RIN)
		}
		r.Sex = ParseSex(string(r.Sex))
		r.FullName = cleanText(r.FullName)
		r.Relation = strings.TrimSpace(r.Relation)
		r.BirthDate = cleanText(r.BirthDate)
		r.BirthPlace = cleanText(r.BirthPlace)
		r.DeathDate = cleanText(r.DeathDate)
		r.DeathPlace = cleanText(r.DeathPlace)
		out[i] = r
	}
	return out
}

// CompleteMetadata fills the metadata fields the extraction step leaves
// empty.
func CompleteMetadata(md Metadata, rows []Row) Metadata {
	if md.IntervieweeName == "" && len(rows) > 0 {
		md.IntervieweeName = rows[0].FullName
	}
	if md.IntervieweeRIN == "" {
		md.IntervieweeRIN = "1"
	}
	if md.TotalNames == 0 {
		md.TotalNames = len(rows)
	}
	return md
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
