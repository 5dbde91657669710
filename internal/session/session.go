// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

var (
	// ErrNotFound is returned when no session or row has the requested ID.
	ErrNotFound = errors.New("not found")
	// ErrUnknownField is returned by UpdateRow for a field the review screen
	// cannot edit.
	ErrUnknownField = errors.New("unknown row field")
)

// Status is the review state shown in the interview list.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// Session is a saved review of one form.
type Session struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Document  pedigree.Document `json:"data"`
}

// StatusOf reports a session as incomplete while the interviewee name or
// place is missing or no rows were transcribed.
func StatusOf(doc pedigree.Document) Status {
	md := doc.Metadata
	if md.IntervieweeName == "" || md.InterviewPlace == "" || len(doc.Rows) == 0 {
		return StatusIncomplete
	}
	return StatusComplete
}

// Matches reports whether the interviewee name or the interview ID contains
// query, ignoring case. An empty query matches everything.
func (s Session) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	md := s.Document.Metadata
	return strings.Contains(strings.ToLower(md.IntervieweeName), q) ||
		strings.Contains(strings.ToLower(md.InterviewID), q)
}

// SetField applies one review edit to a row. Field names are the JSON keys
// of pedigree.Row.
func SetField(r *pedigree.Row, field, value string) error {
	switch field {
	case "fullName":
		r.FullName = value
	case "relation":
		r.Relation = value
	case "sex":
		r.Sex = pedigree.ParseSex(value)
	case "birthDate":
		r.BirthDate = value
	case "birthPlace":
		r.BirthPlace = value
	case "deathDate":
		r.DeathDate = value
	case "deathPlace":
		r.DeathPlace = value
	case "page", "row":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", field, err)
		}
		if field == "page" {
			r.Page = n
		} else {
			r.RowInPage = n
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
