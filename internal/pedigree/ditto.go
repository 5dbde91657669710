// SPDX-License-Identifier: Apache-2.0

package pedigree

import "strings"

// IsDitto reports whether a transcribed field is a repeat-above marker.
func IsDitto(s string) bool {
	switch t := strings.TrimSpace(s); t {
	case `"`, "“", "”", "〃":
		return true
	default:
		return strings.EqualFold(t, "ditto")
	}
}

// dittoColumn tracks the last literal value seen in one column.
type dittoColumn struct {
	last string
}

func (c *dittoColumn) resolve(v string) string {
	if IsDitto(v) {
		return c.last
	}
	v = strings.TrimSpace(v)
	if v != "" {
		c.last = v
	}
	return v
}

// NormalizeDitto returns a copy of rows in which ditto markers in the birth
// and death place columns are replaced by the nearest preceding literal value
// of the same column. A marker with nothing above it becomes empty.
func NormalizeDitto(rows []Row) []Row {
	var birth, death dittoColumn
	out := make([]Row, len(rows))
	for i, r := range rows {
		r.BirthPlace = birth.resolve(r.BirthPlace)
		r.DeathPlace = death.resolve(r.DeathPlace)
		out[i] = r
	}
	return out
}
