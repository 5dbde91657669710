// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

// CSVParser decodes a spreadsheet export of the form: one header line naming
// the columns followed by one line per row. Headers are matched by the
// ColumnMapper, so both the JSON keys (rin, fullName, relation, ...) and the
// Portuguese column titles of the printed form are accepted. Unknown columns
// are ignored.
type CSVParser struct {
	mapper *ColumnMapper
}

func NewCSVParser() *CSVParser {
	return &CSVParser{mapper: NewColumnMapper()}
}

func (p *CSVParser) Name() string {
	return "csv"
}

func (p *CSVParser) CanHandle(source pedigree.Source) bool {
	switch strings.ToLower(source.Format) {
	case "csv":
		return true
	case "":
	default:
		return false
	}
	first := strings.SplitN(strings.TrimSpace(string(source.Content)), "\n", 2)[0]
	if !strings.Contains(first, ",") {
		return false
	}
	header, err := csv.NewReader(strings.NewReader(first)).Read()
	if err != nil {
		return false
	}
	_, ok := p.mapper.Map(header)["rin"]
	return ok
}

func (p *CSVParser) Parse(_ context.Context, source pedigree.Source) (pedigree.Document, error) {
	r := csv.NewReader(bytes.NewReader(source.Content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return pedigree.Document{Rows: []pedigree.Row{}}, nil
	}
	if err != nil {
		return pedigree.Document{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := p.mapper.Map(header)

	rows := []pedigree.Row{}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pedigree.Document{}, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		row := pedigree.Row{
			FullName:   get("fullName"),
			Relation:   get("relation"),
			Sex:        pedigree.Sex(get("sex")),
			BirthDate:  get("birthDate"),
			BirthPlace: get("birthPlace"),
			DeathDate:  get("deathDate"),
			DeathPlace: get("deathPlace"),
		}
		if row.RIN, err = atoiField(get("rin")); err != nil {
			return pedigree.Document{}, fmt.Errorf("CSV line %d: rin: %w", line, err)
		}
		if row.Page, err = atoiField(get("page")); err != nil {
			return pedigree.Document{}, fmt.Errorf("CSV line %d: page: %w", line, err)
		}
		if row.RowInPage, err = atoiField(get("row")); err != nil {
			return pedigree.Document{}, fmt.Errorf("CSV line %d: row: %w", line, err)
		}
		rows = append(rows, row)
	}
	return pedigree.Document{Rows: rows}, nil
}

// atoiField parses an optional integer column; blank means absent.
func atoiField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
