// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// columnRule maps a set of header aliases to a row field.
type columnRule struct {
	aliases []string
	field   string
}

// columnRules is the header-to-field table used by the CSV parser. Aliases
// are compared after folding case and accents and dropping spaces,
// underscores and dashes. Rules are evaluated in order; the first match wins.
var columnRules = []columnRule{
	{aliases: []string{"rin", "n", "no", "num", "numero", "record", "recordnumber"}, field: "rin"},
	{aliases: []string{"fullname", "name", "nome", "nomecompleto"}, field: "fullName"},
	{aliases: []string{"relation", "relationcode", "relacao", "codigo", "ebuild"}, field: "relation"},
	{aliases: []string{"sex", "sexo", "gender"}, field: "sex"},
	{aliases: []string{"birthdate", "born", "nascimento", "datanascimento", "datadenascimento"}, field: "birthDate"},
	{aliases: []string{"birthplace", "localnascimento", "localdenascimento", "naturalidade"}, field: "birthPlace"},
	{aliases: []string{"deathdate", "died", "obito", "dataobito", "datadeobito", "falecimento"}, field: "deathDate"},
	{aliases: []string{"deathplace", "localobito", "localdeobito", "localfalecimento"}, field: "deathPlace"},
	{aliases: []string{"page", "pagina", "pag"}, field: "page"},
	{aliases: []string{"row", "linha", "line"}, field: "row"},
}

// ColumnMapper maps CSV header names to row fields.
type ColumnMapper struct{}

// NewColumnMapper creates a new ColumnMapper.
func NewColumnMapper() *ColumnMapper {
	return &ColumnMapper{}
}

// Map returns the index of each recognised field in header. When two
// columns map to the same field the first one wins; unknown columns are
// ignored.
func (m *ColumnMapper) Map(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		field := m.mapHeader(h)
		if field == "" {
			continue
		}
		if _, taken := cols[field]; !taken {
			cols[field] = i
		}
	}
	return cols
}

func (m *ColumnMapper) mapHeader(h string) string {
	key := foldHeader(h)
	for _, rule := range columnRules {
		for _, alias := range rule.aliases {
			if key == alias {
				return rule.field
			}
		}
	}
	return ""
}

// foldHeader lower-cases h, strips accents and drops separators so that
// "Data de Óbito", "data_de_obito" and "DataDeObito" compare equal.
func foldHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch r {
		case ' ', '_', '-', '.', '\t', 'º', '°':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
