// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

// MetadataNormalizeRows describes the normalize_rows tool.
var MetadataNormalizeRows = &mcp.Tool{
	Name: "normalize_rows",
	Description: "Clean raw extracted rows: infer missing record numbers, pages and row positions, " +
		"canonicalise sex, and replace ditto marks in the birth and death place columns with " +
		"the value above them.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"rows"},
		"properties": map[string]interface{}{
			"rows": map[string]interface{}{
				"type":  "array",
				"items": rowItemSchema,
			},
		},
	},
}

// InputRows carries a row snapshot.
type InputRows struct {
	Rows []pedigree.Row `json:"rows"`
}

// OutputNormalizeRows is the output for the NormalizeRows tool.
type OutputNormalizeRows struct {
	Rows []pedigree.Row `json:"rows"`
}

// NormalizeRows completes rows and resolves ditto marks.
func (t *Tools) NormalizeRows(_ context.Context, _ *mcp.CallToolRequest, input InputRows) (*mcp.CallToolResult, OutputNormalizeRows, error) {
	if input.Rows == nil {
		return nil, OutputNormalizeRows{}, fmt.Errorf("rows is required")
	}
	return nil, OutputNormalizeRows{Rows: pedigree.NormalizeDitto(pedigree.Complete(input.Rows))}, nil
}

// MetadataResolveFamilies describes the resolve_families tool.
var MetadataResolveFamilies = &mcp.Tool{
	Name: "resolve_families",
	Description: "Resolve the relation codes of a row snapshot into family units without producing " +
		"a GEDCOM document. Returns every family with its parents and children, the families " +
		"each record belongs to, and any warnings.",
	InputSchema: MetadataNormalizeRows.InputSchema,
}

// Membership lists the families one record belongs to.
type Membership struct {
	RIN      int      `json:"rin"`
	SpouseIn []string `json:"spouse_in"`
	ChildIn  []string `json:"child_in"`
}

// OutputResolveFamilies is the output for the ResolveFamilies tool.
type OutputResolveFamilies struct {
	Families    []pedigree.Family  `json:"families"`
	Memberships []Membership       `json:"memberships"`
	Warnings    []pedigree.Warning `json:"warnings"`
}

// ResolveFamilies prepares rows and returns the resolved family units.
func (t *Tools) ResolveFamilies(_ context.Context, _ *mcp.CallToolRequest, input InputRows) (*mcp.CallToolResult, OutputResolveFamilies, error) {
	if input.Rows == nil {
		return nil, OutputResolveFamilies{}, fmt.Errorf("rows is required")
	}
	doc := pedigree.Prepare(pedigree.Document{Rows: input.Rows})
	ped, err := pedigree.Resolve(doc.Rows)
	if err != nil {
		return nil, OutputResolveFamilies{}, err
	}

	out := OutputResolveFamilies{
		Families:    make([]pedigree.Family, 0, len(ped.Families)),
		Memberships: make([]Membership, 0, len(ped.Individuals)),
		Warnings:    ped.Warnings,
	}
	for _, f := range ped.Families {
		out.Families = append(out.Families, *f)
	}
	for _, ind := range ped.Individuals {
		out.Memberships = append(out.Memberships, Membership{
			RIN:      ind.RIN,
			SpouseIn: nonNil(ped.SpouseIn(ind.RIN)),
			ChildIn:  nonNil(ped.ChildIn(ind.RIN)),
		})
	}
	return nil, out, nil
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
