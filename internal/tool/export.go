// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

// MetadataExportGEDCOM describes the export_gedcom tool.
var MetadataExportGEDCOM = &mcp.Tool{
	Name: "export_gedcom",
	Description: "Convert a transcribed MZ11 genealogical form into a GEDCOM 5.5.1 lineage-linked document. " +
		"The content is either a list of rows or an object with 'metadata' and 'individuals'. " +
		"Supported formats: yaml, json, csv. " +
		"Ditto marks in the place columns are resolved, relation codes (C<n>, F<n>,<m>, P<k>) are " +
		"turned into families, and anomalies such as malformed codes or references to missing rows " +
		"are returned as warnings instead of failing the export.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Raw content of the transcribed form",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint. One of: yaml, json, csv. If omitted, auto-detection is used.",
				"enum":        []string{"yaml", "yml", "json", "csv"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the form (file path, upload name) used in error messages.",
			},
		},
	},
}

// InputExportGEDCOM is the input for the ExportGEDCOM tool.
type InputExportGEDCOM struct {
	Content  string `json:"content"`
	Format   string `json:"format"`
	SourceID string `json:"source_id"`
}

// OutputExportGEDCOM is the output for the ExportGEDCOM tool.
type OutputExportGEDCOM struct {
	// GEDCOM is the generated document.
	GEDCOM string `json:"gedcom"`
	// Filename is the suggested download name.
	Filename string `json:"filename"`
	// ParserUsed is the name of the parser that was selected.
	ParserUsed  string             `json:"parser_used"`
	Individuals int                `json:"individuals"`
	Families    int                `json:"families"`
	Warnings    []pedigree.Warning `json:"warnings"`
}

// ExportGEDCOM runs the pipeline over the provided form and returns the
// GEDCOM document.
func (t *Tools) ExportGEDCOM(ctx context.Context, _ *mcp.CallToolRequest, input InputExportGEDCOM) (*mcp.CallToolResult, OutputExportGEDCOM, error) {
	if input.Content == "" {
		return nil, OutputExportGEDCOM{}, fmt.Errorf("content is required")
	}

	sourceID := input.SourceID
	if sourceID == "" {
		sourceID = "unknown"
	}

	result, err := t.pipeline.Run(ctx, pedigree.Source{
		Content: []byte(input.Content),
		Format:  input.Format,
		ID:      sourceID,
	})
	if err != nil {
		return nil, OutputExportGEDCOM{}, err
	}

	return nil, exportOutput(result), nil
}

func exportOutput(result pedigree.Result) OutputExportGEDCOM {
	return OutputExportGEDCOM{
		GEDCOM:      result.GEDCOM,
		Filename:    pedigree.ExportFilename(result.Document.Metadata),
		ParserUsed:  result.ParserUsed,
		Individuals: len(result.Pedigree.Individuals),
		Families:    len(result.Pedigree.Families),
		Warnings:    result.Warnings,
	}
}
