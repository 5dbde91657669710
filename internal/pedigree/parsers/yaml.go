// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
)

// YAMLParser decodes YAML and JSON row documents. It accepts either a bare
// list of rows or an object with metadata and an individuals list, which is
// the shape the extraction service returns.
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Name() string {
	return "yaml"
}

func (p *YAMLParser) CanHandle(source pedigree.Source) bool {
	switch strings.ToLower(source.Format) {
	case "yaml", "yml", "json":
		return true
	case "":
	default:
		return false
	}
	content := strings.TrimSpace(string(source.Content))
	// JSON object or array
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return true
	}
	// YAML sequence of rows or explicit document start
	if isYAMLList(content) || strings.HasPrefix(content, "---") {
		return true
	}
	// Plain YAML: key: value at the start, but not a CSV header
	first := strings.SplitN(content, "\n", 2)[0]
	return strings.Contains(first, ":") && !strings.Contains(first, ",")
}

func (p *YAMLParser) Parse(_ context.Context, source pedigree.Source) (pedigree.Document, error) {
	content := strings.TrimSpace(string(source.Content))
	if content == "" {
		return pedigree.Document{Rows: []pedigree.Row{}}, nil
	}

	if strings.HasPrefix(content, "[") || isYAMLList(content) {
		var rows []pedigree.Row
		if err := yaml.Unmarshal([]byte(content), &rows); err != nil {
			return pedigree.Document{}, fmt.Errorf("failed to unmarshal row list: %w", err)
		}
		if rows == nil {
			rows = []pedigree.Row{}
		}
		return pedigree.Document{Rows: rows}, nil
	}

	var doc pedigree.Document
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return pedigree.Document{}, fmt.Errorf("failed to unmarshal YAML/JSON: %w", err)
	}
	if doc.Rows == nil {
		doc.Rows = []pedigree.Row{}
	}
	return doc, nil
}

func isYAMLList(content string) bool {
	return strings.HasPrefix(content, "- ") || strings.HasPrefix(content, "-\n")
}
