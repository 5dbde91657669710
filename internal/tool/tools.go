// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"go.uber.org/zap"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
	"github.com/oralgen/oralgen-mcp/internal/pedigree/parsers"
	"github.com/oralgen/oralgen-mcp/internal/session"
)

// DefaultParsers returns the row parsers in selection order. CSV is tried
// after YAML; the YAML parser refuses content whose first line looks like a
// CSV header.
func DefaultParsers() []pedigree.RowParser {
	return []pedigree.RowParser{
		parsers.NewYAMLParser(),
		parsers.NewCSVParser(),
	}
}

// Tools holds the collaborators the MCP tool handlers share.
type Tools struct {
	pipeline *pedigree.Pipeline
	store    *session.Store
	logger   *zap.Logger
}

// New creates the tool set. store may be nil, in which case the session
// tools are not registered.
func New(pipeline *pedigree.Pipeline, store *session.Store, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{pipeline: pipeline, store: store, logger: logger}
}

// rowItemSchema is the JSON schema of one transcribed row.
var rowItemSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"rin":        map[string]interface{}{"type": "integer", "description": "Record number (1-75). Inferred from position when 0 or absent."},
		"fullName":   map[string]interface{}{"type": "string"},
		"relation":   map[string]interface{}{"type": "string", "description": "Kinship code: C<n> spouse of n, F<n>[,<m>] child of n (and m), P<k> parent of k."},
		"sex":        map[string]interface{}{"type": "string", "description": "M, F or empty."},
		"birthDate":  map[string]interface{}{"type": "string"},
		"birthPlace": map[string]interface{}{"type": "string", "description": "A lone \" or 'ditto' repeats the place above."},
		"deathDate":  map[string]interface{}{"type": "string"},
		"deathPlace": map[string]interface{}{"type": "string", "description": "A lone \" or 'ditto' repeats the place above."},
		"page":       map[string]interface{}{"type": "integer"},
		"row":        map[string]interface{}{"type": "integer"},
	},
}
