// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
	"github.com/oralgen/oralgen-mcp/internal/session"
)

func idSchema(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"id"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string", "description": desc},
		},
	}
}

// MetadataSaveSession describes the save_session tool.
var MetadataSaveSession = &mcp.Tool{
	Name:        "save_session",
	Description: "Save a form under review. Omit id to create a new session; pass an existing id to overwrite it.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document"},
		"properties": map[string]interface{}{
			"id": map[string]interface{}{"type": "string"},
			"document": map[string]interface{}{
				"type":        "object",
				"description": "Form with 'metadata' and 'individuals'.",
				"properties": map[string]interface{}{
					"metadata":    map[string]interface{}{"type": "object"},
					"individuals": map[string]interface{}{"type": "array", "items": rowItemSchema},
				},
			},
		},
	},
}

// InputSaveSession is the input for the SaveSession tool.
type InputSaveSession struct {
	ID       string            `json:"id"`
	Document pedigree.Document `json:"document"`
}

// SessionSummary is one line of the interview list.
type SessionSummary struct {
	ID              string         `json:"id"`
	Timestamp       string         `json:"timestamp"`
	InterviewID     string         `json:"interview_id"`
	IntervieweeName string         `json:"interviewee_name"`
	TotalNames      int            `json:"total_names"`
	Status          session.Status `json:"status"`
}

func summarize(s session.Session) SessionSummary {
	md := s.Document.Metadata
	return SessionSummary{
		ID:              s.ID,
		Timestamp:       s.Timestamp.Format(time.RFC3339),
		InterviewID:     md.InterviewID,
		IntervieweeName: md.IntervieweeName,
		TotalNames:      len(s.Document.Rows),
		Status:          session.StatusOf(s.Document),
	}
}

// SaveSession prepares the document and stores it.
func (t *Tools) SaveSession(ctx context.Context, _ *mcp.CallToolRequest, input InputSaveSession) (*mcp.CallToolResult, SessionSummary, error) {
	saved, err := t.store.Save(ctx, session.Session{
		ID:       input.ID,
		Document: pedigree.Prepare(input.Document),
	})
	if err != nil {
		return nil, SessionSummary{}, err
	}
	t.logger.Info("session saved", zap.String("id", saved.ID))
	return nil, summarize(saved), nil
}

// MetadataListSessions describes the list_sessions tool.
var MetadataListSessions = &mcp.Tool{
	Name:        "list_sessions",
	Description: "List saved sessions, newest first. The optional query filters by interviewee name or interview ID.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
	},
}

// InputListSessions is the input for the ListSessions tool.
type InputListSessions struct {
	Query string `json:"query"`
}

// OutputListSessions is the output for the ListSessions tool.
type OutputListSessions struct {
	Sessions []SessionSummary `json:"sessions"`
}

// ListSessions returns the matching session summaries.
func (t *Tools) ListSessions(ctx context.Context, _ *mcp.CallToolRequest, input InputListSessions) (*mcp.CallToolResult, OutputListSessions, error) {
	sessions, err := t.store.List(ctx, input.Query)
	if err != nil {
		return nil, OutputListSessions{}, err
	}
	out := OutputListSessions{Sessions: make([]SessionSummary, 0, len(sessions))}
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, summarize(s))
	}
	return nil, out, nil
}

// MetadataGetSession describes the get_session tool.
var MetadataGetSession = &mcp.Tool{
	Name:        "get_session",
	Description: "Load a saved session with all its rows.",
	InputSchema: idSchema("Session ID"),
}

// InputSessionID names one session.
type InputSessionID struct {
	ID string `json:"id"`
}

// OutputGetSession is the output for the GetSession tool.
type OutputGetSession struct {
	Session  SessionSummary    `json:"session"`
	Document pedigree.Document `json:"document"`
}

// GetSession loads one session.
func (t *Tools) GetSession(ctx context.Context, _ *mcp.CallToolRequest, input InputSessionID) (*mcp.CallToolResult, OutputGetSession, error) {
	if input.ID == "" {
		return nil, OutputGetSession{}, fmt.Errorf("id is required")
	}
	s, err := t.store.Get(ctx, input.ID)
	if err != nil {
		return nil, OutputGetSession{}, err
	}
	return nil, OutputGetSession{Session: summarize(s), Document: s.Document}, nil
}

// MetadataDeleteSession describes the delete_session tool.
var MetadataDeleteSession = &mcp.Tool{
	Name:        "delete_session",
	Description: "Delete a saved session.",
	InputSchema: idSchema("Session ID"),
}

// OutputDeleteSession is the output for the DeleteSession tool.
type OutputDeleteSession struct {
	Deleted string `json:"deleted"`
}

// DeleteSession removes one session.
func (t *Tools) DeleteSession(ctx context.Context, _ *mcp.CallToolRequest, input InputSessionID) (*mcp.CallToolResult, OutputDeleteSession, error) {
	if input.ID == "" {
		return nil, OutputDeleteSession{}, fmt.Errorf("id is required")
	}
	if err := t.store.Delete(ctx, input.ID); err != nil {
		return nil, OutputDeleteSession{}, err
	}
	t.logger.Info("session deleted", zap.String("id", input.ID))
	return nil, OutputDeleteSession{Deleted: input.ID}, nil
}

// MetadataUpdateRow describes the update_row tool.
var MetadataUpdateRow = &mcp.Tool{
	Name: "update_row",
	Description: "Correct one field of one row in a saved session. " +
		"Editable fields: fullName, relation, sex, birthDate, birthPlace, deathDate, deathPlace, page, row.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"id", "rin", "field", "value"},
		"properties": map[string]interface{}{
			"id":    map[string]interface{}{"type": "string"},
			"rin":   map[string]interface{}{"type": "integer"},
			"field": map[string]interface{}{"type": "string", "enum": []string{"fullName", "relation", "sex", "birthDate", "birthPlace", "deathDate", "deathPlace", "page", "row"}},
			"value": map[string]interface{}{"type": "string"},
		},
	},
}

// InputUpdateRow is the input for the UpdateRow tool.
type InputUpdateRow struct {
	ID    string `json:"id"`
	RIN   int    `json:"rin"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// OutputUpdateRow is the output for the UpdateRow tool.
type OutputUpdateRow struct {
	Row pedigree.Row `json:"row"`
}

// UpdateRow applies one review edit.
func (t *Tools) UpdateRow(ctx context.Context, _ *mcp.CallToolRequest, input InputUpdateRow) (*mcp.CallToolResult, OutputUpdateRow, error) {
	s, err := t.store.UpdateRow(ctx, input.ID, input.RIN, input.Field, input.Value)
	if err != nil {
		return nil, OutputUpdateRow{}, err
	}
	for _, r := range s.Document.Rows {
		if r.RIN == input.RIN {
			return nil, OutputUpdateRow{Row: r}, nil
		}
	}
	return nil, OutputUpdateRow{}, fmt.Errorf("session %s row %d: %w", input.ID, input.RIN, session.ErrNotFound)
}

// MetadataExportSession describes the export_session tool.
var MetadataExportSession = &mcp.Tool{
	Name:        "export_session",
	Description: "Export a saved session as a GEDCOM 5.5.1 document using its current, reviewed rows.",
	InputSchema: idSchema("Session ID"),
}

// ExportSession runs the stored document through the pipeline.
func (t *Tools) ExportSession(ctx context.Context, _ *mcp.CallToolRequest, input InputSessionID) (*mcp.CallToolResult, OutputExportGEDCOM, error) {
	if input.ID == "" {
		return nil, OutputExportGEDCOM{}, fmt.Errorf("id is required")
	}
	s, err := t.store.Get(ctx, input.ID)
	if err != nil {
		return nil, OutputExportGEDCOM{}, err
	}
	result, err := t.pipeline.RunDocument(ctx, s.Document)
	if err != nil {
		return nil, OutputExportGEDCOM{}, err
	}
	return nil, exportOutput(result), nil
}
