// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralgen/oralgen-mcp/internal/pedigree"
	"github.com/oralgen/oralgen-mcp/internal/session"
)

const yamlForm = `metadata:
  interviewId: INT-9
  interviewPlace: Xai-Xai
  originalFilename: familia_cossa
individuals:
  - rin: 1
    fullName: Amélia Cossa
    relation: C2
    sex: F
    birthPlace: Xai-Xai
  - rin: 2
    fullName: Tomás Cossa
    sex: M
    birthPlace: '"'
  - rin: 3
    fullName: Lina Cossa
    relation: F1,2
`

func fixedClock() time.Time {
	return time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)
}

func newTestTools(t *testing.T, withStore bool) *Tools {
	t.Helper()
	p, err := pedigree.NewPipeline(DefaultParsers(), pedigree.WithNow(fixedClock))
	require.NoError(t, err)

	var store *session.Store
	if withStore {
		store, err = session.Open(":memory:", nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
	}
	return New(p, store, nil)
}

// ---------------------------------------------------------------------------
// export_gedcom
// ---------------------------------------------------------------------------

func TestExportGEDCOM(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}
	tools := newTestTools(t, false)

	tests := []struct {
		name           string
		input          InputExportGEDCOM
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputExportGEDCOM)
	}{
		{
			name:        "empty content returns error",
			input:       InputExportGEDCOM{Content: ""},
			wantErr:     true,
			errContains: "content is required",
		},
		{
			name:  "yaml form",
			input: InputExportGEDCOM{Content: yamlForm, Format: "yaml", SourceID: "familia_cossa.yaml"},
			validateOutput: func(t *testing.T, output OutputExportGEDCOM) {
				assert.Equal(t, "yaml", output.ParserUsed)
				assert.Equal(t, "MZ11_familia_cossa.ged", output.Filename)
				assert.Equal(t, 3, output.Individuals)
				assert.Equal(t, 1, output.Families)
				assert.Empty(t, output.Warnings)
				assert.Contains(t, output.GEDCOM, "0 @FAM_COUPLE_1_2@ FAM\n1 HUSB @I2@\n1 WIFE @I1@\n1 CHIL @I3@")
				assert.Contains(t, output.GEDCOM, "1 NAME Tomás /Cossa/\n1 SEX M\n1 BIRT\n2 PLAC Xai-Xai")
			},
		},
		{
			name:  "csv form with auto-detection",
			input: InputExportGEDCOM{Content: "rin,nome,relacao\n1,Ana,F7\n"},
			validateOutput: func(t *testing.T, output OutputExportGEDCOM) {
				assert.Equal(t, "csv", output.ParserUsed)
				assert.Equal(t, "MZ11_export.ged", output.Filename)
				require.Len(t, output.Warnings, 1)
				assert.Equal(t, pedigree.WarnDanglingReference, output.Warnings[0].Kind)
			},
		},
		{
			name:        "unsupported format",
			input:       InputExportGEDCOM{Content: "<form/>", Format: "xml", SourceID: "form.xml"},
			wantErr:     true,
			errContains: "unsupported row format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, output, err := tools.ExportGEDCOM(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			assert.Nil(t, result, "CallToolResult should be nil for typed handlers")
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// normalize_rows and resolve_families
// ---------------------------------------------------------------------------

func TestNormalizeRows(t *testing.T) {
	ctx := context.Background()
	tools := newTestTools(t, false)

	_, _, err := tools.NormalizeRows(ctx, nil, InputRows{})
	require.ErrorContains(t, err, "rows is required")

	_, out, err := tools.NormalizeRows(ctx, nil, InputRows{Rows: []pedigree.Row{
		{FullName: "Ana", DeathPlace: "Chókwè"},
		{FullName: "Rui", DeathPlace: "ditto", Sex: "homem"},
	}})
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, 2, out.Rows[1].RIN)
	assert.Equal(t, "Chókwè", out.Rows[1].DeathPlace)
	assert.Equal(t, pedigree.SexMale, out.Rows[1].Sex)
}

func TestResolveFamilies(t *testing.T) {
	ctx := context.Background()
	tools := newTestTools(t, false)

	_, _, err := tools.ResolveFamilies(ctx, nil, InputRows{})
	require.ErrorContains(t, err, "rows is required")

	_, out, err := tools.ResolveFamilies(ctx, nil, InputRows{Rows: []pedigree.Row{
		{RIN: 1, Relation: "C2", Sex: "M"},
		{RIN: 2, Sex: "F"},
		{RIN: 3, Relation: "F1"},
		{RIN: 4, Relation: "X"},
	}})
	require.NoError(t, err)

	assert.Equal(t, []pedigree.Family{
		{Key: "FAM_COUPLE_1_2", ParentA: 1, ParentB: 2, Children: []int{3}},
	}, out.Families)
	assert.Equal(t, []Membership{
		{RIN: 1, SpouseIn: []string{"FAM_COUPLE_1_2"}, ChildIn: []string{}},
		{RIN: 2, SpouseIn: []string{"FAM_COUPLE_1_2"}, ChildIn: []string{}},
		{RIN: 3, SpouseIn: []string{}, ChildIn: []string{"FAM_COUPLE_1_2"}},
		{RIN: 4, SpouseIn: []string{}, ChildIn: []string{}},
	}, out.Memberships)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, pedigree.WarnMalformedCode, out.Warnings[0].Kind)
}

// ---------------------------------------------------------------------------
// Session tools
// ---------------------------------------------------------------------------

func TestSessionTools(t *testing.T) {
	ctx := context.Background()
	tools := newTestTools(t, true)

	_, doc, err := tools.NormalizeRows(ctx, nil, InputRows{Rows: []pedigree.Row{}})
	require.NoError(t, err)
	assert.Empty(t, doc.Rows)

	parsed, err := tools.pipeline.Run(ctx, pedigree.Source{Content: []byte(yamlForm), Format: "yaml"})
	require.NoError(t, err)

	_, saved, err := tools.SaveSession(ctx, nil, InputSaveSession{Document: parsed.Document})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "INT-9", saved.InterviewID)
	assert.Equal(t, "Amélia Cossa", saved.IntervieweeName)
	assert.Equal(t, 3, saved.TotalNames)
	assert.Equal(t, session.StatusComplete, saved.Status)

	_, draft, err := tools.SaveSession(ctx, nil, InputSaveSession{ID: "draft", Document: pedigree.Document{}})
	require.NoError(t, err)
	assert.Equal(t, "draft", draft.ID)
	assert.Equal(t, session.StatusIncomplete, draft.Status)

	t.Run("list", func(t *testing.T) {
		_, out, err := tools.ListSessions(ctx, nil, InputListSessions{})
		require.NoError(t, err)
		require.Len(t, out.Sessions, 2)

		_, out, err = tools.ListSessions(ctx, nil, InputListSessions{Query: "cossa"})
		require.NoError(t, err)
		require.Len(t, out.Sessions, 1)
		assert.Equal(t, saved.ID, out.Sessions[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		_, _, err := tools.GetSession(ctx, nil, InputSessionID{})
		require.ErrorContains(t, err, "id is required")

		_, got, err := tools.GetSession(ctx, nil, InputSessionID{ID: saved.ID})
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.Session.ID)
		require.Len(t, got.Document.Rows, 3)
		assert.Equal(t, "Xai-Xai", got.Document.Rows[1].BirthPlace)

		_, _, err = tools.GetSession(ctx, nil, InputSessionID{ID: "missing"})
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("update row then export", func(t *testing.T) {
		_, upd, err := tools.UpdateRow(ctx, nil, InputUpdateRow{ID: saved.ID, RIN: 3, Field: "sex", Value: "F"})
		require.NoError(t, err)
		assert.Equal(t, pedigree.SexFemale, upd.Row.Sex)

		_, _, err = tools.UpdateRow(ctx, nil, InputUpdateRow{ID: saved.ID, RIN: 3, Field: "age", Value: "4"})
		require.ErrorIs(t, err, session.ErrUnknownField)

		_, out, err := tools.ExportSession(ctx, nil, InputSessionID{ID: saved.ID})
		require.NoError(t, err)
		assert.Equal(t, "MZ11_familia_cossa.ged", out.Filename)
		assert.Contains(t, out.GEDCOM, "0 @I3@ INDI\n1 NAME Lina /Cossa/\n1 SEX F\n1 FAMC @FAM_COUPLE_1_2@")
	})

	t.Run("delete", func(t *testing.T) {
		_, _, err := tools.DeleteSession(ctx, nil, InputSessionID{})
		require.ErrorContains(t, err, "id is required")

		_, out, err := tools.DeleteSession(ctx, nil, InputSessionID{ID: "draft"})
		require.NoError(t, err)
		assert.Equal(t, "draft", out.Deleted)

		_, _, err = tools.DeleteSession(ctx, nil, InputSessionID{ID: "draft"})
		require.ErrorIs(t, err, session.ErrNotFound)

		_, _, err = tools.ExportSession(ctx, nil, InputSessionID{ID: "draft"})
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

func connect(t *testing.T, tools *Tools) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(tools, "test")
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tl := range res.Tools {
		names = append(names, tl.Name)
	}
	return names
}

func TestNewServer_RegisteredTools(t *testing.T) {
	stateless := []string{"export_gedcom", "normalize_rows", "resolve_families"}
	withSessions := append(stateless, "save_session", "list_sessions", "get_session", "delete_session", "update_row", "export_session")

	assert.ElementsMatch(t, stateless, toolNames(t, connect(t, newTestTools(t, false))))
	assert.ElementsMatch(t, withSessions, toolNames(t, connect(t, newTestTools(t, true))))
}

func TestNewServer_CallExport(t *testing.T) {
	cs := connect(t, newTestTools(t, false))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "export_gedcom",
		Arguments: map[string]any{"content": yamlForm, "format": "yaml"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content should be an object, got %T", res.StructuredContent)
	assert.Equal(t, "MZ11_familia_cossa.ged", out["filename"])
	assert.Contains(t, out["gedcom"], "0 TRLR")

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "export_gedcom",
		Arguments: map[string]any{"content": ""},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
