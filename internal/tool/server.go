// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "oralgen", Version: version}, nil)

	mcp.AddTool(server, MetadataExportGEDCOM, t.ExportGEDCOM)
	mcp.AddTool(server, MetadataNormalizeRows, t.NormalizeRows)
	mcp.AddTool(server, MetadataResolveFamilies, t.ResolveFamilies)

	if t.store != nil {
		mcp.AddTool(server, MetadataSaveSession, t.SaveSession)
		mcp.AddTool(server, MetadataListSessions, t.ListSessions)
		mcp.AddTool(server, MetadataGetSession, t.GetSession)
		mcp.AddTool(server, MetadataDeleteSession, t.DeleteSession)
		mcp.AddTool(server, MetadataUpdateRow, t.UpdateRow)
		mcp.AddTool(server, MetadataExportSession, t.ExportSession)
	}
	return server
}
