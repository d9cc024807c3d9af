package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/recallmem/recall/pkg/memory"
	"github.com/recallmem/recall/pkg/response"
	"github.com/recallmem/recall/pkg/vectorstore"
)

// Server wires the unstructured memory client onto the seven MCP tools
// of §6.
type Server struct {
	mcp         *mcp.Server
	client      *memory.Client
	defaultUser string
}

// New builds the MCP server. defaultUser is the server-configured
// fallback used when a tool call omits userId (§6).
func New(client *memory.Client, defaultUser, version string) *Server {
	s := &Server{
		mcp:         mcp.NewServer(&mcp.Implementation{Name: "recall", Version: version}, nil),
		client:      client,
		defaultUser: defaultUser,
	}
	s.registerTools()
	return s
}

// Run serves the MCP protocol over stdio until ctx is cancelled or the
// transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_add",
		Description: "Extract and store persistent facts from a piece of conversation text.",
	}, s.handleAdd)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_query",
		Description: "Retrieve the memories most semantically relevant to a query.",
	}, s.handleQuery)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_list",
		Description: "List stored memories, most recent first.",
	}, s.handleList)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_get",
		Description: "Get one memory by id.",
	}, s.handleGet)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_update",
		Description: "Update a memory's content and/or metadata.",
	}, s.handleUpdate)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_delete",
		Description: "Delete a memory by id.",
	}, s.handleDelete)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "recall_clear",
		Description: "Destructively remove every memory for a user. Requires explicit confirmation by the caller.",
	}, s.handleClear)
}

// resolveUser falls back to the server-configured default when userId is
// omitted; returns an error if neither is set (§6).
func (s *Server) resolveUser(userID string) (string, error) {
	if userID != "" {
		return userID, nil
	}
	if s.defaultUser != "" {
		return s.defaultUser, nil
	}
	return "", fmt.Errorf("userId is required and no default userId is configured")
}

func (s *Server) handleAdd(ctx context.Context, req *mcp.CallToolRequest, in AddIn) (*mcp.CallToolResult, Envelope, error) {
	tenant, err := s.resolveUser(in.UserID)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	memories, err := s.client.Extract(ctx, in.Text, memory.ExtractOptions{
		Tenant: tenant, Source: in.Source, SourceID: in.SourceID,
	})
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(response.FromMemories(memories)), nil
}

func (s *Server) handleQuery(ctx context.Context, req *mcp.CallToolRequest, in QueryIn) (*mcp.CallToolResult, Envelope, error) {
	tenant, err := s.resolveUser(in.UserID)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	results, err := s.client.Query(ctx, in.Query, memory.QueryOptions{
		Tenant: tenant, Limit: in.Limit, Threshold: in.Threshold,
	})
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(response.FromMemories(results)), nil
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, in ListIn) (*mcp.CallToolResult, Envelope, error) {
	tenant, err := s.resolveUser(in.UserID)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	results, err := s.client.List(ctx, tenant, vectorstore.ListOptions{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(response.FromMemories(results)), nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, in GetIn) (*mcp.CallToolResult, Envelope, error) {
	m, err := s.client.Get(ctx, in.ID)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(response.FromMemory(m)), nil
}

func (s *Server) handleUpdate(ctx context.Context, req *mcp.CallToolRequest, in UpdateIn) (*mcp.CallToolResult, Envelope, error) {
	if in.Content == nil && in.Metadata == nil {
		err := fmt.Errorf("at least one of content or metadata is required")
		return errorResult(err), fail(err.Error()), nil
	}
	m, err := s.client.Update(ctx, in.ID, in.Content, in.Metadata)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(response.FromMemory(m)), nil
}

func (s *Server) handleDelete(ctx context.Context, req *mcp.CallToolRequest, in DeleteIn) (*mcp.CallToolResult, Envelope, error) {
	if err := s.client.Delete(ctx, in.ID); err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(nil), nil
}

// handleClear resolves userId the same way every other tool does, per
// the Open-Question resolution in SPEC_FULL.md: an explicit userId or a
// configured default, never a silent no-op.
func (s *Server) handleClear(ctx context.Context, req *mcp.CallToolRequest, in ClearIn) (*mcp.CallToolResult, Envelope, error) {
	tenant, err := s.resolveUser(in.UserID)
	if err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	if err := s.client.Clear(ctx, tenant); err != nil {
		return errorResult(err), fail(err.Error()), nil
	}
	return okResult(), ok(nil), nil
}

func okResult() *mcp.CallToolResult {
	return &mcp.CallToolResult{}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
