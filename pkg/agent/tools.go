// Package agent implements the tool-using agent of spec §4.I: a bounded
// LLM tool-calling loop over six structured-memory tools.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/recallmem/recall/internal/structstore"
	"github.com/recallmem/recall/pkg/llm"
	"github.com/recallmem/recall/pkg/structuredclient"
)

const (
	toolListSchemas   = "listSchemas"
	toolListRecords   = "listRecords"
	toolGetRecord     = "getRecord"
	toolSearchRecords = "searchRecords"
	toolInsertRecord  = "insertRecord"
	toolUpdateRecord  = "updateRecord"
	toolDeleteRecord  = "deleteRecord"
)

func rawSchema(s string) json.RawMessage { return json.RawMessage(s) }

// toolDefinitions returns the six (seven, counting listSchemas) tool
// schemas the agent may call, fixed shapes independent of tenant.
func toolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolListSchemas,
			Description: "List every declared structured-memory schema and its fields.",
			Parameters:  rawSchema(`{"type":"object","properties":{}}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolListRecords,
			Description: "List the most recent records for a schema.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"limit":{"type":"integer","default":10}
			},"required":["schema"]}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolGetRecord,
			Description: "Get one record by id.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"id":{"type":"string"}
			},"required":["schema","id"]}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolSearchRecords,
			Description: "Case-insensitive substring search over one field, across the most recent 100 records.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"field":{"type":"string"},
				"value":{"type":"string"}
			},"required":["schema","field","value"]}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolInsertRecord,
			Description: "Insert a new record into a schema's table.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"data":{"type":"object"}
			},"required":["schema","data"]}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolUpdateRecord,
			Description: "Update fields on an existing record.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"id":{"type":"string"},
				"data":{"type":"object"}
			},"required":["schema","id","data"]}`),
		}},
		{Type: "function", Function: llm.ToolFunctionSchema{
			Name:        toolDeleteRecord,
			Description: "Delete a record by id.",
			Parameters: rawSchema(`{"type":"object","properties":{
				"schema":{"type":"string"},
				"id":{"type":"string"}
			},"required":["schema","id"]}`),
		}},
	}
}

// toolResult is what a tool call returns to the model. A validation
// failure is reported as {error, issues[]} rather than aborting the loop,
// so the model can retry with corrected arguments (§7).
type toolResult struct {
	Data     any      `json:"data,omitempty"`
	Error    string   `json:"error,omitempty"`
	Issues   []string `json:"issues,omitempty"`
	mutated  bool
}

func errResult(err error) toolResult {
	if ve, ok := asSchemaValidationError(err); ok {
		issues := make([]string, len(ve.Fields))
		for i, f := range ve.Fields {
			issues[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
		}
		return toolResult{Error: "validation failed", Issues: issues}
	}
	return toolResult{Error: err.Error()}
}

// executeTool dispatches one tool call against the structured client and
// tenant. It never returns a Go error for a domain-level failure
// (unknown schema, missing record, bad arguments) — those become a
// toolResult with Error set, so the loop can keep going.
func (a *Agent) executeTool(ctx context.Context, tenant string, call llm.ToolCall) toolResult {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return toolResult{Error: "invalid JSON arguments: " + err.Error()}
	}

	switch call.Function.Name {
	case toolListSchemas:
		return a.toolListSchemas()
	case toolListRecords:
		return a.toolListRecords(ctx, tenant, args)
	case toolGetRecord:
		return a.toolGetRecord(ctx, tenant, args)
	case toolSearchRecords:
		return a.toolSearchRecords(ctx, tenant, args)
	case toolInsertRecord:
		return a.toolInsertRecord(ctx, tenant, args)
	case toolUpdateRecord:
		return a.toolUpdateRecord(ctx, tenant, args)
	case toolDeleteRecord:
		return a.toolDeleteRecord(ctx, tenant, args)
	default:
		return toolResult{Error: "unknown tool: " + call.Function.Name}
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func (a *Agent) toolListSchemas() toolResult {
	schemas := a.client.Schemas()
	type schemaInfo struct {
		Name        string               `json:"name"`
		Description string               `json:"description"`
		Fields      []structstore.FieldDef `json:"fields"`
	}
	out := make([]schemaInfo, len(schemas))
	for i, s := range schemas {
		out[i] = schemaInfo{Name: s.Name, Description: s.Description, Fields: s.Fields}
	}
	return toolResult{Data: out}
}

func (a *Agent) toolListRecords(ctx context.Context, tenant string, args map[string]any) toolResult {
	schema, ok := stringArg(args, "schema")
	if !ok {
		return toolResult{Error: "schema is required"}
	}
	limit := 10
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}
	recs, err := a.client.List(ctx, schema, tenant, limit)
	if err != nil {
		return errResult(err)
	}
	return toolResult{Data: recs}
}

func (a *Agent) toolGetRecord(ctx context.Context, tenant string, args map[string]any) toolResult {
	schema, ok1 := stringArg(args, "schema")
	id, ok2 := stringArg(args, "id")
	if !ok1 || !ok2 {
		return toolResult{Error: "schema and id are required"}
	}
	rec, err := a.client.Get(ctx, schema, tenant, id)
	if err != nil {
		return errResult(err)
	}
	return toolResult{Data: rec}
}

func (a *Agent) toolSearchRecords(ctx context.Context, tenant string, args map[string]any) toolResult {
	schemaName, ok1 := stringArg(args, "schema")
	field, ok2 := stringArg(args, "field")
	value, ok3 := stringArg(args, "value")
	if !ok1 || !ok2 || !ok3 {
		return toolResult{Error: "schema, field, and value are required"}
	}
	recs, err := a.client.SearchField(ctx, schemaName, tenant, field, value)
	if err != nil {
		return errResult(err)
	}
	return toolResult{Data: recs}
}

func (a *Agent) toolInsertRecord(ctx context.Context, tenant string, args map[string]any) toolResult {
	schema, ok1 := stringArg(args, "schema")
	data, ok2 := args["data"].(map[string]any)
	if !ok1 || !ok2 {
		return toolResult{Error: "schema and data are required"}
	}
	rec, err := a.client.Insert(ctx, schema, tenant, data)
	if err != nil {
		return errResult(err)
	}
	return toolResult{Data: rec, mutated: true}
}

func (a *Agent) toolUpdateRecord(ctx context.Context, tenant string, args map[string]any) toolResult {
	schema, ok1 := stringArg(args, "schema")
	id, ok2 := stringArg(args, "id")
	data, ok3 := args["data"].(map[string]any)
	if !ok1 || !ok2 || !ok3 {
		return toolResult{Error: "schema, id, and data are required"}
	}
	rec, err := a.client.Update(ctx, schema, tenant, id, data)
	if err != nil {
		return errResult(err)
	}
	return toolResult{Data: rec, mutated: true}
}

func (a *Agent) toolDeleteRecord(ctx context.Context, tenant string, args map[string]any) toolResult {
	schema, ok1 := stringArg(args, "schema")
	id, ok2 := stringArg(args, "id")
	if !ok1 || !ok2 {
		return toolResult{Error: "schema and id are required"}
	}
	if err := a.client.Delete(ctx, schema, tenant, id); err != nil {
		return errResult(err)
	}
	return toolResult{Data: map[string]string{"deleted": id}, mutated: true}
}
