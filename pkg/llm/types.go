// Package llm wraps a chat-completion API behind the shapes the rest of
// the module needs: plain completions, JSON-mode completions (the reply is
// constrained to a JSON object; no JSON schema is sent, so its shape is
// checked by the caller's parser), and tool-calling completions.
package llm

import "encoding/json"

// Message is one turn in a chat completion request. Content is a pointer
// because an assistant message that only carries tool calls has a null
// content field on the wire.
type Message struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall is the name/arguments pair inside a ToolCall. Arguments
// arrives as a raw JSON string on the wire, not a parsed object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition advertises one callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ToolFunctionSchema is a tool's name, description, and JSON Schema
// parameter shape.
type ToolFunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CompletionResult is a parsed chat completion response: either textual
// content, one or more tool calls, or both.
type CompletionResult struct {
	Content   *string
	ToolCalls []ToolCall
}

func strPtr(s string) *string { return &s }
