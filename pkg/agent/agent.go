package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/recallmem/recall/pkg/llm"
	"github.com/recallmem/recall/pkg/structuredclient"
)

// defaultMaxSteps bounds the tool-calling loop (§4.I, §8 "Agent bound").
const defaultMaxSteps = 10

// Agent drives a bounded LLM tool-calling session over the structured
// client's six tools, used when a structured UPDATE/DELETE needs a
// search step before mutation.
type Agent struct {
	llm      *llm.Client
	client   *structuredclient.Client
	cache    *toolCache
	maxSteps int
}

// Option configures an Agent at construction.
type Option func(*Agent)

// WithMaxSteps overrides the default tool-call bound.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func New(llmClient *llm.Client, client *structuredclient.Client, opts ...Option) *Agent {
	a := &Agent{llm: llmClient, client: client, cache: newToolCache(), maxSteps: defaultMaxSteps}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ToolCallRecord is one executed tool call plus its result, for the
// caller-facing trace.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    any    `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the agent's return envelope (§4.I).
type Result struct {
	Text         string           `json:"text"`
	Steps        int              `json:"steps"`
	ToolCalls    []ToolCallRecord `json:"toolCalls"`
	DataModified bool             `json:"dataModified"`
}

// Context carries what the structured client already extracted, so the
// agent can skip re-extraction and focus on the search-then-mutate hop
// (§4.I).
type Context struct {
	Tenant      string
	Intent      string
	Schema      string
	Fields      map[string]any
}

// Run drives the tool-calling loop for one user utterance.
func (a *Agent) Run(ctx context.Context, userText string, agentCtx Context) (*Result, error) {
	tools, ok := a.cache.get(agentCtx.Tenant)
	if !ok {
		tools = toolDefinitions()
		a.cache.put(agentCtx.Tenant, tools)
	}

	messages := []llm.Message{
		{Role: "user", Content: strPtr(userText)},
	}
	systemPrompt := buildAgentSystemPrompt(agentCtx)

	result := &Result{}
	for step := 0; step < a.maxSteps; step++ {
		completion, err := a.llm.CompleteWithTools(ctx, append([]llm.Message{
			{Role: "system", Content: strPtr(systemPrompt)},
		}, messages...), tools)
		if err != nil {
			return nil, fmt.Errorf("agent: step %d: %w", step, err)
		}
		result.Steps = step + 1

		if len(completion.ToolCalls) == 0 {
			if completion.Content != nil {
				result.Text = *completion.Content
			}
			return result, nil
		}

		assistantMsg := llm.Message{Role: "assistant", ToolCalls: completion.ToolCalls}
		if completion.Content != nil {
			assistantMsg.Content = completion.Content
		}
		messages = append(messages, assistantMsg)

		for _, call := range completion.ToolCalls {
			tr := a.executeTool(ctx, agentCtx.Tenant, call)
			if tr.mutated {
				result.DataModified = true
			}

			record := ToolCallRecord{Name: call.Function.Name, Arguments: call.Function.Arguments, Error: tr.Error}
			if tr.Error == "" {
				record.Result = tr.Data
			}
			result.ToolCalls = append(result.ToolCalls, record)

			payload, _ := json.Marshal(tr)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    strPtr(string(payload)),
				ToolCallID: call.ID,
			})
		}
	}

	result.Text = "stopped after reaching the maximum number of tool-calling steps"
	return result, nil
}

func buildAgentSystemPrompt(c Context) string {
	prompt := "You resolve a structured-memory update or delete request by searching for the target record, then mutating it with the appropriate tool. Use listSchemas if you need field names; prefer searchRecords or listRecords over guessing an id."
	if c.Schema != "" {
		prompt += fmt.Sprintf(" The request was already classified as intent=%s against schema=%s.", c.Intent, c.Schema)
	}
	if len(c.Fields) > 0 {
		data, _ := json.Marshal(c.Fields)
		prompt += fmt.Sprintf(" Pre-extracted fields (skip re-extracting these): %s", string(data))
	}
	return prompt
}

func strPtr(s string) *string { return &s }
