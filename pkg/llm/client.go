package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is a chat-completion client backed by a real HTTP transport,
// using github.com/sashabaranov/go-openai so the module
// runs as an ordinary server/CLI process.
type Client struct {
	raw   *openai.Client
	model string
}

// NewClient builds a client against the OpenAI API. baseURL may be empty
// to use the default OpenAI endpoint, or set to point at a compatible
// gateway (OpenRouter, a local proxy, etc).
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{raw: openai.NewClientWithConfig(cfg), model: model}
}

// Complete runs a single-turn completion with an optional system prompt.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})

	resp, err := c.raw.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("llm: complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: complete: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteJSON runs a completion constrained to return a JSON object,
// using the provider's native JSON mode rather than prompting-and-hoping.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})

	resp, err := c.raw.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       msgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("llm: complete json: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: complete json: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithTools runs a completion that may invoke one or more of the
// supplied tools. The caller is responsible for looping: appending the
// assistant's tool calls and their results back into messages and calling
// this again until the model stops calling tools.
func (c *Client) CompleteWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (*CompletionResult, error) {
	reqMsgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		reqMsgs[i] = toOpenAIMessage(m)
	}
	reqTools := make([]openai.Tool, len(tools))
	for i, t := range tools {
		reqTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  json.RawMessage(t.Function.Parameters),
			},
		}
	}

	resp, err := c.raw.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: reqMsgs,
		Tools:    reqTools,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: complete with tools: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: complete with tools: empty choices in response")
	}

	msg := resp.Choices[0].Message
	result := &CompletionResult{}
	if msg.Content != "" {
		result.Content = strPtr(msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return result, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       m.Role,
		ToolCallID: m.ToolCallID,
	}
	if m.Content != nil {
		out.Content = *m.Content
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolType(tc.Type),
			Function: openai.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}
