package facts

import (
	"context"
	"fmt"

	"github.com/recallmem/recall/pkg/llm"
)

// Service runs the two structured-output LLM round-trips of §4.C.
type Service struct {
	client *llm.Client
}

// NewService builds a fact extraction/consolidation service over an LLM
// client. A nil client is valid: every call then returns the documented
// fallback (empty extraction, ADD consolidation) instead of erroring.
func NewService(client *llm.Client) *Service {
	return &Service{client: client}
}

func (s *Service) IsConfigured() bool { return s.client != nil }

// Extract atomises history+latest into third-person facts. If the parser
// yields nothing — including when no client is configured — it returns
// an empty result rather than an error.
func (s *Service) Extract(ctx context.Context, history []Message, latest Message) (*ExtractionResult, error) {
	if !s.IsConfigured() {
		return &ExtractionResult{}, nil
	}

	prompt := buildExtractionPrompt(history, latest)
	raw, err := s.client.CompleteJSON(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("facts: extract: %w", err)
	}

	result, err := ParseExtraction(raw)
	if err != nil {
		return &ExtractionResult{}, nil
	}
	return result, nil
}

// Consolidate classifies newFact against neighbours (already remapped to
// ordinal ids by the caller). If neighbours is empty the call is skipped
// entirely and ADD is returned locally, per §4.C. Any LLM or parse
// failure degrades to ADD with the raw fact rather than surfacing an
// error, so a single bad consolidation never aborts an extract call.
func (s *Service) Consolidate(ctx context.Context, newFact string, neighbours []Neighbour) *Consolidation {
	if len(neighbours) == 0 {
		content := newFact
		return &Consolidation{Action: ActionAdd, Content: &content}
	}
	if !s.IsConfigured() {
		content := newFact
		return &Consolidation{Action: ActionAdd, Content: &content}
	}

	prompt := buildConsolidationPrompt(newFact, neighbours)
	raw, err := s.client.CompleteJSON(ctx, consolidationSystemPrompt, prompt)
	if err != nil {
		content := newFact
		return &Consolidation{Action: ActionAdd, Content: &content}
	}

	c, err := ParseConsolidation(raw)
	if err != nil {
		content := newFact
		return &Consolidation{Action: ActionAdd, Content: &content}
	}
	return c
}
