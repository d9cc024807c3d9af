package facts

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseExtraction parses the raw LLM response into an ExtractionResult.
// Handles markdown code fences and falls back to regex repair on
// malformed JSON.
func ParseExtraction(raw string) (*ExtractionResult, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return &ExtractionResult{}, nil
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return filterExtraction(&result), nil
	}

	facts := repairFacts(cleaned)
	return &ExtractionResult{Facts: facts}, nil
}

func filterExtraction(r *ExtractionResult) *ExtractionResult {
	out := &ExtractionResult{Facts: make([]ExtractedFact, 0, len(r.Facts))}
	for _, f := range r.Facts {
		f.Content = strings.TrimSpace(f.Content)
		if f.Content == "" {
			continue
		}
		out.Facts = append(out.Facts, f)
	}
	return out
}

var factPattern = regexp.MustCompile(`\{\s*"content"\s*:\s*"((?:[^"\\]|\\.)*)"\s*\}`)

func repairFacts(raw string) []ExtractedFact {
	matches := factPattern.FindAllStringSubmatch(raw, -1)
	facts := make([]ExtractedFact, 0, len(matches))
	for _, m := range matches {
		var content string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &content); err != nil {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		facts = append(facts, ExtractedFact{Content: content})
	}
	return facts
}

// ParseConsolidation parses the raw LLM response into a Consolidation
// decision. An unparseable or empty response is the caller's cue to
// default to ADD with the raw fact (§4.C); this function returns an
// error in that case rather than guessing.
func ParseConsolidation(raw string) (*Consolidation, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, fmt.Errorf("facts: empty consolidation response")
	}

	var c Consolidation
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return nil, fmt.Errorf("facts: malformed consolidation response: %w", err)
	}

	switch c.Action {
	case ActionAdd, ActionUpdate, ActionDelete, ActionNone:
	default:
		return nil, fmt.Errorf("facts: unknown consolidation action %q", c.Action)
	}
	return &c, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
