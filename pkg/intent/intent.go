// Package intent implements the structured-memory intent processor
// (spec §4.F): one LLM call that classifies an utterance as
// insert/query/update/delete/none and extracts whatever structured
// payload that classification implies.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/recallmem/recall/internal/structstore"
	"github.com/recallmem/recall/pkg/llm"
)

type Type string

const (
	Insert Type = "insert"
	Query  Type = "query"
	Update Type = "update"
	Delete Type = "delete"
	None   Type = "none"
)

// Recency is how a match-criteria should locate a row when no field
// value narrows it.
type Recency string

const (
	RecencyMostRecent Recency = "most_recent"
	RecencyToday      Recency = "today"
	RecencyThisWeek   Recency = "this_week"
	RecencyAny        Recency = "any"
)

// FieldValue is one {field, value, type} triple as transported on the
// wire — the LLM emits typed strings, never raw JSON values, so it can
// never smuggle in unexpected keys (§3).
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type MatchCriteria struct {
	Field   string  `json:"field"`
	Value   string  `json:"value"`
	Recency Recency `json:"recency"`
}

// Envelope is the Extraction envelope of §3.
type Envelope struct {
	Matched       bool           `json:"matched"`
	Schema        string         `json:"schema,omitempty"`
	Confidence    float64        `json:"confidence"`
	Reason        string         `json:"reason"`
	Intent        Type           `json:"intent"`
	Data          []FieldValue   `json:"data,omitempty"`
	Query         string         `json:"query,omitempty"`
	MatchCriteria *MatchCriteria `json:"matchCriteria,omitempty"`
	UpdateData    []FieldValue   `json:"updateData,omitempty"`
}

// Processor runs the intent-classification LLM call.
type Processor struct {
	client *llm.Client
}

func NewProcessor(client *llm.Client) *Processor {
	return &Processor{client: client}
}

// Classify runs the intent call for text against the declared schemas,
// substituting today (or an override date) into the prompt, then applies
// the post-processing invariants of §4.F server-side.
func (p *Processor) Classify(ctx context.Context, text string, schemas []structstore.SchemaDef, today string) (*Envelope, error) {
	prompt := buildIntentPrompt(text, schemas, today)
	raw, err := p.client.CompleteJSON(ctx, intentSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("intent: classify: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("intent: classify: malformed response: %w", err)
	}

	postProcess(&env, schemas)
	return &env, nil
}

// postProcess enforces the server-side invariants of §4.F: schema must
// be a declared name else the match is demoted, and typed fields are
// coerced rather than trusted as written.
func postProcess(env *Envelope, schemas []structstore.SchemaDef) {
	if env.Matched {
		if !isDeclaredSchema(env.Schema, schemas) {
			env.Matched = false
			env.Schema = ""
		}
	}
	coerceFieldValues(env.Data)
	coerceFieldValues(env.UpdateData)
}

func isDeclaredSchema(name string, schemas []structstore.SchemaDef) bool {
	for _, s := range schemas {
		if s.Name == name {
			return true
		}
	}
	return false
}

// coerceFieldValues normalises the raw string values the LLM emits:
// numbers strip currency formatting before parsing, booleans accept a
// handful of truthy spellings case-insensitively. The normalised form is
// written back into Value so downstream consumers (validation, SQL
// binds) see a clean literal.
func coerceFieldValues(fields []FieldValue) {
	for i, f := range fields {
		switch f.Type {
		case string(structstore.FieldNumber):
			cleaned := strings.NewReplacer("$", "", ",", "").Replace(f.Value)
			if n, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64); err == nil {
				fields[i].Value = strconv.FormatFloat(n, 'f', -1, 64)
			}
		case string(structstore.FieldBoolean):
			switch strings.ToLower(strings.TrimSpace(f.Value)) {
			case "true", "yes", "1":
				fields[i].Value = "true"
			case "false", "no", "0":
				fields[i].Value = "false"
			}
		}
	}
}

// ToData converts the wire field-value list into a typed payload map
// ready for structstore validation/insertion.
func ToData(fields []FieldValue) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch structstore.FieldType(f.Type) {
		case structstore.FieldNumber:
			n, err := strconv.ParseFloat(f.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("intent: field %q: not a number: %q", f.Field, f.Value)
			}
			out[f.Field] = n
		case structstore.FieldBoolean:
			out[f.Field] = strings.EqualFold(f.Value, "true")
		case structstore.FieldObject, structstore.FieldArray:
			var v any
			if err := json.Unmarshal([]byte(f.Value), &v); err != nil {
				return nil, fmt.Errorf("intent: field %q: not valid JSON: %w", f.Field, err)
			}
			out[f.Field] = v
		default:
			out[f.Field] = f.Value
		}
	}
	return out, nil
}
