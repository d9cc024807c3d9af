// Package structuredclient orchestrates the structured-memory pipeline
// (spec §4.H): intent detection, branching into query generation or
// direct row mutation, and post-commit side-effect handlers.
package structuredclient

import (
	"context"
	"fmt"
	"time"

	"github.com/recallmem/recall/internal/structstore"
	"github.com/recallmem/recall/pkg/intent"
	"github.com/recallmem/recall/pkg/querygen"
	"github.com/recallmem/recall/pkg/recallerrs"
)

// Handler is a user-registered side-effect callback invoked after a
// successful structured mutation. Handlers are not transactional: if one
// returns an error, the row remains committed and the error surfaces as
// the operation's error (§4.H, at-least-once semantics).
type Handler func(ctx context.Context, schema string, record *structstore.Record) error

// ProcessOptions carries the tenant and an optional date override for the
// intent prompt (defaults to time.Now() when empty).
type ProcessOptions struct {
	Tenant string
	Date   string
}

// ProcessResult is the result envelope of one process call.
type ProcessResult struct {
	Matched     bool
	Reason      string
	Action      string // "query" | "insert" | "update" | "delete"
	Schema      string
	SQL         string
	Result      any
	Explanation string
	Record      *structstore.Record
}

// Client orchestrates intent → (query generation | direct mutation).
type Client struct {
	store    *structstore.Store
	intent   *intent.Processor
	querygen *querygen.Generator
	onInsert Handler
	onUpdate Handler
	onDelete Handler
}

func New(store *structstore.Store, intentProc *intent.Processor, qg *querygen.Generator) *Client {
	return &Client{store: store, intent: intentProc, querygen: qg}
}

// Schemas and Schema expose the registered schema set read-only, for
// callers (the agent's listSchemas tool, the MCP layer) that need to
// describe the structured-memory surface without reaching into the
// store directly.
func (c *Client) Schemas() []structstore.SchemaDef        { return c.store.Schemas() }
func (c *Client) Schema(name string) (structstore.SchemaDef, bool) { return c.store.Schema(name) }

func (c *Client) OnInsert(h Handler) { c.onInsert = h }
func (c *Client) OnUpdate(h Handler) { c.onUpdate = h }
func (c *Client) OnDelete(h Handler) { c.onDelete = h }

// Process runs the full structured-memory orchestration for one
// utterance.
func (c *Client) Process(ctx context.Context, text string, opts ProcessOptions) (*ProcessResult, error) {
	date := opts.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	env, err := c.intent.Classify(ctx, text, c.store.Schemas(), date)
	if err != nil {
		return nil, fmt.Errorf("structuredclient: process: %w", err)
	}

	if !env.Matched || env.Intent == intent.None {
		return &ProcessResult{Matched: false, Reason: env.Reason}, nil
	}

	schema, ok := c.store.Schema(env.Schema)
	if !ok {
		return &ProcessResult{Matched: false, Reason: "schema not registered: " + env.Schema}, nil
	}

	switch env.Intent {
	case intent.Query:
		return c.processQuery(ctx, text, opts.Tenant, schema)
	case intent.Insert:
		return c.processInsert(ctx, schema, opts.Tenant, env)
	case intent.Update:
		return c.processUpdate(ctx, schema, opts.Tenant, env)
	case intent.Delete:
		return c.processDelete(ctx, schema, opts.Tenant, env)
	default:
		return &ProcessResult{Matched: false, Reason: "unrecognised intent"}, nil
	}
}

func (c *Client) processQuery(ctx context.Context, text, tenant string, _ structstore.SchemaDef) (*ProcessResult, error) {
	gen, err := c.querygen.Generate(ctx, text, c.store.Schemas(), tenant)
	if err != nil {
		return nil, fmt.Errorf("structuredclient: query: %w", err)
	}
	if !gen.CanAnswer {
		return nil, &recallerrs.QueryGenerationError{Explanation: gen.Explanation}
	}

	rows, err := c.store.Query(ctx, gen.SQL)
	if err != nil {
		return nil, fmt.Errorf("structuredclient: query: %w", err)
	}

	var result any = rows
	if len(rows) == 1 && len(rows[0]) == 1 {
		for _, v := range rows[0] {
			result = v
		}
	}

	return &ProcessResult{
		Matched: true, Action: "query", SQL: gen.SQL,
		Result: result, Explanation: gen.Explanation,
	}, nil
}

func (c *Client) processInsert(ctx context.Context, schema structstore.SchemaDef, tenant string, env *intent.Envelope) (*ProcessResult, error) {
	data, err := intent.ToData(env.Data)
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Insert(ctx, schema, tenant, data)
	if err != nil {
		return nil, err
	}
	if c.onInsert != nil {
		if err := c.onInsert(ctx, schema.Name, rec); err != nil {
			return nil, fmt.Errorf("structuredclient: onInsert handler: %w", err)
		}
	}
	return &ProcessResult{Matched: true, Action: "insert", Schema: schema.Name, Record: rec}, nil
}

func (c *Client) processUpdate(ctx context.Context, schema structstore.SchemaDef, tenant string, env *intent.Envelope) (*ProcessResult, error) {
	target, err := c.resolveMatch(ctx, schema, tenant, env.MatchCriteria)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &recallerrs.RecordNotFound{Schema: schema.Name}
	}

	data, err := intent.ToData(env.UpdateData)
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Update(ctx, schema, tenant, target.ID, data)
	if err != nil {
		return nil, err
	}
	if c.onUpdate != nil {
		if err := c.onUpdate(ctx, schema.Name, rec); err != nil {
			return nil, fmt.Errorf("structuredclient: onUpdate handler: %w", err)
		}
	}
	return &ProcessResult{Matched: true, Action: "update", Schema: schema.Name, Record: rec}, nil
}

func (c *Client) processDelete(ctx context.Context, schema structstore.SchemaDef, tenant string, env *intent.Envelope) (*ProcessResult, error) {
	target, err := c.resolveMatch(ctx, schema, tenant, env.MatchCriteria)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &recallerrs.RecordNotFound{Schema: schema.Name}
	}

	if err := c.store.Delete(ctx, schema, tenant, target.ID); err != nil {
		return nil, err
	}
	if c.onDelete != nil {
		if err := c.onDelete(ctx, schema.Name, target); err != nil {
			return nil, fmt.Errorf("structuredclient: onDelete handler: %w", err)
		}
	}
	return &ProcessResult{Matched: true, Action: "delete", Schema: schema.Name, Record: target}, nil
}

// resolveMatch finds the target row for an update/delete without ever
// round-tripping SQL through the LLM: most_recent uses GetMostRecent,
// as do nil criteria, an empty field, and a field the schema does not
// declare; anything else uses FindByField against matchCriteria.field/value.
func (c *Client) resolveMatch(ctx context.Context, schema structstore.SchemaDef, tenant string, mc *intent.MatchCriteria) (*structstore.Record, error) {
	if mc == nil {
		return c.store.GetMostRecent(ctx, schema, tenant)
	}
	if mc.Recency == intent.RecencyMostRecent || mc.Field == "" {
		return c.store.GetMostRecent(ctx, schema, tenant)
	}

	f, ok := schema.FindField(mc.Field)
	if !ok {
		return c.store.GetMostRecent(ctx, schema, tenant)
	}
	var value any = mc.Value
	if f.Type == structstore.FieldNumber {
		data, err := intent.ToData([]intent.FieldValue{{Field: mc.Field, Value: mc.Value, Type: string(structstore.FieldNumber)}})
		if err == nil {
			value = data[mc.Field]
		}
	}

	records, err := c.store.FindByField(ctx, schema, tenant, mc.Field, value)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// List, Get, Update, Delete are typed thin wrappers around the store
// that re-validate with the schema and raise RecordNotFound on missing
// ids (§4.H).

func (c *Client) List(ctx context.Context, schemaName, tenant string, limit int) ([]*structstore.Record, error) {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	return c.store.List(ctx, schema, tenant, limit)
}

func (c *Client) Get(ctx context.Context, schemaName, tenant, id string) (*structstore.Record, error) {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	rec, err := c.store.Get(ctx, schema, tenant, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &recallerrs.RecordNotFound{Schema: schemaName, ID: id}
	}
	return rec, nil
}

func (c *Client) Update(ctx context.Context, schemaName, tenant, id string, data map[string]any) (*structstore.Record, error) {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	if err := structstore.Validate(schema, data, true); err != nil {
		return nil, err
	}
	rec, err := c.store.Update(ctx, schema, tenant, id, data)
	if err != nil {
		return nil, err
	}
	if c.onUpdate != nil {
		if err := c.onUpdate(ctx, schemaName, rec); err != nil {
			return nil, fmt.Errorf("structuredclient: onUpdate handler: %w", err)
		}
	}
	return rec, nil
}

func (c *Client) Delete(ctx context.Context, schemaName, tenant, id string) error {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	rec, err := c.store.Get(ctx, schema, tenant, id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, schema, tenant, id); err != nil {
		return err
	}
	if c.onDelete != nil {
		if err := c.onDelete(ctx, schemaName, rec); err != nil {
			return fmt.Errorf("structuredclient: onDelete handler: %w", err)
		}
	}
	return nil
}

// SearchField is a thin passthrough to the store's bounded substring
// search, used by the tool-using agent's searchRecords tool (§4.I).
func (c *Client) SearchField(ctx context.Context, schemaName, tenant, field, value string) ([]*structstore.Record, error) {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	return c.store.SearchField(ctx, schema, tenant, field, value)
}

// Insert is a direct CRUD wrapper around the store, re-validating with
// the schema rather than going through intent classification.
func (c *Client) Insert(ctx context.Context, schemaName, tenant string, data map[string]any) (*structstore.Record, error) {
	schema, ok := c.store.Schema(schemaName)
	if !ok {
		return nil, fmt.Errorf("structuredclient: unknown schema %q", schemaName)
	}
	rec, err := c.store.Insert(ctx, schema, tenant, data)
	if err != nil {
		return nil, err
	}
	if c.onInsert != nil {
		if err := c.onInsert(ctx, schemaName, rec); err != nil {
			return nil, fmt.Errorf("structuredclient: onInsert handler: %w", err)
		}
	}
	return rec, nil
}
