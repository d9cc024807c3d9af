// Package querygen turns a natural-language question into a safe,
// tenant-scoped SELECT statement (spec §4.G).
package querygen

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/recallmem/recall/internal/structstore"
	"github.com/recallmem/recall/pkg/llm"
)

// Result is the query generator's output envelope.
type Result struct {
	CanAnswer   bool   `json:"canAnswer"`
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// Generator produces tenant-scoped SELECT statements from questions.
type Generator struct {
	client *llm.Client
}

func NewGenerator(client *llm.Client) *Generator {
	return &Generator{client: client}
}

const systemPrompt = `You translate a natural-language question about stored structured data into a single SQLite SELECT statement.

Return a JSON object with this exact structure:
{
  "canAnswer": true|false,
  "sql": "the SELECT statement, empty if canAnswer is false",
  "explanation": "one sentence describing what the query does"
}

Rules:
- Only SELECT statements are ever valid. Never emit INSERT, UPDATE, DELETE, or DDL.
- The query MUST include a WHERE clause that filters user_id = '<tenant>' using the exact tenant id given below.
- If the question cannot be answered from the declared schemas, set canAnswer to false and leave sql empty.`

func buildPrompt(question string, schemas []structstore.SchemaDef, tenant string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tenant id: %s\n\n", tenant)
	b.WriteString("Declared schemas (table name: columns):\n")
	for _, s := range schemas {
		cols := []string{"id", "user_id"}
		for _, f := range s.Fields {
			cols = append(cols, f.ColumnName())
		}
		cols = append(cols, "created_at", "updated_at")
		fmt.Fprintf(&b, "- %s: %s\n", s.TableName(), strings.Join(cols, ", "))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// Generate asks the LLM for a SELECT answering question, then enforces
// tenant scoping server-side regardless of what the model returned
// (§9: generator-time regex check is a conservative, non-parsing gate).
func (g *Generator) Generate(ctx context.Context, question string, schemas []structstore.SchemaDef, tenant string) (*Result, error) {
	raw, err := g.client.CompleteJSON(ctx, systemPrompt, buildPrompt(question, schemas, tenant))
	if err != nil {
		return nil, fmt.Errorf("querygen: generate: %w", err)
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("querygen: generate: malformed response: %w", err)
	}
	if !result.CanAnswer {
		return &result, nil
	}

	result.SQL = enforceTenantScope(result.SQL, tenant)
	return &result, nil
}

var (
	userIDMention = regexp.MustCompile(`(?i)user_id`)
	whereClause   = regexp.MustCompile(`(?i)\bwhere\b`)
	tailClause    = regexp.MustCompile(`(?i)\b(group\s+by|order\s+by|limit)\b`)
)

// enforceTenantScope deterministically rewrites sql to reference
// user_id = '<tenant>' if it doesn't already mention user_id anywhere —
// extending an existing WHERE, inserting a new WHERE before
// GROUP BY/ORDER BY/LIMIT, or appending one at the end (§4.G). Neither
// this nor the caller parses the SQL; both are intentionally
// conservative string operations.
func enforceTenantScope(sql, tenant string) string {
	if userIDMention.MatchString(sql) {
		return sql
	}
	clause := fmt.Sprintf("user_id = '%s'", escapeSQLString(tenant))

	if loc := whereClause.FindStringIndex(sql); loc != nil {
		insertAt := loc[1]
		return sql[:insertAt] + " " + clause + " AND" + sql[insertAt:]
	}

	if loc := tailClause.FindStringIndex(sql); loc != nil {
		return sql[:loc[0]] + "WHERE " + clause + " " + sql[loc[0]:]
	}

	return strings.TrimRight(sql, "; \t\n") + " WHERE " + clause
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
