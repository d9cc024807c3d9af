// Package structstore implements the structured memory store (spec §4.E):
// dynamic per-schema SQL tables derived from typed field declarations,
// sanitised identifiers, positional binds, and a SELECT-only safety gate
// for LLM-generated SQL. Built around caller-declared schemas rather than
// a fixed note/entity model.
package structstore

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldType is one of the typed shapes a schema field may declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date" // stored as ISO-8601 string
	FieldEnum    FieldType = "enum"
	FieldObject  FieldType = "object" // stored as JSON text
	FieldArray   FieldType = "array"  // stored as JSON text
)

// FieldDef declares one column of a structured schema.
type FieldDef struct {
	Name        string
	Type        FieldType
	Required    bool
	Description string
	EnumValues  []string // only meaningful when Type == FieldEnum
}

// SchemaDef names a trackable event type and its typed record shape.
// Each SchemaDef materialises exactly one table.
type SchemaDef struct {
	Name        string
	Description string
	Fields      []FieldDef
}

// TableName is the sanitised table identifier this schema materialises
// to. It sanitises Name on every call, so every SQL string (DDL, CRUD,
// generated queries) that uses it interpolates a known-safe name.
func (s SchemaDef) TableName() string { return sanitizeIdent(s.Name) }

func (f FieldDef) ColumnName() string { return sanitizeIdent(f.Name) }

// sqlColumnType maps a field type to the SQLite storage class used for
// its column.
func (f FieldDef) sqlColumnType() string {
	switch f.Type {
	case FieldNumber:
		return "REAL"
	case FieldBoolean:
		return "INTEGER"
	default: // string, date, enum, object, array all persist as text
		return "TEXT"
	}
}

var unsafeIdentChar = regexp.MustCompile(`[^a-z0-9_]+`)

// sanitizeIdent lowercases s and replaces every run of characters outside
// [a-z0-9_] with a single underscore, so the result is always safe to
// interpolate directly into SQL (§3: "sanitised to [a-z0-9_]+").
func sanitizeIdent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeIdentChar.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "field"
	}
	return s
}

// FindField returns the field declaration named name, if any.
func (s SchemaDef) FindField(name string) (FieldDef, bool) {
	target := sanitizeIdent(name)
	for _, f := range s.Fields {
		if f.ColumnName() == target {
			return f, true
		}
	}
	return FieldDef{}, false
}

// ddl returns the CREATE TABLE IF NOT EXISTS statement for this schema,
// per the fixed column layout of §3: id, user_id, one column per field,
// created_at, updated_at.
func (s SchemaDef) ddl() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.TableName())
	b.WriteString("  id TEXT PRIMARY KEY,\n")
	b.WriteString("  user_id TEXT NOT NULL,\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "  %s %s,\n", f.ColumnName(), f.sqlColumnType())
	}
	b.WriteString("  created_at TEXT NOT NULL,\n")
	b.WriteString("  updated_at TEXT NOT NULL\n")
	b.WriteString(")")
	return b.String()
}

func (s SchemaDef) indexDDL() string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_user_id ON %s(user_id)",
		s.TableName(), s.TableName())
}
