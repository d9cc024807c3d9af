// Package recallerrs collects the error kinds shared across the
// structured-memory pipeline (§7), so callers can distinguish them with
// errors.As regardless of which package raised them.
package recallerrs

import (
	"fmt"
	"strings"
)

// RecordNotFound is returned when a mutation or direct CRUD call
// references a structured record id that doesn't exist.
type RecordNotFound struct {
	Schema string
	ID     string
}

func (e *RecordNotFound) Error() string {
	return fmt.Sprintf("recall: record not found: schema=%s id=%s", e.Schema, e.ID)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// SchemaValidationError carries every field-level message produced while
// validating a payload against a declared schema.
type SchemaValidationError struct {
	Schema string
	Fields []FieldError
}

func (e *SchemaValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("recall: schema %q validation failed: %s", e.Schema, strings.Join(msgs, "; "))
}

// QueryGenerationError is returned when the query generator could not
// produce an answerable query (canAnswer:false).
type QueryGenerationError struct {
	Explanation string
}

func (e *QueryGenerationError) Error() string {
	return fmt.Sprintf("recall: cannot answer query: %s", e.Explanation)
}

// LLMError wraps an upstream LLM failure (HTTP, timeout, non-JSON body).
type LLMError struct {
	Op  string
	Err error
}

func (e *LLMError) Error() string { return fmt.Sprintf("recall: llm %s: %v", e.Op, e.Err) }
func (e *LLMError) Unwrap() error { return e.Err }

// ConfigError is returned for a missing or invalid startup configuration
// value (e.g. an unset API key).
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("recall: config error: %s: %s", e.Field, e.Message)
}
